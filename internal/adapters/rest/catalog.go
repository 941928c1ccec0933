package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

const (
	defaultArtistSearchLimit = 8
	maxArtistSearchLimit     = 12
)

func (h *Handler) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.List(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			writeError(w, http.StatusUnauthorized, "music service not connected")
			return
		}
		h.log.Error().Err(err).Msg("genre listing failed")
		writeError(w, http.StatusInternalServerError, "genre listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"genres": genres})
}

func (h *Handler) handleGenreHero(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	hero, ok := h.heroes.Resolve(r.Context(), genre)
	if !ok {
		writeError(w, http.StatusNotFound, "no hero found for genre "+strconv.Quote(genre))
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

func (h *Handler) handleGenreHeroes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("genres")
	out := make(map[string]domain.GenreHero)
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if hero, ok := h.heroes.Resolve(r.Context(), g); ok {
			out[g] = hero
		}
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "no heroes found for provided genres")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type artistSearchResult struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Image      string   `json:"image,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity"`
	URL        string   `json:"url,omitempty"`
}

func (h *Handler) handleArtistSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := defaultArtistSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxArtistSearchLimit {
		limit = maxArtistSearchLimit
	}

	artists, err := h.artists.SearchArtists(r.Context(), query, limit)
	if err != nil {
		h.log.Warn().Err(err).Str("query", query).Msg("artist search failed")
		writeError(w, http.StatusBadGateway, "artist search failed")
		return
	}

	results := make([]artistSearchResult, 0, len(artists))
	for _, a := range artists {
		results = append(results, artistSearchResult{
			ID:         a.ID,
			Name:       a.Name,
			Image:      a.ImageURL,
			Genres:     a.Genres,
			Popularity: a.Popularity,
			URL:        a.URL,
		})
	}
	writeJSON(w, http.StatusOK, map[string][]artistSearchResult{"artists": results})
}
