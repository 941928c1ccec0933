// Package rest is the thin HTTP transport over the pipeline services.
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
	"github.com/ewilliams-labs/vibelist/backend/internal/logging"
)

// TrackListProducer is the pipeline's single entry point.
type TrackListProducer interface {
	ProduceTrackList(ctx context.Context, params domain.VibeParameters, n int) ([]string, error)
}

// HeroResolver resolves one representative artist per genre.
type HeroResolver interface {
	Resolve(ctx context.Context, genre string) (domain.GenreHero, bool)
}

// GenreLister exposes the seed vocabulary for the UI.
type GenreLister interface {
	List(ctx context.Context) ([]string, error)
}

// ArtistSearcher supports the artist-picker UI.
type ArtistSearcher interface {
	SearchArtists(ctx context.Context, query string, limit int) ([]domain.Artist, error)
}

// Handler bundles the driving adapters behind the HTTP surface.
type Handler struct {
	extractor ports.VibeExtractor
	pipeline  TrackListProducer
	heroes    HeroResolver
	genres    GenreLister
	artists   ArtistSearcher
	log       zerolog.Logger
}

// NewHandler constructs the Handler.
func NewHandler(extractor ports.VibeExtractor, pipeline TrackListProducer, heroes HeroResolver, genres GenreLister, artists ArtistSearcher, log zerolog.Logger) *Handler {
	return &Handler{
		extractor: extractor,
		pipeline:  pipeline,
		heroes:    heroes,
		genres:    genres,
		artists:   artists,
		log:       log,
	}
}

// Router assembles the chi router. metricsHandler, when non-nil, is
// mounted at /metrics.
func (h *Handler) Router(corsOrigins []string, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.handleHealth)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/tracklist", h.handleTrackList)
		r.Get("/genres", h.handleGenres)
		r.Get("/genre-hero", h.handleGenreHero)
		r.Get("/genre-heroes", h.handleGenreHeroes)
		r.Get("/artists/search", h.handleArtistSearch)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logging.NewRequestID()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
