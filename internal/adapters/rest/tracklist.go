package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// trackListRequest is the public request shape for producing a track list.
type trackListRequest struct {
	Prompt         string   `json:"prompt"`
	Count          int      `json:"count"`
	Genres         []string `json:"genres,omitempty"`
	ArtistIDs      []string `json:"artist_ids,omitempty"`
	Energy         *float64 `json:"energy,omitempty"`
	InstrumentalOK bool     `json:"instrumental_ok,omitempty"`
}

type trackListResponse struct {
	Tracks []string              `json:"tracks"`
	Count  int                   `json:"count"`
	Params domain.VibeParameters `json:"params"`
}

func (h *Handler) handleTrackList(w http.ResponseWriter, r *http.Request) {
	var req trackListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	ctx := r.Context()
	params := h.extractor.ExtractVibe(ctx, req.Prompt)

	// Caller steering on top of the extracted parameters.
	if req.Energy != nil {
		params = params.WithEnergyPoint(*req.Energy)
	}
	if len(req.Genres) > 0 {
		params.UserGenres = trimAll(req.Genres)
	}
	if len(req.ArtistIDs) > 0 {
		params.UserArtistIDs = trimAll(req.ArtistIDs)
	}
	if req.InstrumentalOK {
		params.InstrumentalOK = true
	}

	tracks, err := h.pipeline.ProduceTrackList(ctx, params, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConnected):
			writeError(w, http.StatusUnauthorized, "music service not connected")
		case errors.Is(err, domain.ErrNoMatches):
			writeError(w, http.StatusNotFound, "no tracks found for this vibe")
		default:
			h.log.Error().Err(err).Msg("track list production failed")
			writeError(w, http.StatusInternalServerError, "track list production failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, trackListResponse{
		Tracks: tracks,
		Count:  len(tracks),
		Params: params,
	})
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
