package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

// GenreSeeds fetches the closed genre-seed vocabulary.
func (c *Client) GenreSeeds(ctx context.Context) ([]string, error) {
	var body struct {
		Genres []string `json:"genres"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/recommendations/available-genre-seeds", &body); err != nil {
		return nil, fmt.Errorf("genre seeds: %w", err)
	}
	return body.Genres, nil
}

// Recommend calls the recommendations endpoint. Nil targets and the empty
// market are omitted from the query.
func (c *Client) Recommend(ctx context.Context, req ports.RecommendRequest) ([]domain.Track, error) {
	q := url.Values{}
	if len(req.SeedArtists) > 0 {
		q.Set("seed_artists", strings.Join(req.SeedArtists, ","))
	}
	if len(req.SeedGenres) > 0 {
		q.Set("seed_genres", strings.Join(req.SeedGenres, ","))
	}
	if len(req.SeedTracks) > 0 {
		q.Set("seed_tracks", strings.Join(req.SeedTracks, ","))
	}
	setTarget(q, "target_energy", req.TargetEnergy)
	setTarget(q, "target_valence", req.TargetValence)
	setTarget(q, "target_danceability", req.TargetDanceability)
	setTarget(q, "target_acousticness", req.TargetAcousticness)
	if req.TargetTempo != nil {
		q.Set("target_tempo", strconv.Itoa(*req.TargetTempo))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Market != "" {
		q.Set("market", req.Market)
	}

	var body struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/recommendations?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	tracks := make([]domain.Track, 0, len(body.Tracks))
	for _, st := range body.Tracks {
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks, nil
}

func setTarget(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', 2, 64))
	}
}
