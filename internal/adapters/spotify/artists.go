package spotify

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// Artist fetches one artist with its declared genre tags.
func (c *Client) Artist(ctx context.Context, id string) (domain.Artist, error) {
	var body spotifyArtist
	if err := c.getJSON(ctx, c.baseURL+"/artists/"+id, &body); err != nil {
		return domain.Artist{}, fmt.Errorf("artist %q: %w", id, err)
	}
	return mapArtistToDomain(body), nil
}

// ArtistTopTracks returns the artist's current top tracks.
func (c *Client) ArtistTopTracks(ctx context.Context, id string) ([]domain.Track, error) {
	var body struct {
		Tracks []spotifyTrack `json:"tracks"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/artists/"+id+"/top-tracks", &body); err != nil {
		return nil, fmt.Errorf("top tracks for %q: %w", id, err)
	}

	tracks := make([]domain.Track, 0, len(body.Tracks))
	for _, st := range body.Tracks {
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks, nil
}
