package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// SearchTracks runs a free-form track search.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(clampSearchLimit(limit)))

	var body struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("track search: %w", err)
	}

	tracks := make([]domain.Track, 0, len(body.Tracks.Items))
	for _, st := range body.Tracks.Items {
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks, nil
}

// SearchArtists runs a free-form artist search.
func (c *Client) SearchArtists(ctx context.Context, query string, limit int) ([]domain.Artist, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "artist")
	q.Set("limit", strconv.Itoa(clampSearchLimit(limit)))

	var body struct {
		Artists struct {
			Items []spotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("artist search: %w", err)
	}

	artists := make([]domain.Artist, 0, len(body.Artists.Items))
	for _, sa := range body.Artists.Items {
		artists = append(artists, mapArtistToDomain(sa))
	}
	return artists, nil
}

func clampSearchLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 50 {
		return 50
	}
	return limit
}
