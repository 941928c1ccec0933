package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

const (
	tracksChunkSize   = 50
	featuresChunkSize = 100
)

// TracksMetadata batch-fetches track descriptors by URI, chunked to the
// endpoint's ID limit. The result is keyed by the caller's URI; missing
// entries are simply absent.
func (c *Client) TracksMetadata(ctx context.Context, uris []string) (map[string]domain.Track, error) {
	out := make(map[string]domain.Track, len(uris))

	for _, chunk := range chunkStrings(uris, tracksChunkSize) {
		ids := make([]string, len(chunk))
		for i, u := range chunk {
			ids[i] = trackID(u)
		}

		q := url.Values{}
		q.Set("ids", strings.Join(ids, ","))

		var body struct {
			Tracks []*spotifyTrack `json:"tracks"`
		}
		if err := c.getJSON(ctx, c.baseURL+"/tracks?"+q.Encode(), &body); err != nil {
			return nil, fmt.Errorf("tracks metadata: %w", err)
		}

		// The response keeps request order and null-pads invalid IDs, so
		// key through the request chunk rather than the returned URIs.
		// Callers may pass bare IDs or open.spotify.com URLs.
		for i, st := range body.Tracks {
			if st == nil || st.ID == "" || i >= len(chunk) {
				continue
			}
			out[chunk[i]] = mapTrackToDomain(*st)
		}
	}
	return out, nil
}

// AudioFeatures batch-fetches audio-feature descriptors by URI.
func (c *Client) AudioFeatures(ctx context.Context, uris []string) (map[string]domain.AudioFeatures, error) {
	out := make(map[string]domain.AudioFeatures, len(uris))

	for _, chunk := range chunkStrings(uris, featuresChunkSize) {
		ids := make([]string, len(chunk))
		for i, u := range chunk {
			ids[i] = trackID(u)
		}

		q := url.Values{}
		q.Set("ids", strings.Join(ids, ","))

		var body struct {
			AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
		}
		if err := c.getJSON(ctx, c.baseURL+"/audio-features?"+q.Encode(), &body); err != nil {
			return nil, fmt.Errorf("audio features: %w", err)
		}

		// The response is positional and null-padded for unanalyzable
		// tracks, so key through the request chunk rather than trusting
		// the returned URIs.
		for i, sf := range body.AudioFeatures {
			if sf == nil || sf.ID == "" || i >= len(chunk) {
				continue
			}
			out[chunk[i]] = mapFeaturesToDomain(*sf)
		}
	}
	return out, nil
}

func chunkStrings(in []string, size int) [][]string {
	if size <= 0 || len(in) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(in); start += size {
		end := start + size
		if end > len(in) {
			end = len(in)
		}
		chunks = append(chunks, in[start:end])
	}
	return chunks
}
