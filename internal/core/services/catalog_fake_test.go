package services

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

// fakeCatalog is a scriptable ports.Catalog for pipeline tests.
type fakeCatalog struct {
	genreSeeds    []string
	genreSeedsErr error

	recommendFn   func(req ports.RecommendRequest) ([]domain.Track, error)
	searchTracks  func(query string, limit int) ([]domain.Track, error)
	searchArtists func(query string, limit int) ([]domain.Artist, error)

	artists      map[string]domain.Artist
	topTracks    map[string][]domain.Track
	topTracksErr map[string]error
	meta         map[string]domain.Track
	features     map[string]domain.AudioFeatures
	featuresErr  error

	recommendCalls []ports.RecommendRequest
	artistCalls    []string
}

var _ ports.Catalog = (*fakeCatalog)(nil)

func (f *fakeCatalog) GenreSeeds(context.Context) ([]string, error) {
	return f.genreSeeds, f.genreSeedsErr
}

func (f *fakeCatalog) Recommend(_ context.Context, req ports.RecommendRequest) ([]domain.Track, error) {
	f.recommendCalls = append(f.recommendCalls, req)
	if f.recommendFn == nil {
		return nil, nil
	}
	return f.recommendFn(req)
}

func (f *fakeCatalog) SearchTracks(_ context.Context, query string, limit int) ([]domain.Track, error) {
	if f.searchTracks == nil {
		return nil, nil
	}
	return f.searchTracks(query, limit)
}

func (f *fakeCatalog) SearchArtists(_ context.Context, query string, limit int) ([]domain.Artist, error) {
	if f.searchArtists == nil {
		return nil, nil
	}
	return f.searchArtists(query, limit)
}

func (f *fakeCatalog) Artist(_ context.Context, id string) (domain.Artist, error) {
	f.artistCalls = append(f.artistCalls, id)
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return domain.Artist{}, errors.New("artist not found")
}

func (f *fakeCatalog) ArtistTopTracks(_ context.Context, id string) ([]domain.Track, error) {
	if err, ok := f.topTracksErr[id]; ok {
		return nil, err
	}
	return f.topTracks[id], nil
}

func (f *fakeCatalog) TracksMetadata(_ context.Context, uris []string) (map[string]domain.Track, error) {
	out := make(map[string]domain.Track)
	for _, u := range uris {
		if m, ok := f.meta[u]; ok {
			out[u] = m
		}
	}
	return out, nil
}

func (f *fakeCatalog) AudioFeatures(_ context.Context, uris []string) (map[string]domain.AudioFeatures, error) {
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	out := make(map[string]domain.AudioFeatures)
	for _, u := range uris {
		if feat, ok := f.features[u]; ok {
			out[u] = feat
		}
	}
	return out, nil
}

// track builds a minimal candidate with a URI-derived title.
func track(uri string) domain.Track {
	return domain.Track{URI: uri, ID: uri, Title: "Song " + uri, Artist: "Artist", Album: "Album"}
}

func trackList(uris ...string) []domain.Track {
	out := make([]domain.Track, len(uris))
	for i, u := range uris {
		out[i] = track(u)
	}
	return out
}

func uriSet(tracks []domain.Track) map[string]bool {
	out := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		out[t.URI] = true
	}
	return out
}
