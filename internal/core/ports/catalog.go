package ports

import (
	"context"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// RecommendRequest is a single call to the external recommendation
// endpoint. Nil target pointers are omitted from the outgoing request.
type RecommendRequest struct {
	SeedArtists []string
	SeedGenres  []string
	SeedTracks  []string

	TargetEnergy       *float64
	TargetValence      *float64
	TargetDanceability *float64
	TargetAcousticness *float64
	TargetTempo        *int

	Limit  int
	Market string // empty means no region hint
}

// Catalog is the abstract contract with the external music service:
// recommendations bound by a closed seed vocabulary, plus batch metadata,
// feature, search, and artist lookups. Implementations are treated as
// unreliable; callers own all fallback behavior.
type Catalog interface {
	// GenreSeeds returns the service's closed genre-seed vocabulary.
	GenreSeeds(ctx context.Context) ([]string, error)

	// Recommend returns zero or more tracks for the given seeds and targets.
	Recommend(ctx context.Context, req RecommendRequest) ([]domain.Track, error)

	// SearchTracks runs a free-form text search over the track catalog.
	SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error)

	// SearchArtists runs a free-form text search over the artist catalog.
	SearchArtists(ctx context.Context, query string, limit int) ([]domain.Artist, error)

	// Artist fetches one artist with its declared genre tags.
	Artist(ctx context.Context, id string) (domain.Artist, error)

	// ArtistTopTracks returns the artist's current top tracks.
	ArtistTopTracks(ctx context.Context, id string) ([]domain.Track, error)

	// TracksMetadata batch-fetches title/album/duration descriptors by URI.
	// Missing entries are simply absent from the result.
	TracksMetadata(ctx context.Context, uris []string) (map[string]domain.Track, error)

	// AudioFeatures batch-fetches audio-feature descriptors by URI.
	// Missing entries are simply absent from the result.
	AudioFeatures(ctx context.Context, uris []string) (map[string]domain.AudioFeatures, error)
}
