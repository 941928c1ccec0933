package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

// defaultSeedGenres is the hard fallback vocabulary used when the service's
// genre-seed listing is unavailable, so normalization always has something
// to validate against.
var defaultSeedGenres = []string{
	"pop", "dance-pop", "edm", "house", "hip-hop", "r-n-b",
	"indie-pop", "alt-rock", "trap", "electronic", "chill",
	"ambient", "dancehall", "reggaeton", "funk", "soul",
}

// Vocabulary is the process-wide cache of valid seed-genre strings.
// It is populated lazily on first use, from the catalog when reachable and
// from defaultSeedGenres otherwise, and is immutable once populated.
type Vocabulary struct {
	catalog ports.Catalog
	log     zerolog.Logger

	mu  sync.Mutex
	set map[string]struct{}
}

// NewVocabulary creates an unpopulated vocabulary backed by catalog.
func NewVocabulary(catalog ports.Catalog, log zerolog.Logger) *Vocabulary {
	return &Vocabulary{catalog: catalog, log: log}
}

// Allowed returns the set of valid seed genres, fetching it on first call.
// The fixed default vocabulary backs every transient error path; the only
// failure it surfaces is domain.ErrNotConnected, which is never cached so
// a later credential fix recovers.
func (v *Vocabulary) Allowed(ctx context.Context) (map[string]struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.set != nil {
		return v.set, nil
	}

	seeds, err := v.catalog.GenreSeeds(ctx)
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	if err != nil || len(seeds) == 0 {
		if err != nil {
			v.log.Warn().Err(err).Msg("genre seed fetch failed, using default vocabulary")
		}
		seeds = defaultSeedGenres
	}

	set := make(map[string]struct{}, len(seeds))
	for _, g := range seeds {
		if g != "" {
			set[g] = struct{}{}
		}
	}
	v.set = set
	return v.set, nil
}

// List returns the vocabulary sorted for stable presentation.
func (v *Vocabulary) List(ctx context.Context) ([]string, error) {
	allowed, err := v.Allowed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(allowed))
	for g := range allowed {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}
