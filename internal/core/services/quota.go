package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

const (
	quotaMinTotal    = 8
	quotaMaxTotal    = 28
	quotaMinPer      = 2
	maxQuotaArtists  = 5
	quotaShareFactor = 3 // ~60% of the requested count, as 3n/5
)

// QuotaEnforcer guarantees explicitly requested artists a minimum share of
// the pool by injecting their top tracks directly. Best-effort: individual
// lookup failures are skipped, and the contract is "as many as available,
// up to quota".
type QuotaEnforcer struct {
	catalog ports.Catalog
	log     zerolog.Logger
}

// NewQuotaEnforcer constructs a QuotaEnforcer.
func NewQuotaEnforcer(catalog ports.Catalog, log zerolog.Logger) *QuotaEnforcer {
	return &QuotaEnforcer{catalog: catalog, log: log}
}

// TopUp appends each requested artist's top tracks to pool, up to a
// per-artist quota, skipping URIs already in seen. seen is extended with
// every appended URI. Auth failures abort; other lookup failures skip
// the artist.
func (q *QuotaEnforcer) TopUp(ctx context.Context, artistIDs []string, n int, pool []domain.Track, seen map[string]struct{}) ([]domain.Track, error) {
	if len(artistIDs) == 0 {
		return pool, nil
	}

	targetTotal := n * quotaShareFactor / 5
	if targetTotal < quotaMinTotal {
		targetTotal = quotaMinTotal
	}
	if targetTotal > quotaMaxTotal {
		targetTotal = quotaMaxTotal
	}

	// The share divides across every requested artist even though only
	// the first five are fetched.
	perArtist := targetTotal / len(artistIDs)
	if perArtist < quotaMinPer {
		perArtist = quotaMinPer
	}

	count := len(artistIDs)
	if count > maxQuotaArtists {
		count = maxQuotaArtists
	}

	for _, id := range artistIDs[:count] {
		tracks, err := q.catalog.ArtistTopTracks(ctx, id)
		if errors.Is(err, domain.ErrNotConnected) {
			return nil, err
		}
		if err != nil {
			q.log.Warn().Err(err).Str("artist_id", id).Msg("top tracks lookup failed, skipping artist")
			continue
		}
		taken := 0
		for _, t := range tracks {
			if taken >= perArtist {
				break
			}
			if t.URI == "" {
				continue
			}
			if _, dup := seen[t.URI]; dup {
				continue
			}
			seen[t.URI] = struct{}{}
			pool = append(pool, t)
			taken++
		}
	}
	return pool, nil
}
