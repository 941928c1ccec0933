package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

// derivedGenreCap limits how many genre seeds are borrowed from the
// requested artists' own genre tags.
const derivedGenreCap = 2

// Budgeter assembles the seed set for a recommendation request under the
// five-entity budget: explicit artists first, normalized genres in the
// remaining slots, with two fallback paths that guarantee the set is never
// empty while the vocabulary is non-empty.
type Budgeter struct {
	catalog    ports.Catalog
	vocab      *Vocabulary
	normalizer *Normalizer
	log        zerolog.Logger
}

// NewBudgeter constructs a Budgeter.
func NewBudgeter(catalog ports.Catalog, vocab *Vocabulary, normalizer *Normalizer, log zerolog.Logger) *Budgeter {
	return &Budgeter{catalog: catalog, vocab: vocab, normalizer: normalizer, log: log}
}

// Build produces the seed set for params. The only error it surfaces is
// the "not connected" condition; every transient failure degrades.
func (b *Budgeter) Build(ctx context.Context, params domain.VibeParameters) (domain.SeedSet, error) {
	var set domain.SeedSet

	for _, id := range params.UserArtistIDs {
		if !set.AddArtist(id) {
			break
		}
	}

	if raw := params.RawGenres(); len(raw) > 0 {
		genres, err := b.normalizer.Normalize(ctx, raw)
		if err != nil {
			return domain.SeedSet{}, err
		}
		for _, g := range genres {
			if !set.AddGenre(g) {
				break
			}
		}
	}

	// Artists were chosen but none of the genre hints were usable: borrow
	// the artists' own declared genres instead.
	if len(set.Artists()) > 0 && len(set.Genres()) == 0 {
		derived, err := b.artistGenres(ctx, set.Artists())
		if err != nil {
			return domain.SeedSet{}, err
		}
		for _, g := range derived {
			if !set.AddGenre(g) {
				break
			}
		}
	}

	if set.Empty() {
		g, err := b.guaranteedGenre(ctx)
		if err != nil {
			return domain.SeedSet{}, err
		}
		set.AddGenre(g)
	}

	return set, nil
}

// artistGenres looks up each artist's declared genres and normalizes them
// into valid seeds. Individual lookup failures are skipped; an auth
// failure aborts.
func (b *Budgeter) artistGenres(ctx context.Context, artistIDs []string) ([]string, error) {
	var raw []string
	for _, id := range artistIDs {
		artist, err := b.catalog.Artist(ctx, id)
		if errors.Is(err, domain.ErrNotConnected) {
			return nil, err
		}
		if err != nil {
			b.log.Warn().Err(err).Str("artist_id", id).Msg("artist genre lookup failed")
			continue
		}
		raw = append(raw, artist.Genres...)
	}

	genres, err := b.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(genres) > derivedGenreCap {
		genres = genres[:derivedGenreCap]
	}
	return genres, nil
}

// guaranteedGenre picks exactly one genre from the upbeat preference list
// intersected with the vocabulary, falling back to any vocabulary entry.
func (b *Budgeter) guaranteedGenre(ctx context.Context) (string, error) {
	allowed, err := b.vocab.Allowed(ctx)
	if err != nil {
		return "", err
	}
	for _, g := range upbeatPreference {
		if _, ok := allowed[g]; ok {
			return g, nil
		}
	}
	for g := range allowed {
		return g, nil
	}
	return "", nil
}
