package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
	"github.com/ewilliams-labs/vibelist/backend/internal/metrics"
)

const (
	// DefaultTrackCount is used when the caller does not specify one.
	DefaultTrackCount = 15
	// MaxTrackCount caps a single request.
	MaxTrackCount = 50

	keywordSeedChance  = 0.6
	keywordQueryLimit  = 3
	backfillSearchSize = 50
)

// defaultSearchQuery backs the text-search backfill when neither keywords
// nor genres are available.
var defaultSearchQuery = []string{"best", "mix"}

// Pipeline is the candidate-selection and filtering pipeline: it turns
// extracted vibe parameters into an ordered list of track URIs of exactly
// the requested length, or as many as the catalog can supply.
type Pipeline struct {
	catalog    ports.Catalog
	vocab      *Vocabulary
	normalizer *Normalizer
	budgeter   *Budgeter
	jit        *Jitterer
	requester  *Requester
	filter     *ContentFilter
	quota      *QuotaEnforcer
	enricher   ports.FeatureEnricher // optional
	log        zerolog.Logger
	met        *metrics.Metrics
}

// PipelineOptions carries the optional collaborators of a Pipeline.
type PipelineOptions struct {
	Market   string
	Enricher ports.FeatureEnricher
	Jitterer *Jitterer
	Metrics  *metrics.Metrics
}

// NewPipeline wires the pipeline stages around a catalog.
func NewPipeline(catalog ports.Catalog, log zerolog.Logger, opts PipelineOptions) *Pipeline {
	jit := opts.Jitterer
	if jit == nil {
		jit = NewJitterer(nil)
	}

	vocab := NewVocabulary(catalog, log)
	normalizer := NewNormalizer(vocab)

	return &Pipeline{
		catalog:    catalog,
		vocab:      vocab,
		normalizer: normalizer,
		budgeter:   NewBudgeter(catalog, vocab, normalizer, log),
		jit:        jit,
		requester:  NewRequester(catalog, jit, opts.Market, log, opts.Metrics),
		filter:     NewContentFilter(log, opts.Metrics),
		quota:      NewQuotaEnforcer(catalog, log),
		enricher:   opts.Enricher,
		log:        log,
		met:        opts.Metrics,
	}
}

// Vocabulary exposes the shared seed vocabulary for presentation callers.
func (p *Pipeline) Vocabulary() *Vocabulary {
	return p.vocab
}

// ProduceTrackList runs the full pipeline for params and returns at most n
// track URIs with no duplicates. The only failures it surfaces are
// domain.ErrNotConnected, which aborts immediately, and
// domain.ErrNoMatches after every fallback is exhausted; transient
// catalog errors degrade internally.
func (p *Pipeline) ProduceTrackList(ctx context.Context, params domain.VibeParameters, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultTrackCount
	}
	if n > MaxTrackCount {
		n = MaxTrackCount
	}

	seeds, err := p.budgeter.Build(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if err := p.maybeAddKeywordSeed(ctx, &seeds, params.Keywords); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	pool, err := p.requester.Request(ctx, seeds, params, n)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	seen := make(map[string]struct{}, len(pool))
	for _, t := range pool {
		seen[t.URI] = struct{}{}
	}

	pool, err = p.quota.TopUp(ctx, params.UserArtistIDs, n, pool, seen)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	pool, err = p.fillMetadata(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	features, err := p.lookupFeatures(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	if p.enricher != nil {
		p.enricher.EnrichMissing(ctx, pool, features)
	}

	filtered, _ := p.filter.FilterStaged(pool, features, params, n)

	if len(filtered) < n {
		filtered, err = p.backfillFromSearch(ctx, params, filtered, seen)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	if len(filtered) == 0 {
		return nil, fmt.Errorf("pipeline: %w", domain.ErrNoMatches)
	}

	p.jit.Shuffle(len(filtered), func(i, k int) {
		filtered[i], filtered[k] = filtered[k], filtered[i]
	})
	if len(filtered) > n {
		filtered = filtered[:n]
	}

	uris := make([]string, len(filtered))
	for i, t := range filtered {
		uris[i] = t.URI
	}
	return uris, nil
}

// maybeAddKeywordSeed opportunistically spends a leftover seed slot on a
// track found by keyword search. The probabilistic gate keeps repeated
// identical requests from always anchoring on the same track.
func (p *Pipeline) maybeAddKeywordSeed(ctx context.Context, seeds *domain.SeedSet, keywords []string) error {
	if seeds.Room() <= 0 || len(keywords) == 0 || !p.jit.Chance(keywordSeedChance) {
		return nil
	}

	for i, kw := range keywords {
		if i >= keywordQueryLimit {
			break
		}
		query := kw
		if strings.Contains(kw, " ") {
			query = fmt.Sprintf("track:%q", kw)
		}
		tracks, err := p.catalog.SearchTracks(ctx, query, 2)
		if errors.Is(err, domain.ErrNotConnected) {
			return err
		}
		if err != nil {
			p.log.Debug().Err(err).Str("keyword", kw).Msg("keyword seed search failed")
			continue
		}
		for _, t := range tracks {
			if t.ID != "" && seeds.AddTrack(t.ID) {
				return nil
			}
		}
	}
	return nil
}

// fillMetadata batch-fetches descriptors for pool entries that arrived as
// bare URIs, so the title/album heuristic has something to chew on.
// Transient lookup failure leaves the pool untouched.
func (p *Pipeline) fillMetadata(ctx context.Context, pool []domain.Track) ([]domain.Track, error) {
	var missing []string
	for _, t := range pool {
		if t.Title == "" {
			missing = append(missing, t.URI)
		}
	}
	if len(missing) == 0 {
		return pool, nil
	}

	meta, err := p.catalog.TracksMetadata(ctx, missing)
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, err
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("track metadata lookup failed")
		return pool, nil
	}
	for i, t := range pool {
		if t.Title != "" {
			continue
		}
		if m, ok := meta[t.URI]; ok {
			m.URI = t.URI
			pool[i] = m
		}
	}
	return pool, nil
}

// lookupFeatures batch-fetches audio features for the pool. A failed or
// partial lookup yields a smaller map; absent entries survive filtering.
// The map is always non-nil so the preview enricher can still fill gaps
// after a dead lookup.
func (p *Pipeline) lookupFeatures(ctx context.Context, pool []domain.Track) (map[string]domain.AudioFeatures, error) {
	if len(pool) == 0 {
		return map[string]domain.AudioFeatures{}, nil
	}
	uris := make([]string, len(pool))
	for i, t := range pool {
		uris[i] = t.URI
	}

	features, err := p.catalog.AudioFeatures(ctx, uris)
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, err
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("audio feature lookup failed, filtering on titles only")
		return map[string]domain.AudioFeatures{}, nil
	}
	if features == nil {
		features = map[string]domain.AudioFeatures{}
	}
	return features, nil
}

// backfillFromSearch merges text-search results into the filtered pool
// when it is still short of the requested count. Advisory best-effort:
// failures are swallowed, and only the cheap title heuristic is applied to
// the newcomers.
func (p *Pipeline) backfillFromSearch(ctx context.Context, params domain.VibeParameters, filtered []domain.Track, seen map[string]struct{}) ([]domain.Track, error) {
	p.met.SearchBackfill()

	bits := params.Keywords
	if len(bits) == 0 {
		var err error
		bits, err = p.normalizer.Normalize(ctx, params.RawGenres())
		if err != nil {
			return nil, err
		}
	}
	if len(bits) == 0 {
		bits = defaultSearchQuery
	}
	if len(bits) > keywordQueryLimit {
		bits = bits[:keywordQueryLimit]
	}
	query := strings.Join(bits, " ")

	tracks, err := p.catalog.SearchTracks(ctx, query, backfillSearchSize)
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, err
	}
	if err != nil {
		p.log.Warn().Err(err).Str("query", query).Msg("search backfill failed")
		return filtered, nil
	}

	for _, t := range tracks {
		if t.URI == "" {
			continue
		}
		if _, dup := seen[t.URI]; dup {
			continue
		}
		if LooksLikeNoise(t.Title, t.Album) {
			continue
		}
		seen[t.URI] = struct{}{}
		filtered = append(filtered, t)
	}
	return filtered, nil
}
