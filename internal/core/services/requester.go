package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
	"github.com/ewilliams-labs/vibelist/backend/internal/metrics"
)

const (
	minRecommendLimit = 10
	maxRecommendLimit = 50
)

// Requester drives the external recommendation endpoint through a staged
// fallback chain, degrading the parameter set when a call errors or comes
// back empty. The only error it surfaces is domain.ErrNotConnected; for
// everything else the worst outcome is an empty result.
type Requester struct {
	catalog ports.Catalog
	jit     *Jitterer
	market  string
	log     zerolog.Logger
	met     *metrics.Metrics
}

// NewRequester constructs a Requester. market is the region hint attached
// to outgoing calls; empty disables the hint.
func NewRequester(catalog ports.Catalog, jit *Jitterer, market string, log zerolog.Logger, met *metrics.Metrics) *Requester {
	return &Requester{catalog: catalog, jit: jit, market: market, log: log, met: met}
}

// Request walks the fallback chain and returns whatever the first
// successful stage produced, deduplicated by URI. Stages, in order:
//
//  1. seeds + jittered feature targets + region hint
//  2. seeds only, targets dropped, region hint kept
//  3. genre seeds only, if any exist
//
// Within every stage the call is attempted with the region hint first and
// retried without it, which absorbs interface drift around that parameter.
// An auth failure aborts the chain immediately.
func (r *Requester) Request(ctx context.Context, set domain.SeedSet, params domain.VibeParameters, n int) ([]domain.Track, error) {
	limit := n
	if limit < minRecommendLimit {
		limit = minRecommendLimit
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}

	seen := make(map[string]struct{})
	var bag []domain.Track
	collect := func(tracks []domain.Track) int {
		added := 0
		for _, t := range tracks {
			if t.URI == "" {
				continue
			}
			if _, dup := seen[t.URI]; dup {
				continue
			}
			seen[t.URI] = struct{}{}
			bag = append(bag, t)
			added++
		}
		return added
	}

	full := r.buildRequest(set, params, limit)

	stages := []struct {
		name string
		req  ports.RecommendRequest
		skip bool
	}{
		{name: "full", req: full},
		{name: "seeds_only", req: stripTargets(full)},
		{name: "genres_only", req: genresOnly(full), skip: len(full.SeedGenres) == 0},
	}

	for _, stage := range stages {
		if stage.skip {
			continue
		}
		tracks, err := r.tryRegionVariants(ctx, stage.name, stage.req)
		if err != nil {
			return nil, err
		}
		if collect(tracks) > 0 {
			r.met.RecommendStage(stage.name)
			return bag, nil
		}
	}

	r.log.Warn().Msg("recommendation chain exhausted without results")
	return bag, nil
}

// buildRequest assembles the full-fat request: every feature target
// jittered around its range center, the tempo target perturbed within its
// slack, and the region hint attached.
func (r *Requester) buildRequest(set domain.SeedSet, params domain.VibeParameters, limit int) ports.RecommendRequest {
	energy := params.Energy.Mid()
	valence := params.Valence.Mid()
	dance := params.Danceability.Mid()
	acoustic := params.Acousticness.Mid()
	tempo := r.jit.Tempo(domain.ClampTempo(params.TempoBPM), TempoSlackBPM)

	return ports.RecommendRequest{
		SeedArtists:        set.Artists(),
		SeedGenres:         set.Genres(),
		SeedTracks:         set.Tracks(),
		TargetEnergy:       r.jit.Point(&energy, FeatureSpread),
		TargetValence:      r.jit.Point(&valence, FeatureSpread),
		TargetDanceability: r.jit.Point(&dance, FeatureSpread),
		TargetAcousticness: r.jit.Point(&acoustic, FeatureSpread),
		TargetTempo:        &tempo,
		Limit:              limit,
		Market:             r.market,
	}
}

// tryRegionVariants calls Recommend with the region hint, then without it
// if the hinted call errored or returned nothing. Auth failures are not
// retried; dropping the region hint cannot fix a rejected credential.
func (r *Requester) tryRegionVariants(ctx context.Context, stage string, req ports.RecommendRequest) ([]domain.Track, error) {
	tracks, err := r.catalog.Recommend(ctx, req)
	if err == nil && len(tracks) > 0 {
		return tracks, nil
	}
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, err
	}
	if err != nil {
		r.log.Debug().Err(err).Str("stage", stage).Msg("recommendation call failed, retrying without region hint")
	}
	if req.Market == "" {
		return nil, nil
	}

	req.Market = ""
	tracks, err = r.catalog.Recommend(ctx, req)
	if errors.Is(err, domain.ErrNotConnected) {
		return nil, err
	}
	if err != nil {
		r.log.Debug().Err(err).Str("stage", stage).Msg("recommendation call failed without region hint")
		return nil, nil
	}
	return tracks, nil
}

func stripTargets(req ports.RecommendRequest) ports.RecommendRequest {
	req.TargetEnergy = nil
	req.TargetValence = nil
	req.TargetDanceability = nil
	req.TargetAcousticness = nil
	req.TargetTempo = nil
	return req
}

func genresOnly(req ports.RecommendRequest) ports.RecommendRequest {
	req = stripTargets(req)
	req.SeedArtists = nil
	req.SeedTracks = nil
	return req
}
