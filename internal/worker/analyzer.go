// Package worker provides bounded-concurrency local analysis of track
// previews, used to backfill the energy feature for candidates whose batch
// feature lookup came back empty.
package worker

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

const (
	defaultWorkers        = 4
	defaultPreviewTimeout = 15 * time.Second
)

// Analyzer downloads preview audio and derives a rough energy estimate
// from the RMS level. Strictly best-effort: a preview that cannot be
// fetched or decoded leaves its track without a feature entry.
type Analyzer struct {
	httpClient *http.Client
	workers    int
	log        zerolog.Logger

	// analyzeFunc is swappable in tests.
	analyzeFunc func(ctx context.Context, url string) (float64, error)
}

var _ ports.FeatureEnricher = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer with the given concurrency bound.
func NewAnalyzer(workers int, log zerolog.Logger) *Analyzer {
	if workers < 1 {
		workers = defaultWorkers
	}
	a := &Analyzer{
		httpClient: &http.Client{Timeout: defaultPreviewTimeout},
		workers:    workers,
		log:        log,
	}
	a.analyzeFunc = a.analyzePreview
	return a
}

// EnrichMissing fills features entries for tracks that have a preview URL
// but no feature data, fanning out across at most the configured number of
// workers. Results are merged under a lock in per-track order, so output
// is reproducible regardless of completion order.
func (a *Analyzer) EnrichMissing(ctx context.Context, tracks []domain.Track, features map[string]domain.AudioFeatures) {
	if features == nil {
		return
	}

	var todo []domain.Track
	for _, t := range tracks {
		if t.PreviewURL == "" {
			continue
		}
		if _, ok := features[t.URI]; ok {
			continue
		}
		todo = append(todo, t)
	}
	if len(todo) == 0 {
		return
	}

	sem := make(chan struct{}, a.workers)
	results := make([]float64, len(todo))
	okFlags := make([]bool, len(todo))

	var wg sync.WaitGroup
	for i, t := range todo {
		wg.Add(1)
		go func(i int, t domain.Track) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			energy, err := a.analyzeFunc(ctx, t.PreviewURL)
			if err != nil {
				a.log.Debug().Err(err).Str("uri", t.URI).Msg("preview analysis failed")
				return
			}
			results[i] = energy
			okFlags[i] = true
		}(i, t)
	}
	wg.Wait()

	for i, t := range todo {
		if okFlags[i] {
			features[t.URI] = domain.AudioFeatures{Energy: results[i], DurationMs: t.DurationMs}
		}
	}
}

// analyzePreview computes a normalized RMS energy estimate from an MP3
// preview stream.
func (a *Analyzer) analyzePreview(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("preview request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("preview decode failed: %w", err)
	}

	buf := make([]byte, 4096)
	var sumSquares float64
	var count float64

	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				sample := int16(buf[i]) | int16(buf[i+1])<<8
				val := float64(sample)
				sumSquares += val * val
				count++
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("preview read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("preview contains no samples")
	}

	rms := math.Sqrt(sumSquares / count)
	return domain.Clamp01(rms / 32768.0), nil
}
