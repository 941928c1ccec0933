package services

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// FeatureSpread is the jitter half-width for audio-feature targets.
	FeatureSpread = 0.12
	// GeneralSpread is the jitter half-width for general-purpose use.
	GeneralSpread = 0.15
	// TempoSlackBPM is the half-width of the tempo target jitter.
	TempoSlackBPM = 8
)

// Jitterer is the pipeline's single source of controlled non-determinism.
// Repeated calls with identical parameters must not always produce the
// same playlist, so targets are perturbed and the final pool is shuffled.
// The rand source is injectable so tests can replay deterministically.
type Jitterer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitterer creates a Jitterer. A nil rng falls back to a time-seeded
// source.
func NewJitterer(rng *rand.Rand) *Jitterer {
	if rng == nil {
		// #nosec G404 -- variety jitter, not security-sensitive
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Jitterer{rng: rng}
}

// Point samples uniformly in [max(0,center-spread), min(1,center+spread)],
// rounded to two decimals. A nil center maps to a nil output so absent
// targets stay absent.
func (j *Jitterer) Point(center *float64, spread float64) *float64 {
	if center == nil {
		return nil
	}
	lo := math.Max(0, *center-spread)
	hi := math.Min(1, *center+spread)

	j.mu.Lock()
	v := lo + j.rng.Float64()*(hi-lo)
	j.mu.Unlock()

	v = math.Round(v*100) / 100
	return &v
}

// Tempo perturbs a BPM target by up to ±slack.
func (j *Jitterer) Tempo(bpm int, slack int) int {
	if slack <= 0 {
		return bpm
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return bpm + j.rng.Intn(2*slack+1) - slack
}

// Chance reports true with probability p.
func (j *Jitterer) Chance(p float64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Float64() < p
}

// Shuffle uniformly permutes n elements through swap.
func (j *Jitterer) Shuffle(n int, swap func(i, k int)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rng.Shuffle(n, swap)
}
