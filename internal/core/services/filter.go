package services

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/metrics"
)

const (
	maxDurationMs        = 10 * 60 * 1000
	maxSpeechiness       = 0.66
	maxInstrumentalness  = 0.85
	minEnergy            = 0.03
	tempoWindowBPM       = 20
	tempoWindowSlackBPM  = 8
	relaxVocalsThreshold = 0.6
	relaxAllThreshold    = 0.4
)

// blockTerms flags titles and album names that are almost certainly sound
// effects, white noise, or sleep/meditation content rather than music.
var blockTerms = []string{
	"rain", "rainfall", "thunder", "storm", "thunderstorm",
	"ocean", "waves", "water sounds", "nature sounds",
	"brown noise", "white noise", "pink noise",
	"asmr", "sleep", "meditation", "focus sounds", "relaxing sounds",
}

// allowPhrases protects legitimate songs whose titles collide with a block
// term.
var allowPhrases = []string{"purple rain"}

// Relaxation identifies a content-filter stage. Higher stages keep strict
// supersets of lower stages' survivors.
type Relaxation int

const (
	// RelaxNone applies every heuristic.
	RelaxNone Relaxation = iota
	// RelaxVocals drops the instrumentalness exclusion.
	RelaxVocals
	// RelaxTitleOnly keeps only the title/album heuristic.
	RelaxTitleOnly
)

func (r Relaxation) String() string {
	switch r {
	case RelaxVocals:
		return "vocals"
	case RelaxTitleOnly:
		return "title_only"
	default:
		return "none"
	}
}

// ContentFilter removes non-musical and vibe-mismatched candidates, with a
// staged relaxation policy when filtering removes too much of the pool.
type ContentFilter struct {
	log zerolog.Logger
	met *metrics.Metrics
}

// NewContentFilter constructs a ContentFilter.
func NewContentFilter(log zerolog.Logger, met *metrics.Metrics) *ContentFilter {
	return &ContentFilter{log: log, met: met}
}

// FilterStaged filters tracks against params and widens the rules in
// stages while the survivor count stays below 0.6n and then 0.4n. Each
// stage's survivors are a superset of the previous stage's, so the result
// of the widest applied stage is returned directly.
func (f *ContentFilter) FilterStaged(tracks []domain.Track, features map[string]domain.AudioFeatures, params domain.VibeParameters, n int) ([]domain.Track, Relaxation) {
	stage := RelaxNone
	filtered := f.Apply(tracks, features, params, stage)

	if len(filtered) < int(relaxVocalsThreshold*float64(n)) {
		stage = RelaxVocals
		filtered = f.Apply(tracks, features, params, stage)
	}
	if len(filtered) < int(relaxAllThreshold*float64(n)) {
		stage = RelaxTitleOnly
		filtered = f.Apply(tracks, features, params, stage)
	}

	if stage != RelaxNone {
		f.log.Debug().Stringer("stage", stage).Int("survivors", len(filtered)).Msg("content filter relaxed")
		f.met.FilterRelaxation(stage.String())
	}
	return filtered, stage
}

// Apply returns the order-preserving subset of tracks that pass the
// heuristics at the given relaxation stage. Candidates with no feature
// entry pass the audio heuristics by default.
func (f *ContentFilter) Apply(tracks []domain.Track, features map[string]domain.AudioFeatures, params domain.VibeParameters, stage Relaxation) []domain.Track {
	vocalsRequired := !params.InstrumentalOK && stage < RelaxVocals

	kept := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if LooksLikeNoise(t.Title, t.Album) {
			continue
		}
		if stage >= RelaxTitleOnly {
			kept = append(kept, t)
			continue
		}

		feat, ok := features[t.URI]
		if !ok {
			// Unknown features never filter a candidate out.
			kept = append(kept, t)
			continue
		}
		if f.excludeByFeatures(t, feat, params, vocalsRequired) {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (f *ContentFilter) excludeByFeatures(t domain.Track, feat domain.AudioFeatures, params domain.VibeParameters, vocalsRequired bool) bool {
	duration := feat.DurationMs
	if duration == 0 {
		duration = t.DurationMs
	}
	if duration >= maxDurationMs {
		return true
	}
	if feat.Speechiness >= maxSpeechiness {
		return true
	}
	if vocalsRequired && feat.Instrumentalness >= maxInstrumentalness {
		return true
	}
	// Near-silent ambient pads. Zero energy means the field was omitted.
	if feat.Energy > 0 && feat.Energy <= minEnergy {
		return true
	}
	if params.TempoBPM > 0 && feat.Tempo > 0 {
		target := domain.ClampTempo(params.TempoBPM)
		lo := maxI(domain.MinTempoBPM, target-tempoWindowBPM)
		hi := minI(domain.MaxTempoBPM, target+tempoWindowBPM)
		if feat.Tempo < float64(lo-tempoWindowSlackBPM) || feat.Tempo > float64(hi+tempoWindowSlackBPM) {
			return true
		}
	}
	return false
}

// LooksLikeNoise tests a title/album pair against the block-term tables.
// Both exact-token and substring-phrase matches trigger, after the
// exception phrases are honored.
func LooksLikeNoise(title, album string) bool {
	hay := strings.ToLower(strings.TrimSpace(title + " " + album))
	if hay == "" {
		return false
	}

	for _, phrase := range allowPhrases {
		if strings.Contains(hay, phrase) {
			return false
		}
	}

	// Token-level match avoids false positives like "Brainstorm".
	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(hay, func(r rune) bool { return !unicode.IsLetter(r) }) {
		tokens[tok] = struct{}{}
	}
	for _, term := range blockTerms {
		if _, ok := tokens[strings.ReplaceAll(term, " ", "")]; ok {
			return true
		}
	}

	// Multi-word phrases are matched as substrings; single terms are not,
	// so "rain" never nukes "Brainstorm".
	for _, term := range blockTerms {
		if strings.Contains(term, " ") && strings.Contains(hay, term) {
			return true
		}
	}
	return false
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
