package domain

const (
	// MinTempoBPM and MaxTempoBPM bound the tempo target accepted by the
	// recommendation service.
	MinTempoBPM = 40
	MaxTempoBPM = 220
)

// Range is a closed interval over an audio feature in [0,1].
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the center of the range, clamped to [0,1].
func (r Range) Mid() float64 {
	return Clamp01((r.Low + r.High) / 2)
}

// Point collapses a value to a single-point range.
func Point(v float64) Range {
	v = Clamp01(v)
	return Range{Low: v, High: v}
}

// VibeParameters is the structured output of the vibe extractor: a mood
// label, coarse numeric targets, and genre/keyword hints. It is produced
// once per request; callers copy and amend it rather than mutating shared
// state.
type VibeParameters struct {
	Mood            string   `json:"mood"`
	Scene           string   `json:"scene,omitempty"`
	TempoBPM        int      `json:"tempo_bpm"`
	Energy          Range    `json:"energy_range"`
	Valence         Range    `json:"valence_range"`
	Danceability    Range    `json:"danceability_range"`
	Acousticness    Range    `json:"acousticness_range"`
	GenreCandidates []string `json:"genre_candidates"`
	Keywords        []string `json:"keywords"`

	// Caller-supplied steering, applied on top of the extracted values.
	UserGenres    []string `json:"user_genres,omitempty"`
	UserArtistIDs []string `json:"user_artist_ids,omitempty"`

	// InstrumentalOK relaxes the vocals requirement in content filtering.
	InstrumentalOK bool `json:"instrumental_ok,omitempty"`
}

// DefaultVibeParameters returns the parameters used when extraction fails.
func DefaultVibeParameters() VibeParameters {
	return VibeParameters{
		Mood:         "mix",
		TempoBPM:     100,
		Energy:       Range{Low: 0.5, High: 0.7},
		Valence:      Range{Low: 0.4, High: 0.7},
		Danceability: Range{Low: 0.4, High: 0.7},
		Acousticness: Range{Low: 0.2, High: 0.6},
	}
}

// WithEnergyPoint returns a copy with the energy range collapsed to a
// single caller-chosen target.
func (p VibeParameters) WithEnergyPoint(energy float64) VibeParameters {
	p.Energy = Point(energy)
	return p
}

// RawGenres returns the genre hints in priority order: explicit user
// overrides first, extractor candidates otherwise.
func (p VibeParameters) RawGenres() []string {
	if len(p.UserGenres) > 0 {
		return p.UserGenres
	}
	return p.GenreCandidates
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampTempo clamps a BPM value into the accepted tempo band.
func ClampTempo(bpm int) int {
	if bpm < MinTempoBPM {
		return MinTempoBPM
	}
	if bpm > MaxTempoBPM {
		return MaxTempoBPM
	}
	return bpm
}
