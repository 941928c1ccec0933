package services

import (
	"context"
	"strings"
	"unicode"
)

// genreSynonyms folds common spellings onto the service's seed vocabulary
// before membership testing.
var genreSynonyms = map[string]string{
	"lofi":     "chillhop",
	"lo-fi":    "chillhop",
	"hiphop":   "hip-hop",
	"hip-hop":  "hip-hop",
	"rnb":      "r-n-b",
	"r&b":      "r-n-b",
	"indiepop": "indie-pop",
	"alt":      "alternative",
	"altrock":  "alt-rock",
	"electro":  "electronic",
	"dance":    "dance-pop",
	"party":    "dance-pop",
	"workout":  "edm",
	"club":     "house",
	"reggae":   "dancehall",
}

// defaultGenreFill is the upbeat-biased fallback used when no input token
// survives normalization. Covers both chill and uptempo prompts.
var defaultGenreFill = []string{"dance-pop", "edm", "hip-hop", "indie-pop", "pop", "house", "trap"}

// upbeatPreference orders the single-genre guarantee used when the seed
// budgeter is left with neither artists nor genres.
var upbeatPreference = []string{"dance-pop", "edm", "house", "pop", "hip-hop"}

// Normalizer maps free-form genre and keyword tokens onto the closed seed
// vocabulary.
type Normalizer struct {
	vocab *Vocabulary
}

// NewNormalizer creates a Normalizer backed by the shared vocabulary.
func NewNormalizer(vocab *Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab}
}

// Normalize tokenizes raw genre strings, folds synonyms, and keeps only
// vocabulary members, first-seen order, at most five. Multi-word inputs
// are also tried as joined and hyphenated forms, so "Hip Hop" folds onto
// "hip-hop". When nothing survives it returns the default fill filtered
// to the vocabulary, so the result is non-empty whenever the vocabulary
// is. The only error it surfaces is the vocabulary's "not connected"
// condition.
func (n *Normalizer) Normalize(ctx context.Context, raw []string) ([]string, error) {
	allowed, err := n.vocab.Allowed(ctx)
	if err != nil {
		return nil, err
	}

	var cleaned []string
	seen := make(map[string]struct{})
	for _, g := range raw {
		toks := splitGenreTokens(g)
		if len(toks) > 1 {
			toks = append([]string{strings.Join(toks, ""), strings.Join(toks, "-")}, toks...)
		}
		for _, tok := range toks {
			if syn, ok := genreSynonyms[tok]; ok {
				tok = syn
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			cleaned = append(cleaned, tok)
		}
	}

	var valid []string
	for _, g := range cleaned {
		if _, ok := allowed[g]; ok {
			valid = append(valid, g)
		}
	}

	if len(valid) == 0 {
		for _, g := range defaultGenreFill {
			if _, ok := allowed[g]; ok {
				valid = append(valid, g)
			}
		}
	}

	if len(valid) > maxSeedGenres {
		valid = valid[:maxSeedGenres]
	}
	return valid, nil
}

// maxSeedGenres caps normalized output at the full seed budget.
const maxSeedGenres = 5

// splitGenreTokens lower-cases the input and splits on any run of
// characters that is neither a letter nor a hyphen.
func splitGenreTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r != '-' && !unicode.IsLetter(r)
	})
}
