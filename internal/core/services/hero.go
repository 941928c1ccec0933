package services

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
	"github.com/ewilliams-labs/vibelist/backend/internal/metrics"
)

const (
	heroSearchLimit    = 10
	heroRecommendLimit = 20
)

// canonicalHeroes hand-picks the obvious artist for common genres so the
// UI feels right immediately. Artist IDs are stable.
var canonicalHeroes = map[string]string{
	"pop":        "06HL4z0CvFAxyc27GXpf02", // Taylor Swift
	"hip-hop":    "3TVXtAsR1Inumwj472S9r4", // Drake
	"r-n-b":      "1Xyo4u8uXC1ZmMpatF05PJ", // The Weeknd
	"edm":        "7CajNmpbOovFoOoasH2HaY", // Calvin Harris
	"house":      "1Cs0zKBU1kc0i8ypK3B9h8a", // David Guetta
	"dance-pop":  "66CXWjxzNUsdJxJ2JdwvnR", // Ariana Grande
	"reggaeton":  "1vyhD5VmyZ7KMfW5gqLgo5", // J Balvin
	"dancehall":  "2wY79sveU1sp5g7SokKOiI", // Burna Boy
	"ambient":    "2BTZIqw0ntH9MvilQ3ewNY", // Enya
	"electronic": "4tZwfgrHOc3mvqYlEYSvVi", // Aphex Twin
	"indie-pop":  "3e7awlrlDSwF3iM0WBjGMp", // Tame Impala
	"alt-rock":   "5BvJzeQpmsdsFp4HGUYUEx", // The Strokes
	"soul":       "3fMbdgg4jU18AjLCKBhRSm", // Michael Jackson
	"funk":       "7M1FPw29m5FbicYzS2xdpi", // Bruno Mars
	"trap":       "1URnnhqYAYcrqrcwql10ft", // 21 Savage
}

// HeroResolver picks one representative artist per genre: canonical table
// first, then a genre-tagged artist search, then an artist derived from a
// recommendation call. Resolutions are cached for the process lifetime and
// never invalidated; every lookup failure degrades to the next step.
type HeroResolver struct {
	catalog ports.Catalog
	market  string
	log     zerolog.Logger
	met     *metrics.Metrics

	mu    sync.Mutex
	cache map[string]domain.GenreHero
}

// NewHeroResolver constructs a HeroResolver.
func NewHeroResolver(catalog ports.Catalog, market string, log zerolog.Logger, met *metrics.Metrics) *HeroResolver {
	return &HeroResolver{
		catalog: catalog,
		market:  market,
		log:     log,
		met:     met,
		cache:   make(map[string]domain.GenreHero),
	}
}

// Resolve returns the hero for genre, or ok=false when no hero is
// available. Absence is an outcome, not an error.
func (h *HeroResolver) Resolve(ctx context.Context, genre string) (domain.GenreHero, bool) {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return domain.GenreHero{}, false
	}

	h.mu.Lock()
	cached, hit := h.cache[g]
	h.mu.Unlock()
	if hit {
		h.met.HeroCache("hit")
		return cached, true
	}
	h.met.HeroCache("miss")

	if id, ok := canonicalHeroes[g]; ok {
		artist, err := h.catalog.Artist(ctx, id)
		if err == nil {
			return h.store(g, artist), true
		}
		h.log.Debug().Err(err).Str("genre", g).Msg("canonical hero lookup failed")
	}

	if artist, ok := h.searchByGenre(ctx, g); ok {
		return h.store(g, artist), true
	}
	if artist, ok := h.fromRecommendations(ctx, g); ok {
		return h.store(g, artist), true
	}
	return domain.GenreHero{}, false
}

// store caches the hero under g. Concurrent first-writes for the same
// genre are idempotent: every derivation of a key is equivalent, so last
// write wins without a correctness impact.
func (h *HeroResolver) store(g string, artist domain.Artist) domain.GenreHero {
	hero := domain.GenreHero{
		ID:       artist.ID,
		Name:     artist.Name,
		ImageURL: artist.ImageURL,
		URL:      artist.URL,
	}
	h.mu.Lock()
	h.cache[g] = hero
	h.mu.Unlock()
	return hero
}

// searchByGenre runs a genre-tagged artist search and returns the first
// result that exposes an image.
func (h *HeroResolver) searchByGenre(ctx context.Context, g string) (domain.Artist, bool) {
	artists, err := h.catalog.SearchArtists(ctx, `genre:"`+g+`"`, heroSearchLimit)
	if err != nil {
		h.log.Debug().Err(err).Str("genre", g).Msg("genre-tagged artist search failed")
		return domain.Artist{}, false
	}
	for _, a := range artists {
		if a.ImageURL != "" {
			return a, true
		}
	}
	return domain.Artist{}, false
}

// fromRecommendations derives a hero from one recommendation call seeded
// only by the genre, walking the returned tracks' primary artists until
// one with an image turns up.
func (h *HeroResolver) fromRecommendations(ctx context.Context, g string) (domain.Artist, bool) {
	tracks, err := h.catalog.Recommend(ctx, ports.RecommendRequest{
		SeedGenres: []string{g},
		Limit:      heroRecommendLimit,
		Market:     h.market,
	})
	if err != nil {
		h.log.Debug().Err(err).Str("genre", g).Msg("hero recommendation fallback failed")
		return domain.Artist{}, false
	}

	for _, t := range tracks {
		if len(t.ArtistIDs) == 0 {
			continue
		}
		artist, err := h.catalog.Artist(ctx, t.ArtistIDs[0])
		if err != nil {
			continue
		}
		if artist.ImageURL != "" {
			return artist, true
		}
	}
	return domain.Artist{}, false
}
