package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

func newTestServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClientWithBaseURL(srv.Client(), srv.URL)
	c.maxRetries = 1
	return c
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{}, zerolog.Nop())
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected for missing credentials", err)
	}
}

func TestGenreSeeds(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations/available-genre-seeds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"genres":["pop","edm","chillhop"]}`))
	})

	got, err := c.GenreSeeds(context.Background())
	if err != nil {
		t.Fatalf("GenreSeeds: %v", err)
	}
	if len(got) != 3 || got[0] != "pop" {
		t.Errorf("genres = %v", got)
	}
}

func TestRecommendQueryEncoding(t *testing.T) {
	var query url.Values
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"tracks":[{"id":"abc","uri":"spotify:track:abc","name":"Song","artists":[{"id":"a1","name":"Artist"}],"album":{"name":"LP","images":[{"url":"https://img/1"}]}}]}`))
	})

	tracks, err := c.Recommend(context.Background(), ports.RecommendRequest{
		SeedArtists:  []string{"a1", "a2"},
		SeedGenres:   []string{"pop"},
		TargetEnergy: floatPtr(0.65),
		TargetTempo:  intPtr(128),
		Limit:        20,
		Market:       "US",
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := query.Get("seed_artists"); got != "a1,a2" {
		t.Errorf("seed_artists = %q", got)
	}
	if got := query.Get("seed_genres"); got != "pop" {
		t.Errorf("seed_genres = %q", got)
	}
	if got := query.Get("target_energy"); got != "0.65" {
		t.Errorf("target_energy = %q", got)
	}
	if got := query.Get("target_tempo"); got != "128" {
		t.Errorf("target_tempo = %q", got)
	}
	if got := query.Get("market"); got != "US" {
		t.Errorf("market = %q", got)
	}
	if _, present := query["target_valence"]; present {
		t.Error("nil target_valence was encoded")
	}

	if len(tracks) != 1 {
		t.Fatalf("got %d tracks", len(tracks))
	}
	tr := tracks[0]
	if tr.URI != "spotify:track:abc" || tr.Title != "Song" || tr.Artist != "Artist" || tr.CoverURL != "https://img/1" {
		t.Errorf("track = %+v", tr)
	}
}

func TestRecommendOmitsEmptyMarket(t *testing.T) {
	var query url.Values
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"tracks":[]}`))
	})

	if _, err := c.Recommend(context.Background(), ports.RecommendRequest{SeedGenres: []string{"pop"}}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if _, present := query["market"]; present {
		t.Error("empty market was encoded")
	}
}

func TestUnauthorizedMapsToNotConnected(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GenreSeeds(context.Background())
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected on 401", err)
	}
}

func TestSearchTracksLimitClamped(t *testing.T) {
	var query url.Values
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"tracks":{"items":[]}}`))
	})

	if _, err := c.SearchTracks(context.Background(), "late night", 500); err != nil {
		t.Fatalf("SearchTracks: %v", err)
	}
	if got := query.Get("limit"); got != "50" {
		t.Errorf("limit = %q, want clamped to 50", got)
	}
	if got := query.Get("q"); got != "late night" {
		t.Errorf("q = %q", got)
	}
	if got := query.Get("type"); got != "track" {
		t.Errorf("type = %q", got)
	}
}

func TestArtistAndTopTracks(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artists/a1":
			w.Write([]byte(`{"id":"a1","name":"Hero","genres":["pop","dance pop"],"images":[{"url":"https://img/a1"}],"external_urls":{"spotify":"https://open/a1"},"popularity":88}`))
		case "/artists/a1/top-tracks":
			w.Write([]byte(`{"tracks":[{"id":"t1","uri":"spotify:track:t1","name":"Hit"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	artist, err := c.Artist(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Artist: %v", err)
	}
	if artist.Name != "Hero" || artist.ImageURL != "https://img/a1" || len(artist.Genres) != 2 {
		t.Errorf("artist = %+v", artist)
	}

	tracks, err := c.ArtistTopTracks(context.Background(), "a1")
	if err != nil {
		t.Fatalf("ArtistTopTracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].URI != "spotify:track:t1" {
		t.Errorf("tracks = %+v", tracks)
	}
}

func TestTracksMetadataChunksAndKeys(t *testing.T) {
	var idParams []string
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("ids")
		idParams = append(idParams, ids)

		var out []string
		for _, id := range strings.Split(ids, ",") {
			out = append(out, `{"id":"`+id+`","uri":"spotify:track:`+id+`","name":"Song `+id+`"}`)
		}
		w.Write([]byte(`{"tracks":[` + strings.Join(out, ",") + `]}`))
	})

	uris := make([]string, 60)
	for i := range uris {
		uris[i] = "spotify:track:x" + strconv.Itoa(i)
	}

	got, err := c.TracksMetadata(context.Background(), uris)
	if err != nil {
		t.Fatalf("TracksMetadata: %v", err)
	}
	if len(idParams) != 2 {
		t.Errorf("made %d requests, want 2 chunks for 60 URIs", len(idParams))
	}
	if len(got) != 60 {
		t.Errorf("got %d entries, want 60", len(got))
	}
	if tr, ok := got["spotify:track:x0"]; !ok || tr.Title != "Song x0" {
		t.Errorf("entry for first URI = %+v, present=%v", tr, ok)
	}
}

func TestTracksMetadataKeyedByCallerURI(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Middle entry is null: the ID was invalid.
		w.Write([]byte(`{"tracks":[{"id":"t1","uri":"spotify:track:t1","name":"First"},null,{"id":"t3","uri":"spotify:track:t3","name":"Third"}]}`))
	})

	// Bare IDs rather than canonical URIs: the result must still come back
	// under the strings the caller passed.
	got, err := c.TracksMetadata(context.Background(), []string{"t1", "t2", "t3"})
	if err != nil {
		t.Fatalf("TracksMetadata: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want the two non-null ones", len(got))
	}
	if tr := got["t1"]; tr.Title != "First" {
		t.Errorf("t1 = %+v, not keyed by the caller's string", tr)
	}
	if _, ok := got["t2"]; ok {
		t.Error("null-padded entry produced metadata")
	}
	if tr := got["t3"]; tr.Title != "Third" {
		t.Errorf("t3 = %+v, positional keying broken", tr)
	}
}

func TestAudioFeaturesNullPadded(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Middle entry is null: the track could not be analyzed.
		w.Write([]byte(`{"audio_features":[{"id":"t1","energy":0.8,"tempo":120},null,{"id":"t3","energy":0.4,"tempo":90}]}`))
	})

	got, err := c.AudioFeatures(context.Background(), []string{"spotify:track:t1", "spotify:track:t2", "spotify:track:t3"})
	if err != nil {
		t.Fatalf("AudioFeatures: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want the two non-null ones", len(got))
	}
	if feat := got["spotify:track:t1"]; feat.Energy != 0.8 || feat.Tempo != 120 {
		t.Errorf("t1 features = %+v", feat)
	}
	if _, ok := got["spotify:track:t2"]; ok {
		t.Error("null-padded entry produced features")
	}
	if feat := got["spotify:track:t3"]; feat.Tempo != 90 {
		t.Errorf("t3 features = %+v, positional keying broken", feat)
	}
}

func TestTrackID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"spotify:track:abc123", "abc123"},
		{"abc123", "abc123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := trackID(tt.in); got != tt.want {
			t.Errorf("trackID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDoRequestRetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"genres":["pop"]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.Client(), srv.URL)
	c.maxRetries = 3
	c.baseBackoff = time.Millisecond

	got, err := c.GenreSeeds(context.Background())
	if err != nil {
		t.Fatalf("GenreSeeds: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(got) != 1 {
		t.Errorf("genres = %v", got)
	}
}

func TestDoRequestGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.Client(), srv.URL)
	c.maxRetries = 3
	c.baseBackoff = time.Millisecond

	_, err := c.GenreSeeds(context.Background())
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoRequestHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.Client(), srv.URL)
	c.maxRetries = 3

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GenreSeeds(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, Retry-After was not interrupted", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}

	if got := parseRetryAfter(nil); got != 0 {
		t.Errorf("nil response = %v", got)
	}
	if got := parseRetryAfter(resp); got != 0 {
		t.Errorf("missing header = %v", got)
	}

	resp.Header.Set("Retry-After", "7")
	if got := parseRetryAfter(resp); got != 7*time.Second {
		t.Errorf("seconds form = %v, want 7s", got)
	}

	resp.Header.Set("Retry-After", "garbage")
	if got := parseRetryAfter(resp); got != 0 {
		t.Errorf("garbage header = %v, want 0", got)
	}
}
