package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

type fakeExtractor struct {
	params domain.VibeParameters
}

func (f *fakeExtractor) ExtractVibe(context.Context, string) domain.VibeParameters {
	return f.params
}

type fakePipeline struct {
	gotParams domain.VibeParameters
	gotCount  int
	tracks    []string
	err       error
}

func (f *fakePipeline) ProduceTrackList(_ context.Context, params domain.VibeParameters, n int) ([]string, error) {
	f.gotParams = params
	f.gotCount = n
	return f.tracks, f.err
}

type fakeHeroes struct {
	heroes map[string]domain.GenreHero
}

func (f *fakeHeroes) Resolve(_ context.Context, genre string) (domain.GenreHero, bool) {
	h, ok := f.heroes[genre]
	return h, ok
}

type fakeGenres struct {
	genres []string
	err    error
}

func (f *fakeGenres) List(context.Context) ([]string, error) { return f.genres, f.err }

type fakeArtistSearch struct {
	artists []domain.Artist
	err     error
	gotQ    string
	gotLim  int
}

func (f *fakeArtistSearch) SearchArtists(_ context.Context, query string, limit int) ([]domain.Artist, error) {
	f.gotQ = query
	f.gotLim = limit
	return f.artists, f.err
}

type handlerFakes struct {
	extractor *fakeExtractor
	pipeline  *fakePipeline
	heroes    *fakeHeroes
	genres    *fakeGenres
	artists   *fakeArtistSearch
}

func newTestRouter() (http.Handler, *handlerFakes) {
	f := &handlerFakes{
		extractor: &fakeExtractor{params: domain.DefaultVibeParameters()},
		pipeline:  &fakePipeline{tracks: []string{"spotify:track:1"}},
		heroes:    &fakeHeroes{heroes: map[string]domain.GenreHero{}},
		genres:    &fakeGenres{genres: []string{"pop", "edm"}},
		artists:   &fakeArtistSearch{},
	}
	h := NewHandler(f.extractor, f.pipeline, f.heroes, f.genres, f.artists, zerolog.Nop())
	return h.Router([]string{"*"}, nil), f
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestTrackListHappyPath(t *testing.T) {
	router, f := newTestRouter()
	f.pipeline.tracks = []string{"spotify:track:1", "spotify:track:2"}

	body := `{"prompt":"rainy sunday morning","count":2,"genres":[" jazz ",""],"artist_ids":["a1"],"energy":0.8,"instrumental_ok":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tracklist", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp trackListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Tracks) != 2 {
		t.Errorf("response = %+v", resp)
	}

	got := f.pipeline.gotParams
	if got.Energy != (domain.Range{Low: 0.8, High: 0.8}) {
		t.Errorf("energy override not applied: %+v", got.Energy)
	}
	if len(got.UserGenres) != 1 || got.UserGenres[0] != "jazz" {
		t.Errorf("user genres = %v, want trimmed [jazz]", got.UserGenres)
	}
	if len(got.UserArtistIDs) != 1 || got.UserArtistIDs[0] != "a1" {
		t.Errorf("user artists = %v", got.UserArtistIDs)
	}
	if !got.InstrumentalOK {
		t.Error("instrumental flag not applied")
	}
	if f.pipeline.gotCount != 2 {
		t.Errorf("count = %d", f.pipeline.gotCount)
	}
}

func TestTrackListValidation(t *testing.T) {
	router, _ := newTestRouter()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"blank prompt", `{"prompt":"   "}`},
		{"malformed json", `{"prompt":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tracklist", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestTrackListErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not connected", fmt.Errorf("pipeline: %w", domain.ErrNotConnected), http.StatusUnauthorized},
		{"no matches", fmt.Errorf("pipeline: %w", domain.ErrNoMatches), http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, f := newTestRouter()
			f.pipeline.err = tt.err
			f.pipeline.tracks = nil

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tracklist", strings.NewReader(`{"prompt":"x"}`)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGenres(t *testing.T) {
	router, _ := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["genres"]) != 2 {
		t.Errorf("genres = %v", resp["genres"])
	}
}

func TestGenresNotConnected(t *testing.T) {
	router, f := newTestRouter()
	f.genres.err = fmt.Errorf("vocabulary: %w", domain.ErrNotConnected)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGenreHero(t *testing.T) {
	router, f := newTestRouter()
	f.heroes.heroes["pop"] = domain.GenreHero{ID: "a1", Name: "Hero", URL: "https://open/a1"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genre-hero?genre=pop", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var hero domain.GenreHero
	if err := json.NewDecoder(rec.Body).Decode(&hero); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hero.ID != "a1" {
		t.Errorf("hero = %+v", hero)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genre-hero?genre=unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown genre status = %d, want 404", rec.Code)
	}
}

func TestGenreHeroesBatch(t *testing.T) {
	router, f := newTestRouter()
	f.heroes.heroes["pop"] = domain.GenreHero{ID: "a1", Name: "Pop Hero"}
	f.heroes.heroes["edm"] = domain.GenreHero{ID: "a2", Name: "EDM Hero"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genre-heroes?genres=pop,%20edm%20,unknown", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]domain.GenreHero
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("resolved %d heroes, want 2", len(resp))
	}
	if resp["edm"].ID != "a2" {
		t.Errorf("edm hero = %+v, whitespace not trimmed", resp["edm"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genre-heroes?genres=unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("all-unknown status = %d, want 404", rec.Code)
	}
}

func TestArtistSearch(t *testing.T) {
	router, f := newTestRouter()
	f.artists.artists = []domain.Artist{{ID: "a1", Name: "Found", Popularity: 70}}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/artists/search?q=found&limit=100", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.artists.gotQ != "found" {
		t.Errorf("query = %q", f.artists.gotQ)
	}
	if f.artists.gotLim != maxArtistSearchLimit {
		t.Errorf("limit = %d, want clamped to %d", f.artists.gotLim, maxArtistSearchLimit)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/artists/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing query status = %d, want 400", rec.Code)
	}
}

func TestArtistSearchUpstreamFailure(t *testing.T) {
	router, f := newTestRouter()
	f.artists.err = errors.New("upstream down")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/artists/search?q=x", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
