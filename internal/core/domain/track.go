package domain

// Track represents a candidate track in the domain layer. URI is the only
// field guaranteed to be present; metadata is filled in opportunistically
// from batch lookups.
type Track struct {
	URI        string
	ID         string
	Title      string
	Artist     string
	Album      string
	CoverURL   string
	PreviewURL string
	DurationMs int
	ArtistIDs  []string
}

// AudioFeatures holds the audio-character descriptors used by the content
// filter. A zero field means the service omitted the value; filter rules
// treat unknown values as passing.
type AudioFeatures struct {
	Danceability     float64
	Energy           float64
	Valence          float64
	Tempo            float64
	Instrumentalness float64
	Speechiness      float64
	Acousticness     float64
	DurationMs       int
}

// Artist is a catalog artist with its declared genre tags.
type Artist struct {
	ID         string
	Name       string
	Genres     []string
	ImageURL   string
	URL        string
	Popularity int
}

// GenreHero is the representative artist chosen for a genre.
type GenreHero struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image,omitempty"`
	URL      string `json:"url"`
}
