package domain

// MaxSeeds is the hard cap the recommendation service places on the total
// number of seed entities per request.
const MaxSeeds = 5

// MaxArtistSeeds reserves room for genre seeds even when the caller
// supplies more artists.
const MaxArtistSeeds = 3

// SeedSet partitions a seed budget across artists, genres, and tracks.
// Artists take priority over genres, genres over tracks. The total never
// exceeds MaxSeeds.
type SeedSet struct {
	artists []string
	genres  []string
	tracks  []string
}

// Len returns the total number of seed entries.
func (s *SeedSet) Len() int {
	return len(s.artists) + len(s.genres) + len(s.tracks)
}

// Room returns the number of unused seed slots.
func (s *SeedSet) Room() int {
	return MaxSeeds - s.Len()
}

// Empty reports whether no seeds have been added.
func (s *SeedSet) Empty() bool {
	return s.Len() == 0
}

// AddArtist adds an artist seed if the artist cap and the overall budget
// allow it. Returns false when the seed was not added.
func (s *SeedSet) AddArtist(id string) bool {
	if id == "" || len(s.artists) >= MaxArtistSeeds || s.Room() <= 0 {
		return false
	}
	s.artists = append(s.artists, id)
	return true
}

// AddGenre adds a genre seed if the budget allows it.
func (s *SeedSet) AddGenre(genre string) bool {
	if genre == "" || s.Room() <= 0 {
		return false
	}
	s.genres = append(s.genres, genre)
	return true
}

// AddTrack adds a track seed if the budget allows it.
func (s *SeedSet) AddTrack(id string) bool {
	if id == "" || s.Room() <= 0 {
		return false
	}
	s.tracks = append(s.tracks, id)
	return true
}

// Artists returns a copy of the artist seeds.
func (s *SeedSet) Artists() []string {
	return append([]string(nil), s.artists...)
}

// Genres returns a copy of the genre seeds.
func (s *SeedSet) Genres() []string {
	return append([]string(nil), s.genres...)
}

// Tracks returns a copy of the track seeds.
func (s *SeedSet) Tracks() []string {
	return append([]string(nil), s.tracks...)
}
