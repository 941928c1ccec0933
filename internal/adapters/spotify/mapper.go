package spotify

import (
	"strings"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a domain track,
// flattening the artist list and pulling the first album image.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	var artistNames []string
	var artistIDs []string
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
		if a.ID != "" {
			artistIDs = append(artistIDs, a.ID)
		}
	}

	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	uri := st.URI
	if uri == "" && st.ID != "" {
		uri = "spotify:track:" + st.ID
	}

	return domain.Track{
		URI:        uri,
		ID:         st.ID,
		Title:      st.Name,
		Artist:     strings.Join(artistNames, ", "),
		Album:      st.Album.Name,
		CoverURL:   coverURL,
		PreviewURL: st.PreviewURL,
		DurationMs: st.DurationMs,
		ArtistIDs:  artistIDs,
	}
}

// mapArtistToDomain converts a raw Spotify artist.
func mapArtistToDomain(sa spotifyArtist) domain.Artist {
	imageURL := ""
	if len(sa.Images) > 0 {
		imageURL = sa.Images[0].URL
	}
	return domain.Artist{
		ID:         sa.ID,
		Name:       sa.Name,
		Genres:     sa.Genres,
		ImageURL:   imageURL,
		URL:        sa.ExternalURLs.Spotify,
		Popularity: sa.Popularity,
	}
}

// mapFeaturesToDomain converts a raw audio-features object.
func mapFeaturesToDomain(sf spotifyAudioFeatures) domain.AudioFeatures {
	return domain.AudioFeatures{
		Danceability:     sf.Danceability,
		Energy:           sf.Energy,
		Valence:          sf.Valence,
		Tempo:            sf.Tempo,
		Instrumentalness: sf.Instrumentalness,
		Speechiness:      sf.Speechiness,
		Acousticness:     sf.Acousticness,
		DurationMs:       sf.DurationMs,
	}
}

// trackID extracts the bare ID from a spotify:track: URI. Bare IDs pass
// through unchanged.
func trackID(uri string) string {
	if idx := strings.LastIndex(uri, ":"); idx != -1 {
		return uri[idx+1:]
	}
	return uri
}
