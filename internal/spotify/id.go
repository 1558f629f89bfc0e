package spotify

import "regexp"

var artistURLPattern = regexp.MustCompile(`open\.spotify\.com/artist/([a-zA-Z0-9]+)`)

// ExtractArtistID pulls the artist id out of an open.spotify.com profile
// URL. Returns "" when the URL does not contain one.
func ExtractArtistID(spotifyURL string) string {
	m := artistURLPattern.FindStringSubmatch(spotifyURL)
	if m == nil {
		return ""
	}
	return m[1]
}
