package spotify

import "testing"

func TestExtractArtistID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb?si=xyz", "4Z8W4fKeB5YxbusRsdQVPb"},
		{"http://open.spotify.com/artist/abc123", "abc123"},
		{"https://open.spotify.com/track/4Z8W4fKeB5YxbusRsdQVPb", ""},
		{"https://example.com/artist/abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractArtistID(tc.url); got != tc.want {
			t.Fatalf("ExtractArtistID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
