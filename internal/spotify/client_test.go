package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const artistJSON = `{
	"followers": {"total": 1234},
	"popularity": 61,
	"genres": ["indie rock", "shoegaze"],
	"images": [{"url": "https://img.example/artist.jpg"}]
}`

// newTestClient wires a Client against two httptest servers: one playing
// the accounts (token) endpoint, one playing the API.
func newTestClient(t *testing.T, tokenHandler, apiHandler http.HandlerFunc) *Client {
	t.Helper()

	tokenSrv := httptest.NewServer(tokenHandler)
	t.Cleanup(tokenSrv.Close)
	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)

	return NewClient(ClientConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		APIURL:       apiSrv.URL,
		AccountsURL:  tokenSrv.URL,
	}, NewPacer(time.Millisecond))
}

func tokenHandlerCounting(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	}
}

func TestClient_TokenCachedAcrossCalls(t *testing.T) {
	var tokenCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected Bearer tok-1, got %q", got)
		}
		w.Write([]byte(artistJSON))
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		meta, err := c.GetArtist(ctx, "abc")
		if err != nil {
			t.Fatalf("call %d: expected nil error, got %v", i, err)
		}
		if meta.Followers != 1234 || meta.Popularity != 61 {
			t.Fatalf("unexpected metadata: %+v", meta)
		}
		if meta.Image != "https://img.example/artist.jpg" {
			t.Fatalf("unexpected image: %q", meta.Image)
		}
	}

	if tokenCalls != 1 {
		t.Fatalf("expected 1 token fetch, got %d", tokenCalls)
	}
}

func TestClient_RefreshesTokenOn401(t *testing.T) {
	var tokenCalls int32
	var apiCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&apiCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-2" {
			t.Errorf("expected refreshed token tok-2, got %q", got)
		}
		w.Write([]byte(artistJSON))
	})

	meta, err := c.GetArtist(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if meta.Followers != 1234 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if tokenCalls != 2 {
		t.Fatalf("expected token refresh after 401, got %d token fetches", tokenCalls)
	}
}

func TestClient_RetryAfterHonored(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on a real Retry-After delay")
	}

	var tokenCalls int32
	var apiCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&apiCalls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(artistJSON))
	})

	start := time.Now()
	meta, err := c.GetArtist(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if meta.Followers != 1234 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("expected >= 1s wait before retrying, got %v", elapsed)
	}
	if apiCalls != 2 {
		t.Fatalf("expected 2 api calls, got %d", apiCalls)
	}
}

func TestClient_RateLimitRetriesExhausted(t *testing.T) {
	var tokenCalls int32
	var apiCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetArtist(context.Background(), "abc")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if want := int32(maxRateLimitRetries + 1); apiCalls != want {
		t.Fatalf("expected %d attempts, got %d", want, apiCalls)
	}
}

func TestClient_UpstreamErrorSurfaced(t *testing.T) {
	var tokenCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetArtist(context.Background(), "abc")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", statusErr.Status)
	}
}

func TestClient_ReleasesNormalizedAndSorted(t *testing.T) {
	const albumsJSON = `{"items": [
		{"id": "r-old", "name": "Debut", "release_date": "2019", "release_date_precision": "year",
		 "external_urls": {"spotify": "https://open.spotify.com/album/r-old"}, "album_type": "album"},
		{"id": "r-new", "name": "Latest Single", "release_date": "2021-05-14", "release_date_precision": "day",
		 "external_urls": {"spotify": "https://open.spotify.com/album/r-new"}, "album_type": "single",
		 "images": [{"url": "https://img.example/r-new.jpg"}]},
		{"id": "r-mid", "name": "EP", "release_date": "2020-11", "release_date_precision": "month",
		 "external_urls": {"spotify": "https://open.spotify.com/album/r-mid"}, "album_type": "album"},
		{"id": "r-bad", "name": "Broken", "release_date": "not-a-date", "release_date_precision": "day",
		 "external_urls": {"spotify": ""}, "album_type": "album"}
	]}`

	var tokenCalls int32
	c := newTestClient(t, tokenHandlerCounting(&tokenCalls), func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(albumsJSON))
	})

	releases, err := c.GetArtistReleases(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(releases) != 3 {
		t.Fatalf("expected 3 parseable releases, got %d", len(releases))
	}

	if releases[0].ID != "r-new" || releases[1].ID != "r-mid" || releases[2].ID != "r-old" {
		t.Fatalf("expected newest-first order r-new, r-mid, r-old, got %s, %s, %s",
			releases[0].ID, releases[1].ID, releases[2].ID)
	}
	if releases[0].Image != "https://img.example/r-new.jpg" {
		t.Fatalf("unexpected image: %q", releases[0].Image)
	}

	wantMid := time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC)
	if !releases[1].ReleaseDate.Equal(wantMid) {
		t.Fatalf("expected month precision to normalize to %v, got %v", wantMid, releases[1].ReleaseDate)
	}
	wantOld := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	if !releases[2].ReleaseDate.Equal(wantOld) {
		t.Fatalf("expected year precision to normalize to %v, got %v", wantOld, releases[2].ReleaseDate)
	}
}

func TestNormalizeReleaseDate(t *testing.T) {
	got, err := normalizeReleaseDate("2021", "year")
	if err != nil || !got.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year: got %v, %v", got, err)
	}
	got, err = normalizeReleaseDate("2021-05", "month")
	if err != nil || !got.Equal(time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month: got %v, %v", got, err)
	}
	got, err = normalizeReleaseDate("2021-05-14", "day")
	if err != nil || !got.Equal(time.Date(2021, 5, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day: got %v, %v", got, err)
	}
	if _, err = normalizeReleaseDate("garbage", "day"); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}
