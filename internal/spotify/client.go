package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	tokenSafetyMargin   = 30 * time.Second
	defaultTokenTTL     = 3600 // seconds, per the client-credentials flow
	maxRateLimitRetries = 3
	defaultRetryAfter   = 1 * time.Second
)

// ErrRateLimited means the API kept returning 429 after all retries.
// The caller counts it as a per-artist failure, not a job failure.
var ErrRateLimited = errors.New("spotify: rate limit exceeded")

// StatusError is any unexpected non-2xx response other than the handled
// 401/429 cases.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: %s returned status %d", e.Path, e.Status)
}

// ArtistMetadata is the cached-metrics slice of a Spotify artist profile.
type ArtistMetadata struct {
	Followers  int
	Popularity int
	Genres     []string
	Image      string
}

// Release is one album or single with its date normalized to a concrete
// day, so releases of mixed precision sort together.
type Release struct {
	ID          string
	Name        string
	ReleaseDate time.Time
	URL         string
	Type        string
	Image       string
}

type ClientConfig struct {
	ClientID     string
	ClientSecret string
	// APIURL and AccountsURL default to the public Spotify endpoints.
	APIURL      string
	AccountsURL string
}

// Client talks to the Spotify Web API using the client-credentials flow.
// The access token is cached process-wide; every API call goes through the
// shared Pacer so concurrent artist syncs cannot exceed the upstream rate.
type Client struct {
	httpClient   *http.Client
	pacer        *Pacer
	clientID     string
	clientSecret string
	apiURL       string
	accountsURL  string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg ClientConfig, pacer *Pacer) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.spotify.com"
	}
	accountsURL := cfg.AccountsURL
	if accountsURL == "" {
		accountsURL = "https://accounts.spotify.com"
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pacer:        pacer,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiURL:       apiURL,
		accountsURL:  accountsURL,
	}
}

type artistResponse struct {
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
	Images     []image  `json:"images"`
}

type image struct {
	URL string `json:"url"`
}

type albumsResponse struct {
	Items []album `json:"items"`
}

type album struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	ReleaseDate          string `json:"release_date"`
	ReleaseDatePrecision string `json:"release_date_precision"`
	ExternalURLs         struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	AlbumType string  `json:"album_type"`
	Images    []image `json:"images"`
}

// GetArtist fetches follower count, popularity, genres and the primary
// image for one artist.
func (c *Client) GetArtist(ctx context.Context, spotifyID string) (*ArtistMetadata, error) {
	var raw artistResponse
	if err := c.getJSON(ctx, "/v1/artists/"+spotifyID, &raw); err != nil {
		return nil, err
	}

	meta := &ArtistMetadata{
		Followers:  raw.Followers.Total,
		Popularity: raw.Popularity,
		Genres:     raw.Genres,
	}
	if len(raw.Images) > 0 {
		meta.Image = raw.Images[0].URL
	}
	return meta, nil
}

// GetArtistReleases fetches the artist's albums and singles, normalizes
// every release date to a concrete day and returns the list sorted newest
// first. Releases whose date cannot be parsed are dropped.
func (c *Client) GetArtistReleases(ctx context.Context, spotifyID string) ([]Release, error) {
	path := "/v1/artists/" + spotifyID + "/albums?include_groups=album,single&market=US&limit=50"

	var raw albumsResponse
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(raw.Items))
	for _, item := range raw.Items {
		date, err := normalizeReleaseDate(item.ReleaseDate, item.ReleaseDatePrecision)
		if err != nil {
			continue
		}
		rel := Release{
			ID:          item.ID,
			Name:        item.Name,
			ReleaseDate: date,
			URL:         item.ExternalURLs.Spotify,
			Type:        item.AlbumType,
		}
		if len(item.Images) > 0 {
			rel.Image = item.Images[0].URL
		}
		releases = append(releases, rel)
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})
	return releases, nil
}

// normalizeReleaseDate maps Spotify's variable-precision dates onto a
// concrete day: year -> Jan 1, month -> the 1st, day passes through.
func normalizeReleaseDate(value, precision string) (time.Time, error) {
	switch precision {
	case "year":
		return time.Parse("2006", value)
	case "month":
		return time.Parse("2006-01", value)
	default:
		return time.Parse("2006-01-02", value)
	}
}

// getJSON performs an authenticated GET. A 401 invalidates the cached
// token and retries once with a fresh one; 429 handling lives in doAPI.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.doAPI(ctx, path, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.invalidateToken()
		token, err = c.accessToken(ctx)
		if err != nil {
			return err
		}
		resp, err = c.doAPI(ctx, path, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, Path: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify: decode %s: %w", path, err)
	}
	return nil
}

// doAPI executes one paced request, retrying on 429 up to
// maxRateLimitRetries with the Retry-After delay (seconds).
func (c *Client) doAPI(ctx context.Context, path, token string) (*http.Response, error) {
	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("spotify: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		var resp *http.Response
		err = c.pacer.Do(ctx, func() error {
			r, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return fmt.Errorf("spotify: request %s: %w", path, doErr)
			}
			resp = r
			return nil
		})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		delay := retryAfterDelay(resp.Header.Get("Retry-After"))
		resp.Body.Close()

		if attempt == maxRateLimitRetries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrRateLimited
}

func retryAfterDelay(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// accessToken returns the cached token while it has at least the safety
// margin left, refreshing it otherwise.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSafetyMargin)) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("spotify: create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Status: resp.StatusCode, Path: "/api/token"}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("spotify: decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("spotify: token response missing access_token")
	}

	ttl := body.ExpiresIn
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)
	c.mu.Unlock()

	return body.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}
