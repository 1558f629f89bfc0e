package entity

import (
	"time"

	"github.com/google/uuid"
)

// Artist is the CRM contact record. The sync pipeline reads the identity
// fields (SpotifyID / SpotifyURL) and writes the cached spotify_* columns;
// everything else belongs to the CRM side of the application.
type Artist struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	SpotifyID  *string   `json:"spotify_id,omitempty"`
	SpotifyURL *string   `json:"spotify_url,omitempty"`

	// Cached metrics, refreshed by the sync pipeline.
	SpotifyFollowers  *int     `json:"spotify_followers,omitempty"`
	SpotifyPopularity *int     `json:"spotify_popularity,omitempty"`
	SpotifyGenres     []string `json:"spotify_genres,omitempty"`
	SpotifyImage      *string  `json:"spotify_image,omitempty"`

	// Latest-release summary, derived from the newest release.
	LatestReleaseName  *string    `json:"latest_release_name,omitempty"`
	LatestReleaseDate  *time.Time `json:"latest_release_date,omitempty"`
	LatestReleaseURL   *string    `json:"latest_release_url,omitempty"`
	LatestReleaseType  *string    `json:"latest_release_type,omitempty"`
	LatestReleaseImage *string    `json:"latest_release_image,omitempty"`

	NeedsSync    bool       `json:"needs_sync"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistSyncPatch is the set of cached fields an artist sync writes back
// after a successful fetch. Applying it also stamps last_synced_at and
// clears needs_sync.
type ArtistSyncPatch struct {
	SpotifyID          string
	Followers          int
	Popularity         int
	Genres             []string
	Image              *string
	LatestReleaseName  *string
	LatestReleaseDate  *time.Time
	LatestReleaseURL   *string
	LatestReleaseType  *string
	LatestReleaseImage *string
}

// ReleaseUpsert carries one fetched release into the store. The row is
// keyed by (artist, SpotifyReleaseID); re-applying identical data is a
// no-op.
type ReleaseUpsert struct {
	SpotifyReleaseID string
	Name             string
	ReleaseDate      time.Time
	URL              string
	Type             string
	Image            *string
}

// Release is one Spotify album/single belonging to an artist. Rows are
// keyed by (artist_id, spotify_release_id) and only ever upserted, never
// deleted, by the sync pipeline.
type Release struct {
	ID               uuid.UUID `json:"id"`
	ArtistID         uuid.UUID `json:"artist_id"`
	SpotifyReleaseID string    `json:"spotify_release_id"`
	Name             string    `json:"name"`
	ReleaseDate      time.Time `json:"release_date"`
	URL              string    `json:"url"`
	Type             string    `json:"type"`
	Image            *string   `json:"image,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
