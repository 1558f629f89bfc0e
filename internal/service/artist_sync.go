package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artist-sync-service/internal/entity"
	"artist-sync-service/internal/repository/postgresql"
	"artist-sync-service/internal/spotify"
)

var (
	ErrArtistNotFound   = errors.New("artist not found")
	ErrMissingSpotifyID = errors.New("artist does not have a Spotify ID")
)

// Store ports, implemented by the postgresql repositories.
type ArtistStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Artist, error)
	ApplySyncPatch(ctx context.Context, id uuid.UUID, patch entity.ArtistSyncPatch) (*entity.Artist, error)
}

type ReleaseStore interface {
	Upsert(ctx context.Context, artistID uuid.UUID, in entity.ReleaseUpsert) error
}

// MetadataClient is the outbound Spotify surface (implementation:
// spotify.Client, already paced and retry-aware).
type MetadataClient interface {
	GetArtist(ctx context.Context, spotifyID string) (*spotify.ArtistMetadata, error)
	GetArtistReleases(ctx context.Context, spotifyID string) ([]spotify.Release, error)
}

// ArtistSyncService merges one artist's external metadata and releases
// into the store. It touches nothing beyond that artist's rows; the job
// ledger is the worker's business.
type ArtistSyncService struct {
	artists  ArtistStore
	releases ReleaseStore
	client   MetadataClient
	log      zerolog.Logger
}

func NewArtistSyncService(artists ArtistStore, releases ReleaseStore, client MetadataClient, log zerolog.Logger) *ArtistSyncService {
	return &ArtistSyncService{
		artists:  artists,
		releases: releases,
		client:   client,
		log:      log,
	}
}

// SyncArtist fetches the artist's profile and release catalog, upserts
// every release and writes the cached fields back. Idempotent: a second
// run with unchanged external data changes nothing.
func (s *ArtistSyncService) SyncArtist(ctx context.Context, artistID uuid.UUID) (*entity.Artist, error) {
	start := time.Now()

	artist, err := s.artists.GetByID(ctx, artistID)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, err
	}

	spotifyID := ""
	if artist.SpotifyID != nil {
		spotifyID = *artist.SpotifyID
	}
	if spotifyID == "" && artist.SpotifyURL != nil {
		spotifyID = spotify.ExtractArtistID(*artist.SpotifyURL)
	}
	if spotifyID == "" {
		return nil, ErrMissingSpotifyID
	}

	meta, err := s.client.GetArtist(ctx, spotifyID)
	if err != nil {
		return nil, fmt.Errorf("fetch artist %s: %w", spotifyID, err)
	}
	releases, err := s.client.GetArtistReleases(ctx, spotifyID)
	if err != nil {
		return nil, fmt.Errorf("fetch releases for %s: %w", spotifyID, err)
	}

	for _, rel := range releases {
		up := entity.ReleaseUpsert{
			SpotifyReleaseID: rel.ID,
			Name:             rel.Name,
			ReleaseDate:      rel.ReleaseDate,
			URL:              rel.URL,
			Type:             rel.Type,
			Image:            optional(rel.Image),
		}
		if err := s.releases.Upsert(ctx, artist.ID, up); err != nil {
			return nil, fmt.Errorf("upsert release %s: %w", rel.ID, err)
		}
	}

	patch := entity.ArtistSyncPatch{
		SpotifyID:  spotifyID,
		Followers:  meta.Followers,
		Popularity: meta.Popularity,
		Genres:     meta.Genres,
		Image:      optional(meta.Image),
	}
	// Releases arrive sorted newest first.
	if len(releases) > 0 {
		latest := releases[0]
		patch.LatestReleaseName = &latest.Name
		patch.LatestReleaseDate = &latest.ReleaseDate
		patch.LatestReleaseURL = &latest.URL
		patch.LatestReleaseType = &latest.Type
		patch.LatestReleaseImage = optional(latest.Image)
	}

	updated, err := s.artists.ApplySyncPatch(ctx, artist.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("apply sync patch: %w", err)
	}

	s.log.Debug().
		Str("artist_id", artist.ID.String()).
		Str("spotify_id", spotifyID).
		Int("releases", len(releases)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("artist synced")

	return updated, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
