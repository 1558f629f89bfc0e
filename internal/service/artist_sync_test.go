package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artist-sync-service/internal/entity"
	"artist-sync-service/internal/repository/postgresql"
	"artist-sync-service/internal/service"
	"artist-sync-service/internal/spotify"
)

// ---- fakes ----

type fakeArtistStore struct {
	mu      sync.Mutex
	artists map[uuid.UUID]*entity.Artist
	patched map[uuid.UUID]entity.ArtistSyncPatch
}

func (s *fakeArtistStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artists[id]
	if !ok {
		return nil, postgresql.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeArtistStore) ApplySyncPatch(ctx context.Context, id uuid.UUID, patch entity.ArtistSyncPatch) (*entity.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artists[id]
	if !ok {
		return nil, postgresql.ErrNotFound
	}
	if s.patched == nil {
		s.patched = map[uuid.UUID]entity.ArtistSyncPatch{}
	}
	s.patched[id] = patch

	now := time.Now().UTC()
	a.SpotifyID = &patch.SpotifyID
	a.SpotifyFollowers = &patch.Followers
	a.SpotifyPopularity = &patch.Popularity
	a.SpotifyGenres = patch.Genres
	a.SpotifyImage = patch.Image
	a.LatestReleaseName = patch.LatestReleaseName
	a.LatestReleaseDate = patch.LatestReleaseDate
	a.LatestReleaseURL = patch.LatestReleaseURL
	a.LatestReleaseType = patch.LatestReleaseType
	a.LatestReleaseImage = patch.LatestReleaseImage
	a.NeedsSync = false
	a.LastSyncedAt = &now

	cp := *a
	return &cp, nil
}

type fakeReleaseStore struct {
	mu          sync.Mutex
	rows        map[string]entity.ReleaseUpsert // artistID|releaseID
	upsertCalls int
}

func (s *fakeReleaseStore) Upsert(ctx context.Context, artistID uuid.UUID, in entity.ReleaseUpsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]entity.ReleaseUpsert{}
	}
	s.upsertCalls++
	s.rows[artistID.String()+"|"+in.SpotifyReleaseID] = in
	return nil
}

type fakeSpotifyClient struct {
	mu           sync.Mutex
	meta         *spotify.ArtistMetadata
	releases     []spotify.Release
	metaErr      error
	releasesErr  error
	requestedIDs []string
}

func (c *fakeSpotifyClient) GetArtist(ctx context.Context, spotifyID string) (*spotify.ArtistMetadata, error) {
	c.mu.Lock()
	c.requestedIDs = append(c.requestedIDs, spotifyID)
	c.mu.Unlock()
	if c.metaErr != nil {
		return nil, c.metaErr
	}
	cp := *c.meta
	return &cp, nil
}

func (c *fakeSpotifyClient) GetArtistReleases(ctx context.Context, spotifyID string) ([]spotify.Release, error) {
	if c.releasesErr != nil {
		return nil, c.releasesErr
	}
	return append([]spotify.Release(nil), c.releases...), nil
}

// ---- helpers ----

func strPtr(s string) *string { return &s }

func testArtist(id uuid.UUID) *entity.Artist {
	return &entity.Artist{
		ID:        id,
		Name:      "Test Artist",
		NeedsSync: true,
	}
}

func testMeta() *spotify.ArtistMetadata {
	return &spotify.ArtistMetadata{
		Followers:  5000,
		Popularity: 44,
		Genres:     []string{"dream pop"},
		Image:      "https://img.example/a.jpg",
	}
}

func testReleases() []spotify.Release {
	return []spotify.Release{
		{
			ID:          "rel-new",
			Name:        "Night Tape",
			ReleaseDate: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
			URL:         "https://open.spotify.com/album/rel-new",
			Type:        "single",
			Image:       "https://img.example/rel-new.jpg",
		},
		{
			ID:          "rel-old",
			Name:        "First Light",
			ReleaseDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			URL:         "https://open.spotify.com/album/rel-old",
			Type:        "album",
		},
	}
}

func newSyncService(artists *fakeArtistStore, releases *fakeReleaseStore, client *fakeSpotifyClient) *service.ArtistSyncService {
	return service.NewArtistSyncService(artists, releases, client, zerolog.Nop())
}

// ---- tests ----

func TestSyncArtist_NotFound(t *testing.T) {
	svc := newSyncService(&fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{}}, &fakeReleaseStore{}, &fakeSpotifyClient{})

	_, err := svc.SyncArtist(context.Background(), uuid.New())
	if !errors.Is(err, service.ErrArtistNotFound) {
		t.Fatalf("expected ErrArtistNotFound, got %v", err)
	}
}

func TestSyncArtist_MissingSpotifyID(t *testing.T) {
	id := uuid.New()
	store := &fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{id: testArtist(id)}}
	svc := newSyncService(store, &fakeReleaseStore{}, &fakeSpotifyClient{})

	_, err := svc.SyncArtist(context.Background(), id)
	if !errors.Is(err, service.ErrMissingSpotifyID) {
		t.Fatalf("expected ErrMissingSpotifyID, got %v", err)
	}
}

func TestSyncArtist_DerivesIDFromProfileURL(t *testing.T) {
	id := uuid.New()
	artist := testArtist(id)
	artist.SpotifyURL = strPtr("https://open.spotify.com/artist/abc123XYZ")

	store := &fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{id: artist}}
	client := &fakeSpotifyClient{meta: testMeta(), releases: testReleases()}
	svc := newSyncService(store, &fakeReleaseStore{}, client)

	updated, err := svc.SyncArtist(context.Background(), id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(client.requestedIDs) == 0 || client.requestedIDs[0] != "abc123XYZ" {
		t.Fatalf("expected client called with abc123XYZ, got %#v", client.requestedIDs)
	}
	if updated.SpotifyID == nil || *updated.SpotifyID != "abc123XYZ" {
		t.Fatalf("expected derived spotify id persisted, got %v", updated.SpotifyID)
	}
}

func TestSyncArtist_WritesPatchAndUpsertsReleases(t *testing.T) {
	id := uuid.New()
	artist := testArtist(id)
	artist.SpotifyID = strPtr("abc")

	store := &fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{id: artist}}
	releases := &fakeReleaseStore{}
	svc := newSyncService(store, releases, &fakeSpotifyClient{meta: testMeta(), releases: testReleases()})

	updated, err := svc.SyncArtist(context.Background(), id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(releases.rows) != 2 {
		t.Fatalf("expected 2 release rows, got %d", len(releases.rows))
	}

	patch := store.patched[id]
	if patch.Followers != 5000 || patch.Popularity != 44 {
		t.Fatalf("unexpected metrics in patch: %+v", patch)
	}
	if patch.LatestReleaseName == nil || *patch.LatestReleaseName != "Night Tape" {
		t.Fatalf("expected latest release Night Tape, got %v", patch.LatestReleaseName)
	}
	if patch.LatestReleaseType == nil || *patch.LatestReleaseType != "single" {
		t.Fatalf("expected latest release type single, got %v", patch.LatestReleaseType)
	}

	if updated.NeedsSync {
		t.Fatalf("expected needs_sync cleared")
	}
	if updated.LastSyncedAt == nil {
		t.Fatalf("expected last_synced_at stamped")
	}
}

func TestSyncArtist_SecondRunProducesNoDuplicates(t *testing.T) {
	id := uuid.New()
	artist := testArtist(id)
	artist.SpotifyID = strPtr("abc")

	store := &fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{id: artist}}
	releases := &fakeReleaseStore{}
	svc := newSyncService(store, releases, &fakeSpotifyClient{meta: testMeta(), releases: testReleases()})

	for i := 0; i < 2; i++ {
		if _, err := svc.SyncArtist(context.Background(), id); err != nil {
			t.Fatalf("run %d: expected nil error, got %v", i, err)
		}
	}

	// one row per external release id, however many times we sync
	if len(releases.rows) != 2 {
		t.Fatalf("expected 2 release rows after re-sync, got %d", len(releases.rows))
	}
}

func TestSyncArtist_UpstreamErrorPropagates(t *testing.T) {
	id := uuid.New()
	artist := testArtist(id)
	artist.SpotifyID = strPtr("abc")

	store := &fakeArtistStore{artists: map[uuid.UUID]*entity.Artist{id: artist}}
	client := &fakeSpotifyClient{metaErr: spotify.ErrRateLimited}
	svc := newSyncService(store, &fakeReleaseStore{}, client)

	_, err := svc.SyncArtist(context.Background(), id)
	if !errors.Is(err, spotify.ErrRateLimited) {
		t.Fatalf("expected wrapped ErrRateLimited, got %v", err)
	}
	if len(store.patched) != 0 {
		t.Fatalf("expected no patch written on failure")
	}
}
