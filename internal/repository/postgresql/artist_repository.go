package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artist-sync-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

const artistColumns = `
id, name, spotify_id, spotify_url,
spotify_followers, spotify_popularity, spotify_genres, spotify_image,
latest_release_name, latest_release_date, latest_release_url,
latest_release_type, latest_release_image,
needs_sync, last_synced_at, created_at, updated_at`

// stalePredicate is the shared query contract for "this artist is due for
// a re-fetch": marked dirty, never synced, or synced before the cutoff —
// and actually addressable on Spotify. Job sizing and batch selection use
// the same predicate with the same cutoff so total and batches agree.
const stalePredicate = `
(needs_sync = TRUE OR last_synced_at IS NULL OR last_synced_at < $1)
AND (spotify_id IS NOT NULL OR spotify_url IS NOT NULL)`

type ArtistRepository struct {
	pool *pgxpool.Pool
}

func NewArtistRepository(pool *pgxpool.Pool) *ArtistRepository {
	return &ArtistRepository{pool: pool}
}

func (r *ArtistRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Artist, error) {
	const q = `SELECT ` + artistColumns + ` FROM artists WHERE id = $1;`

	artist, err := scanArtist(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return artist, nil
}

// CountStale sizes a new sync job: how many artists currently match the
// staleness predicate.
func (r *ArtistRepository) CountStale(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM artists WHERE ` + stalePredicate + `;`

	var total int
	if err := r.pool.QueryRow(ctx, q, cutoff).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListStaleBatch returns the next page of stale artists ordered by id,
// resuming strictly after the cursor. Keyset pagination, not offsets:
// concurrent inserts and deletes cannot make the sweep skip or repeat.
func (r *ArtistRepository) ListStaleBatch(ctx context.Context, cutoff time.Time, after *uuid.UUID, limit int) ([]entity.Artist, error) {
	const q = `
SELECT ` + artistColumns + `
FROM artists
WHERE ` + stalePredicate + `
  AND ($2::uuid IS NULL OR id > $2)
ORDER BY id ASC
LIMIT $3;`

	rows, err := r.pool.Query(ctx, q, cutoff, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []entity.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, *artist)
	}
	return batch, rows.Err()
}

// ApplySyncPatch writes the fetched metadata back, stamps last_synced_at
// and clears needs_sync. Returns the updated row.
func (r *ArtistRepository) ApplySyncPatch(ctx context.Context, id uuid.UUID, patch entity.ArtistSyncPatch) (*entity.Artist, error) {
	const q = `
UPDATE artists SET
	spotify_id = $2,
	spotify_followers = $3,
	spotify_popularity = $4,
	spotify_genres = $5,
	spotify_image = $6,
	latest_release_name = $7,
	latest_release_date = $8,
	latest_release_url = $9,
	latest_release_type = $10,
	latest_release_image = $11,
	needs_sync = FALSE,
	last_synced_at = now(),
	updated_at = now()
WHERE id = $1
RETURNING ` + artistColumns + `;`

	artist, err := scanArtist(r.pool.QueryRow(ctx, q,
		id,
		patch.SpotifyID,
		patch.Followers,
		patch.Popularity,
		patch.Genres,
		patch.Image,
		patch.LatestReleaseName,
		patch.LatestReleaseDate,
		patch.LatestReleaseURL,
		patch.LatestReleaseType,
		patch.LatestReleaseImage,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return artist, nil
}

func scanArtist(row pgx.Row) (*entity.Artist, error) {
	var a entity.Artist
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.SpotifyID,
		&a.SpotifyURL,
		&a.SpotifyFollowers,
		&a.SpotifyPopularity,
		&a.SpotifyGenres,
		&a.SpotifyImage,
		&a.LatestReleaseName,
		&a.LatestReleaseDate,
		&a.LatestReleaseURL,
		&a.LatestReleaseType,
		&a.LatestReleaseImage,
		&a.NeedsSync,
		&a.LastSyncedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
