package postgresql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"artist-sync-service/internal/entity"
)

type ReleaseRepository struct {
	pool *pgxpool.Pool
}

func NewReleaseRepository(pool *pgxpool.Pool) *ReleaseRepository {
	return &ReleaseRepository{pool: pool}
}

// Upsert creates or refreshes one release row keyed by
// (artist_id, spotify_release_id). The DO UPDATE is guarded with
// IS DISTINCT FROM so re-syncing unchanged data touches zero rows.
func (r *ReleaseRepository) Upsert(ctx context.Context, artistID uuid.UUID, in entity.ReleaseUpsert) error {
	const q = `
INSERT INTO artist_releases (artist_id, spotify_release_id, name, release_date, url, type, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (artist_id, spotify_release_id) DO UPDATE SET
	name = EXCLUDED.name,
	release_date = EXCLUDED.release_date,
	url = EXCLUDED.url,
	type = EXCLUDED.type,
	image = EXCLUDED.image,
	updated_at = now()
WHERE (artist_releases.name, artist_releases.release_date, artist_releases.url,
       artist_releases.type, artist_releases.image)
  IS DISTINCT FROM
      (EXCLUDED.name, EXCLUDED.release_date, EXCLUDED.url,
       EXCLUDED.type, EXCLUDED.image);`

	_, err := r.pool.Exec(ctx, q,
		artistID,
		in.SpotifyReleaseID,
		in.Name,
		in.ReleaseDate,
		in.URL,
		in.Type,
		in.Image,
	)
	return err
}

// ListByArtist returns an artist's releases newest first.
func (r *ReleaseRepository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]entity.Release, error) {
	const q = `
SELECT id, artist_id, spotify_release_id, name, release_date, url, type, image, created_at, updated_at
FROM artist_releases
WHERE artist_id = $1
ORDER BY release_date DESC;`

	rows, err := r.pool.Query(ctx, q, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var releases []entity.Release
	for rows.Next() {
		var rel entity.Release
		if err := rows.Scan(
			&rel.ID,
			&rel.ArtistID,
			&rel.SpotifyReleaseID,
			&rel.Name,
			&rel.ReleaseDate,
			&rel.URL,
			&rel.Type,
			&rel.Image,
			&rel.CreatedAt,
			&rel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		releases = append(releases, rel)
	}
	return releases, rows.Err()
}
