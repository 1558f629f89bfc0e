package postgresql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"artist-sync-service/internal/entity"
)

// ErrNotActive means a conditional ledger update matched zero rows: the
// job is no longer in the expected state. Callers treat it as "another
// invocation is ahead" and stop cleanly.
var ErrNotActive = errors.New("sync job not active")

// ErrActiveJobExists means the partial unique index rejected the insert:
// some other trigger created an active job first.
var ErrActiveJobExists = errors.New("an active sync job already exists")

const syncJobColumns = `
id, status, total, synced, failed, batch_size, cursor,
requested_by, last_error, created_at, started_at, finished_at`

type SyncJobRepository struct {
	pool *pgxpool.Pool
}

func NewSyncJobRepository(pool *pgxpool.Pool) *SyncJobRepository {
	return &SyncJobRepository{pool: pool}
}

func (r *SyncJobRepository) Create(ctx context.Context, total, batchSize int, requestedBy *string) (*entity.SyncJob, error) {
	const q = `
INSERT INTO sync_jobs (status, total, batch_size, requested_by)
VALUES ('QUEUED', $1, $2, $3)
RETURNING ` + syncJobColumns + `;`

	job, err := scanSyncJob(r.pool.QueryRow(ctx, q, total, batchSize, requestedBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrActiveJobExists
		}
		return nil, err
	}
	return job, nil
}

func (r *SyncJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error) {
	const q = `SELECT ` + syncJobColumns + ` FROM sync_jobs WHERE id = $1;`

	job, err := scanSyncJob(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// FindActive returns the QUEUED or RUNNING job, oldest first. With the
// at-most-one-active invariant there should never be more than one; oldest
// first makes any leak drain in order. ErrNotFound when nothing is active.
func (r *SyncJobRepository) FindActive(ctx context.Context) (*entity.SyncJob, error) {
	const q = `
SELECT ` + syncJobColumns + `
FROM sync_jobs
WHERE status IN ('QUEUED', 'RUNNING')
ORDER BY created_at ASC
LIMIT 1;`

	job, err := scanSyncJob(r.pool.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// TryStart is the QUEUED -> RUNNING transition lock. Two invocations
// racing on the same job produce exactly one winner; the loser sees false
// and must not process the batch.
func (r *SyncJobRepository) TryStart(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `
UPDATE sync_jobs
SET status = 'RUNNING', started_at = now()
WHERE id = $1 AND status = 'QUEUED';`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecordBatchResult folds one batch into the ledger: counter increments,
// the new cursor and the last per-artist error. Conditional on RUNNING so
// a superseded job's late tick cannot corrupt a newer job's bookkeeping;
// that case surfaces as ErrNotActive.
func (r *SyncJobRepository) RecordBatchResult(ctx context.Context, id uuid.UUID, syncedDelta, failedDelta int, cursor uuid.UUID, lastError *string) (*entity.SyncJob, error) {
	const q = `
UPDATE sync_jobs
SET synced = synced + $2,
    failed = failed + $3,
    cursor = $4,
    last_error = $5
WHERE id = $1 AND status = 'RUNNING'
RETURNING ` + syncJobColumns + `;`

	job, err := scanSyncJob(r.pool.QueryRow(ctx, q, id, syncedDelta, failedDelta, cursor, lastError))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotActive
		}
		return nil, err
	}
	return job, nil
}

func (r *SyncJobRepository) Complete(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE sync_jobs
SET status = 'COMPLETED', finished_at = now(), cursor = NULL
WHERE id = $1 AND status = 'RUNNING';`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *SyncJobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `
UPDATE sync_jobs
SET status = 'FAILED', finished_at = now(), last_error = $2
WHERE id = $1 AND status IN ('QUEUED', 'RUNNING');`

	tag, err := r.pool.Exec(ctx, q, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func scanSyncJob(row pgx.Row) (*entity.SyncJob, error) {
	var (
		job        entity.SyncJob
		statusText string
	)
	if err := row.Scan(
		&job.ID,
		&statusText,
		&job.Total,
		&job.Synced,
		&job.Failed,
		&job.BatchSize,
		&job.Cursor,
		&job.RequestedBy,
		&job.LastError,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	); err != nil {
		return nil, err
	}
	job.Status = entity.SyncJobStatus(statusText)
	return &job, nil
}
