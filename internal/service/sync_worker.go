package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artist-sync-service/internal/entity"
	"artist-sync-service/internal/repository/postgresql"
)

type SyncJobStore interface {
	FindActive(ctx context.Context) (*entity.SyncJob, error)
	TryStart(ctx context.Context, id uuid.UUID) (bool, error)
	RecordBatchResult(ctx context.Context, id uuid.UUID, syncedDelta, failedDelta int, cursor uuid.UUID, lastError *string) (*entity.SyncJob, error)
	Complete(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

type StaleArtistLister interface {
	ListStaleBatch(ctx context.Context, cutoff time.Time, after *uuid.UUID, limit int) ([]entity.Artist, error)
}

type ArtistSyncer interface {
	SyncArtist(ctx context.Context, artistID uuid.UUID) (*entity.Artist, error)
}

// TickEnqueuer requests another worker tick without blocking on it
// (implementation: queue.TickQueue).
type TickEnqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// WorkerService processes exactly one batch of an active sync job per
// RunTick call. Invocations are stateless; all coordination between ticks
// goes through the sync_jobs row.
type WorkerService struct {
	jobs       SyncJobStore
	artists    StaleArtistLister
	syncer     ArtistSyncer
	ticks      TickEnqueuer
	staleAfter time.Duration
	log        zerolog.Logger
}

func NewWorkerService(jobs SyncJobStore, artists StaleArtistLister, syncer ArtistSyncer, ticks TickEnqueuer, staleAfter time.Duration, log zerolog.Logger) *WorkerService {
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &WorkerService{
		jobs:       jobs,
		artists:    artists,
		syncer:     syncer,
		ticks:      ticks,
		staleAfter: staleAfter,
		log:        log,
	}
}

// RunTick drives the job state machine one step. Returns the ledger row
// after the tick, or nil when there was nothing to do: no active job, or
// another invocation won the start race, or the job was superseded while
// this batch was in flight.
func (s *WorkerService) RunTick(ctx context.Context) (*entity.SyncJob, error) {
	job, err := s.jobs.FindActive(ctx)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if job.Status == entity.SyncStatusQueued {
		won, err := s.jobs.TryStart(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			// another invocation owns this job's first tick
			return nil, nil
		}
	}

	cutoff := time.Now().Add(-s.staleAfter)
	batch, err := s.artists.ListStaleBatch(ctx, cutoff, job.Cursor, job.BatchSize)
	if err != nil {
		// batch selection failing is fatal to the job, not to one artist
		s.failJob(ctx, job.ID, err)
		return nil, err
	}

	if len(batch) == 0 {
		if err := s.jobs.Complete(ctx, job.ID); err != nil {
			if errors.Is(err, postgresql.ErrNotActive) {
				return nil, nil
			}
			return nil, err
		}
		s.log.Info().
			Str("job_id", job.ID.String()).
			Int("synced", job.Synced).
			Int("failed", job.Failed).
			Msg("sync job completed")
		job.Status = entity.SyncStatusCompleted
		job.Cursor = nil
		return job, nil
	}

	synced, failed, lastErr := s.syncBatch(ctx, batch)

	// The cursor advances past every artist in the batch, failed ones
	// included: a failing artist is not retried within the same sweep.
	nextCursor := batch[len(batch)-1].ID

	updated, err := s.jobs.RecordBatchResult(ctx, job.ID, synced, failed, nextCursor, lastErr)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotActive) {
			// superseded while the batch ran; a newer job owns the
			// sweep now, so drop this chain
			s.log.Warn().Str("job_id", job.ID.String()).Msg("job no longer running, stopping chain")
			return nil, nil
		}
		s.failJob(ctx, job.ID, err)
		return nil, err
	}

	s.log.Info().
		Str("job_id", updated.ID.String()).
		Int("batch", len(batch)).
		Int("synced", updated.Synced).
		Int("failed", updated.Failed).
		Msg("sync batch processed")

	// Chain the next tick after every non-empty batch. The cursor only
	// ever advances, so the chain terminates: the first empty batch
	// marks the job COMPLETED.
	if err := s.ticks.Enqueue(ctx, updated.ID.String()); err != nil {
		// not fatal: the ledger alone decides what happens next, so the
		// cron trigger or a manual worker call resumes the job
		s.log.Error().Err(err).Str("job_id", updated.ID.String()).Msg("enqueue continuation failed")
	}

	return updated, nil
}

// syncBatch fans out over the batch. Per-artist failures are counted and
// recorded, never propagated; the shared pacer inside the Spotify client
// bounds the real outbound concurrency.
func (s *WorkerService) syncBatch(ctx context.Context, batch []entity.Artist) (synced, failed int, lastErr *string) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, artist := range batch {
		wg.Add(1)
		go func(a entity.Artist) {
			defer wg.Done()
			_, err := s.syncer.SyncArtist(ctx, a.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				msg := err.Error()
				lastErr = &msg
				s.log.Warn().Err(err).Str("artist_id", a.ID.String()).Msg("artist sync failed")
				return
			}
			synced++
		}(artist)
	}
	wg.Wait()
	return synced, failed, lastErr
}

func (s *WorkerService) failJob(ctx context.Context, id uuid.UUID, cause error) {
	if err := s.jobs.Fail(ctx, id, cause.Error()); err != nil && !errors.Is(err, postgresql.ErrNotActive) {
		s.log.Error().Err(err).Str("job_id", id.String()).Msg("mark job failed")
	}
}
