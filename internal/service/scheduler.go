package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artist-sync-service/internal/entity"
	"artist-sync-service/internal/repository/postgresql"
)

// SupersededReason is stamped on a job that a forced restart pushed aside.
const SupersededReason = "Superseded by a new sync job."

type JobLedger interface {
	FindActive(ctx context.Context) (*entity.SyncJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error)
	Create(ctx context.Context, total, batchSize int, requestedBy *string) (*entity.SyncJob, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

type StaleArtistCounter interface {
	CountStale(ctx context.Context, cutoff time.Time) (int, error)
}

// TriggerResult reports what a trigger call did. Exactly one of the flags
// is set when Job is nil.
type TriggerResult struct {
	Job            *entity.SyncJob
	AlreadyRunning bool
	NothingToSync  bool
}

// SchedulerService creates sync jobs: the cron trigger and the manual
// admin trigger are the same operation, the latter with an optional
// force-supersede.
type SchedulerService struct {
	jobs       JobLedger
	artists    StaleArtistCounter
	ticks      TickEnqueuer
	batchSize  int
	staleAfter time.Duration
	log        zerolog.Logger
}

func NewSchedulerService(jobs JobLedger, artists StaleArtistCounter, ticks TickEnqueuer, batchSize int, staleAfter time.Duration, log zerolog.Logger) *SchedulerService {
	if batchSize <= 0 {
		batchSize = 10
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &SchedulerService{
		jobs:       jobs,
		artists:    artists,
		ticks:      ticks,
		batchSize:  batchSize,
		staleAfter: staleAfter,
		log:        log,
	}
}

// Trigger creates a new QUEUED job when no job is active and at least one
// artist is stale, then requests the first worker tick. With force set,
// an existing active job is failed as superseded first. requestedBy is
// nil for cron runs.
func (s *SchedulerService) Trigger(ctx context.Context, requestedBy *string, force bool) (TriggerResult, error) {
	existing, err := s.jobs.FindActive(ctx)
	if err != nil && !errors.Is(err, postgresql.ErrNotFound) {
		return TriggerResult{}, err
	}
	if existing != nil {
		if !force {
			return TriggerResult{Job: existing, AlreadyRunning: true}, nil
		}
		if err := s.jobs.Fail(ctx, existing.ID, SupersededReason); err != nil && !errors.Is(err, postgresql.ErrNotActive) {
			return TriggerResult{}, err
		}
		s.log.Warn().Str("job_id", existing.ID.String()).Msg("active sync job superseded")
	}

	cutoff := time.Now().Add(-s.staleAfter)
	total, err := s.artists.CountStale(ctx, cutoff)
	if err != nil {
		return TriggerResult{}, err
	}
	if total == 0 {
		return TriggerResult{NothingToSync: true}, nil
	}

	job, err := s.jobs.Create(ctx, total, s.batchSize, requestedBy)
	if err != nil {
		if errors.Is(err, postgresql.ErrActiveJobExists) {
			// lost the creation race; report the winner's job
			winner, findErr := s.jobs.FindActive(ctx)
			if findErr != nil {
				return TriggerResult{}, findErr
			}
			return TriggerResult{Job: winner, AlreadyRunning: true}, nil
		}
		return TriggerResult{}, err
	}

	s.log.Info().
		Str("job_id", job.ID.String()).
		Int("total", total).
		Int("batch_size", s.batchSize).
		Msg("sync job created")

	if err := s.ticks.Enqueue(ctx, job.ID.String()); err != nil {
		// the job stays QUEUED; the next cron run or a manual worker
		// call picks it up from the ledger
		s.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("enqueue first tick failed")
	}

	return TriggerResult{Job: job}, nil
}

// JobByID loads one job for the status endpoint.
func (s *SchedulerService) JobByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ActiveJob returns the active job, or nil when none exists.
func (s *SchedulerService) ActiveJob(ctx context.Context) (*entity.SyncJob, error) {
	job, err := s.jobs.FindActive(ctx)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}
