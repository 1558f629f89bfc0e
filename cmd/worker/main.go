// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"artist-sync-service/internal/config"
	"artist-sync-service/internal/queue"
	"artist-sync-service/internal/repository/postgresql"
	"artist-sync-service/internal/service"
	"artist-sync-service/internal/spotify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("app", "sync-worker").Logger()
	if !cfg.Production() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Postgres
	pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg")
	}
	defer pool.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis")
	}

	// DI
	artists := postgresql.NewArtistRepository(pool)
	releases := postgresql.NewReleaseRepository(pool)
	jobs := postgresql.NewSyncJobRepository(pool)

	ticks := queue.NewRedisTickQueue(rdb, cfg.TickQueueKey, cfg.TickProcessingKey)

	pacer := spotify.NewPacer(cfg.SpotifyMinInterval)
	client := spotify.NewClient(spotify.ClientConfig{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		APIURL:       cfg.SpotifyAPIURL,
		AccountsURL:  cfg.SpotifyAccountsURL,
	}, pacer)

	syncer := service.NewArtistSyncService(artists, releases, client, log)
	worker := service.NewWorkerService(jobs, artists, syncer, ticks, cfg.StaleAfter, log)

	// Reaper: tick requests claimed by a worker that died go back on the
	// queue. Replays are safe, the ledger decides what a tick does.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := ticks.RequeueStale(ctx, 100)
				if err != nil {
					log.Error().Err(err).Msg("requeue stale ticks")
					continue
				}
				if n > 0 {
					log.Info().Int64("count", n).Msg("requeued stale ticks")
				}
			}
		}
	}()

	log.Info().
		Str("queue_key", cfg.TickQueueKey).
		Dur("stale_after", cfg.StaleAfter).
		Msg("sync worker started")

	for ctx.Err() == nil {
		jobID, err := ticks.ClaimBlocking(ctx, 5*time.Second)
		if err != nil {
			// timeout / redis.Nil / ctx cancel
			continue
		}

		job, err := worker.RunTick(ctx)
		if err != nil {
			log.Error().Err(err).Str("tick_job_id", jobID).Msg("worker tick failed")
		} else if job != nil {
			log.Info().
				Str("job_id", job.ID.String()).
				Str("status", string(job.Status)).
				Int("synced", job.Synced).
				Int("failed", job.Failed).
				Msg("worker tick done")
		}

		// Ack in any case: the tick ran and the ledger reflects whatever
		// it decided. A crash before this point is what the reaper is for.
		if ackErr := ticks.Ack(ctx, jobID); ackErr != nil {
			log.Error().Err(ackErr).Str("tick_job_id", jobID).Msg("ack tick")
		}
	}

	log.Info().Msg("worker stopped")
}
