// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "artist-sync-service/docs"
	"artist-sync-service/internal/config"
	"artist-sync-service/internal/queue"
	"artist-sync-service/internal/repository/postgresql"
	"artist-sync-service/internal/service"
	"artist-sync-service/internal/spotify"
	httptransport "artist-sync-service/internal/transport/http"
)

// @title Artist Sync Service API
// @version 1.0
// @description Spotify synchronization pipeline for the artist CRM: sync job ledger, batch worker and single-artist refresh.

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("app", "sync-server").Logger()
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
	audits := postgresql.NewAuditRepository(pool)

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
	scheduler := service.NewSchedulerService(jobs, artists, ticks, cfg.BatchSize, cfg.StaleAfter, log)
	audit := service.NewAuditLogger(audits, log)

	h := httptransport.NewHandler(scheduler, worker, syncer, audit)
	router := httptransport.Routes(h, httptransport.Secrets{
		Cron:   cfg.CronSecret,
		Worker: cfg.WorkerSecret,
		Admin:  cfg.AdminSecret,
	}, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}
