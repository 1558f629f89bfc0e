package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	PostgresDSN string
	RedisAddr   string

	// Continuation queue keys. The processing list backs the reaper:
	// ticks claimed by a worker that died get pushed back onto the queue.
	TickQueueKey      string
	TickProcessingKey string

	SpotifyClientID     string
	SpotifyClientSecret string
	// Overridable for tests and proxies; default to the real endpoints.
	SpotifyAPIURL      string
	SpotifyAccountsURL string

	// Minimum spacing between outbound Spotify calls, process-wide.
	SpotifyMinInterval time.Duration

	// Artists are due for re-sync once last_synced_at is older than this.
	StaleAfter time.Duration
	BatchSize  int

	// Bearer secrets. Empty secret means the route is open (non-production).
	CronSecret   string
	WorkerSecret string
	AdminSecret  string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:      getenv("APP_ENV", "development"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		PostgresDSN: mustGetenv("POSTGRES_DSN"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),

		TickQueueKey:      getenv("SYNC_TICK_QUEUE_KEY", "sync:ticks"),
		TickProcessingKey: getenv("SYNC_TICK_PROCESSING_KEY", "sync:ticks:processing"),

		SpotifyClientID:     mustGetenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: mustGetenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyAPIURL:       getenv("SPOTIFY_API_URL", "https://api.spotify.com"),
		SpotifyAccountsURL:  getenv("SPOTIFY_ACCOUNTS_URL", "https://accounts.spotify.com"),

		SpotifyMinInterval: envDurOr("SPOTIFY_MIN_INTERVAL", 600*time.Millisecond),

		StaleAfter: envDurOr("SYNC_STALE_AFTER", 24*time.Hour),
		BatchSize:  envIntOr("SYNC_BATCH_SIZE", 10),

		CronSecret:   os.Getenv("CRON_SECRET"),
		WorkerSecret: os.Getenv("SYNC_WORKER_SECRET"),
		AdminSecret:  os.Getenv("ADMIN_SECRET"),
	}
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envDurOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
