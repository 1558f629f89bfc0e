package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Secrets hold the bearer tokens gating each route group. Empty values
// leave the corresponding routes open (non-production).
type Secrets struct {
	Cron   string
	Worker string
	Admin  string
}

func Routes(h *Handler, secrets Secrets, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api/spotify", func(r chi.Router) {
		r.With(BearerAuth(secrets.Cron)).Get("/cron-sync", h.CronSync)
		r.With(BearerAuth(secrets.Worker)).Get("/sync-worker", h.SyncWorker)

		r.Route("/sync-all", func(r chi.Router) {
			r.Use(BearerAuth(secrets.Admin))
			r.Get("/", h.GetSyncJob)
			r.Post("/", h.ManualSync)
		})

		r.With(BearerAuth(secrets.Admin)).Post("/refresh", h.RefreshArtist)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
