package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"artist-sync-service/internal/entity"
)

type AuditStore interface {
	Insert(ctx context.Context, ev entity.AuditEvent) error
}

// AuditLogger writes trail records for triggering operations. Writes run
// in the background with their own deadline; an audit failure is logged
// and never fails the operation it describes.
type AuditLogger struct {
	store AuditStore
	log   zerolog.Logger
}

func NewAuditLogger(store AuditStore, log zerolog.Logger) *AuditLogger {
	return &AuditLogger{store: store, log: log}
}

func (a *AuditLogger) Record(ev entity.AuditEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Insert(ctx, ev); err != nil {
			a.log.Warn().Err(err).Str("action", ev.Action).Msg("audit write failed")
		}
	}()
}
