package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"artist-sync-service/internal/entity"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, ev entity.AuditEvent) error {
	const q = `
INSERT INTO audit_log (action, user_email, entity_type, entity_id, metadata, path, method, ip)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	metadata := ev.Metadata
	if len(metadata) == 0 {
		metadata = nil
	}

	_, err := r.pool.Exec(ctx, q,
		ev.Action,
		ev.UserEmail,
		ev.EntityType,
		ev.EntityID,
		metadata,
		ev.Path,
		ev.Method,
		ev.IP,
	)
	return err
}
