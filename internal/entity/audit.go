package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditEvent is a best-effort trail record written after triggering
// operations. Writes are fire-and-forget and never block the caller.
type AuditEvent struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	UserEmail  *string         `json:"user_email,omitempty"`
	EntityType *string         `json:"entity_type,omitempty"`
	EntityID   *string         `json:"entity_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Path       *string         `json:"path,omitempty"`
	Method     *string         `json:"method,omitempty"`
	IP         *string         `json:"ip,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
