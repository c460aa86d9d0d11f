package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a submission event. Emission is best-effort: a failed
// insert is logged and never blocks the expense it describes.
type AuditLog struct {
	ID          uuid.UUID      `db:"id"`
	AccountID   uuid.UUID      `db:"account_id"`
	ActorUserID uuid.UUID      `db:"actor_user_id"`
	Action      string         `db:"action"`
	Entity      string         `db:"entity"`
	EntityID    uuid.UUID      `db:"entity_id"`
	Metadata    map[string]any `db:"metadata"`
	CreatedAt   time.Time      `db:"created_at"`
}
