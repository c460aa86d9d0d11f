package models

import (
	"time"

	"github.com/google/uuid"
)

type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "ACTIVE"
	CategoryStatusInactive CategoryStatus = "INACTIVE"
)

type Category struct {
	ID        uuid.UUID      `db:"id"`
	AccountID uuid.UUID      `db:"account_id"`
	Name      string         `db:"name"`
	Status    CategoryStatus `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
