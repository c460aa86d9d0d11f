package models

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptFile is the stored upload backing an expense. HashDedupe is the
// SHA-256 digest of the exact uploaded bytes, computed before any
// extraction runs; identical documents always carry identical digests.
type ReceiptFile struct {
	ID           uuid.UUID `db:"id"`
	AccountID    uuid.UUID `db:"account_id"`
	UserID       uuid.UUID `db:"user_id"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"`
	SizeBytes    int64     `db:"size_bytes"`
	StoragePath  string    `db:"storage_path"`
	HashDedupe   string    `db:"hash_dedupe"`
	CreatedAt    time.Time `db:"created_at"`
}
