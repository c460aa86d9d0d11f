package repository

import (
	"context"
	"errors"

	"gastoscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ReceiptFileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptFileRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptFileRepository {
	return &ReceiptFileRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ReceiptFileRepository) Create(ctx context.Context, f *models.ReceiptFile) error {
	query := squirrel.Insert("receipt_files").
		Columns("id", "account_id", "user_id", "original_name", "mime_type", "size_bytes",
			"storage_path", "hash_dedupe", "created_at").
		Values(f.ID, f.AccountID, f.UserID, f.OriginalName, f.MimeType, f.SizeBytes,
			f.StoragePath, f.HashDedupe, f.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptFile, error) {
	query := squirrel.Select("id", "account_id", "user_id", "original_name", "mime_type",
		"size_bytes", "storage_path", "hash_dedupe", "created_at").
		From("receipt_files").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var f models.ReceiptFile
	err = r.db.QueryRow(ctx, sql, args...).Scan(&f.ID, &f.AccountID, &f.UserID,
		&f.OriginalName, &f.MimeType, &f.SizeBytes, &f.StoragePath, &f.HashDedupe, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByHash returns the account's most recent upload with the same content
// hash, skipping the row identified by exclude. A (nil, nil) result means
// the content is new to the account.
func (r *ReceiptFileRepository) FindByHash(ctx context.Context, accountID uuid.UUID, hash string, exclude uuid.UUID) (*models.ReceiptFile, error) {
	query := squirrel.Select("id", "account_id", "user_id", "original_name", "mime_type",
		"size_bytes", "storage_path", "hash_dedupe", "created_at").
		From("receipt_files").
		Where(squirrel.Eq{"account_id": accountID, "hash_dedupe": hash}).
		Where(squirrel.NotEq{"id": exclude}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var f models.ReceiptFile
	err = r.db.QueryRow(ctx, sql, args...).Scan(&f.ID, &f.AccountID, &f.UserID,
		&f.OriginalName, &f.MimeType, &f.SizeBytes, &f.StoragePath, &f.HashDedupe, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
