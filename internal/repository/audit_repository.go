package repository

import (
	"context"
	"encoding/json"

	"gastoscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	query := squirrel.Insert("audit_logs").
		Columns("id", "account_id", "actor_user_id", "action", "entity", "entity_id", "metadata", "created_at").
		Values(entry.ID, entry.AccountID, entry.ActorUserID, entry.Action, entry.Entity,
			entry.EntityID, metadata, entry.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
