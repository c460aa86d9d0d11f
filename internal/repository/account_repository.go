package repository

import (
	"context"

	"gastoscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	query := squirrel.Insert("accounts").
		Columns("id", "name", "monthly_expense_limit", "can_add_custom_categories", "created_at", "updated_at").
		Values(a.ID, a.Name, a.MonthlyExpenseLimit, a.CanAddCustomCategories, a.CreatedAt, a.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := squirrel.Select("id", "name", "monthly_expense_limit", "can_add_custom_categories", "created_at", "updated_at").
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var a models.Account
	err = r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.Name, &a.MonthlyExpenseLimit,
		&a.CanAddCustomCategories, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
