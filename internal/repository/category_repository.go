package repository

import (
	"context"
	"errors"
	"time"

	"gastoscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveByAccount returns the account's categories ordered by name.
// Older schemas lack the status column; on 42703 the filter is dropped and
// everything is returned.
func (r *CategoryRepository) ListActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Category, error) {
	cats, err := r.list(ctx, accountID, true)
	var pgErr *pgconn.PgError
	if err != nil && errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		r.logger.Warn("Category schema lacks status column, listing without filter")
		return r.list(ctx, accountID, false)
	}
	return cats, err
}

func (r *CategoryRepository) list(ctx context.Context, accountID uuid.UUID, filterStatus bool) ([]*models.Category, error) {
	columns := []string{"id", "account_id", "name", "status", "created_at", "updated_at"}
	if !filterStatus {
		columns[3] = "'ACTIVE' AS status"
	}

	query := squirrel.Select(columns...).
		From("categories").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("name").
		PlaceholderFormat(squirrel.Dollar)
	if filterStatus {
		query = query.Where(squirrel.Eq{"status": models.CategoryStatusActive})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := squirrel.Insert("categories").
		Columns("id", "account_id", "name", "status", "created_at", "updated_at").
		Values(c.ID, c.AccountID, c.Name, c.Status, c.CreatedAt, c.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if err != nil && errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		retry := squirrel.Insert("categories").
			Columns("id", "account_id", "name", "created_at", "updated_at").
			Values(c.ID, c.AccountID, c.Name, c.CreatedAt, c.UpdatedAt).
			PlaceholderFormat(squirrel.Dollar)
		sql, args, err = retry.ToSql()
		if err != nil {
			return err
		}
		_, err = r.db.Exec(ctx, sql, args...)
	}
	return err
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := squirrel.Select("id", "account_id", "name", "status", "created_at", "updated_at").
		From("categories").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var c models.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.AccountID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// NewCategory builds a fresh active category for an account.
func NewCategory(accountID uuid.UUID, name string) *models.Category {
	now := time.Now()
	return &models.Category{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Status:    models.CategoryStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
