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

// SQLSTATE for "column does not exist"; triggers the reduced-field retry.
const pgUndefinedColumn = "42703"

type ExpenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a finalized expense. When the schema does not yet carry
// the classification columns, the insert is retried once without
// doc_type/doc_type_source/classification_path; the financial fields are
// never dropped.
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	err := r.insert(ctx, e, true)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		r.logger.Warn("Expense schema lacks classification columns, retrying with reduced field set",
			zap.String("column", pgErr.ColumnName),
		)
		return r.insert(ctx, e, false)
	}
	return err
}

func (r *ExpenseRepository) insert(ctx context.Context, e *models.Expense, withClassification bool) error {
	columns := []string{
		"id", "user_id", "employee_id", "account_id", "project_code_id", "category_id",
		"receipt_file_id", "vendor", "expense_date", "amount_net", "tax_vat", "amount_gross",
		"currency", "payment_method", "notes", "source", "hash_dedupe", "status",
		"invoice_number", "company_tax_id", "company_address", "company_email",
		"created_at", "updated_at",
	}
	values := []any{
		e.ID, e.UserID, e.EmployeeID, e.AccountID, e.ProjectCodeID, e.CategoryID,
		e.ReceiptFileID, e.Vendor, e.ExpenseDate, e.AmountNet, e.TaxVAT, e.AmountGross,
		e.Currency, e.PaymentMethod, e.Notes, e.Source, e.HashDedupe, e.Status,
		e.InvoiceNumber, e.CompanyTaxID, e.CompanyAddress, e.CompanyEmail,
		e.CreatedAt, e.UpdatedAt,
	}
	if withClassification {
		columns = append(columns, "doc_type", "doc_type_source", "classification_path")
		values = append(values, e.DocType, e.DocTypeSource, e.ClassificationPath)
	}

	query := squirrel.Insert("expenses").
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// CountForAccountBetween counts expenses of an account with expense_date in
// [from, to). Used for the monthly quota check.
func (r *ExpenseRepository) CountForAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int, error) {
	query := squirrel.Select("COUNT(*)").
		From("expenses").
		Where(squirrel.Eq{"account_id": accountID}).
		Where(squirrel.GtOrEq{"expense_date": from}).
		Where(squirrel.Lt{"expense_date": to}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ExpenseRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.Expense, error) {
	query := squirrel.Select(
		"id", "user_id", "employee_id", "account_id", "project_code_id", "category_id",
		"receipt_file_id", "vendor", "expense_date", "amount_net", "tax_vat", "amount_gross",
		"currency", "payment_method", "notes", "source", "hash_dedupe", "status",
		"doc_type", "doc_type_source", "classification_path",
		"invoice_number", "company_tax_id", "company_address", "company_email",
		"created_at", "updated_at",
	).
		From("expenses").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.EmployeeID, &e.AccountID, &e.ProjectCodeID, &e.CategoryID,
			&e.ReceiptFileID, &e.Vendor, &e.ExpenseDate, &e.AmountNet, &e.TaxVAT, &e.AmountGross,
			&e.Currency, &e.PaymentMethod, &e.Notes, &e.Source, &e.HashDedupe, &e.Status,
			&e.DocType, &e.DocTypeSource, &e.ClassificationPath,
			&e.InvoiceNumber, &e.CompanyTaxID, &e.CompanyAddress, &e.CompanyEmail,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		expenses = append(expenses, &e)
	}

	return expenses, rows.Err()
}
