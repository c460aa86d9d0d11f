package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the billing account expenses are registered against.
// MonthlyExpenseLimit is the plan ceiling on submissions per calendar
// month; nil means unlimited.
type Account struct {
	ID                     uuid.UUID `db:"id"`
	Name                   string    `db:"name"`
	MonthlyExpenseLimit    *int      `db:"monthly_expense_limit"`
	CanAddCustomCategories bool      `db:"can_add_custom_categories"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}
