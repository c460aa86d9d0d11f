package models

import (
	"time"

	"gastoscan/internal/pipeline"

	"github.com/google/uuid"
)

type ExpenseStatus string

const (
	ExpenseStatusSubmitted ExpenseStatus = "SUBMITTED"
	ExpenseStatusApproved  ExpenseStatus = "APPROVED"
	ExpenseStatusRejected  ExpenseStatus = "REJECTED"
)

type ExpenseSource string

const (
	ExpenseSourceAIExtracted ExpenseSource = "AI_EXTRACTED"
	ExpenseSourceManual      ExpenseSource = "MANUAL"
)

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// Expense is the finalized record handed to persistence. DocType,
// DocTypeSource and ClassificationPath are the newer classification columns;
// the repository drops them on a compatibility retry when the schema does
// not have them yet.
type Expense struct {
	ID            uuid.UUID     `db:"id"`
	UserID        uuid.UUID     `db:"user_id"`
	EmployeeID    uuid.UUID     `db:"employee_id"`
	AccountID     uuid.UUID     `db:"account_id"`
	ProjectCodeID *uuid.UUID    `db:"project_code_id"`
	CategoryID    uuid.UUID     `db:"category_id"`
	ReceiptFileID *uuid.UUID    `db:"receipt_file_id"`
	Vendor        string        `db:"vendor"`
	ExpenseDate   time.Time     `db:"expense_date"`
	AmountNet     float64       `db:"amount_net"`
	TaxVAT        float64       `db:"tax_vat"`
	AmountGross   float64       `db:"amount_gross"`
	Currency      string        `db:"currency"`
	PaymentMethod PaymentMethod `db:"payment_method"`
	Notes         string        `db:"notes"`
	Source        ExpenseSource `db:"source"`
	HashDedupe    string        `db:"hash_dedupe"`
	Status        ExpenseStatus `db:"status"`

	DocType            pipeline.DocType `db:"doc_type"`
	DocTypeSource      pipeline.Source  `db:"doc_type_source"`
	ClassificationPath pipeline.Path    `db:"classification_path"`

	// Invoice-only companion fields, null for receipts.
	InvoiceNumber  *string `db:"invoice_number"`
	CompanyTaxID   *string `db:"company_tax_id"`
	CompanyAddress *string `db:"company_address"`
	CompanyEmail   *string `db:"company_email"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
