// Package pipeline turns untrusted extraction payloads into canonical
// expense fields and a deterministic document-type decision. Everything in
// this package is pure computation: no I/O, no failure paths, same inputs
// always produce the same outputs.
package pipeline

import "math"

// DocType is the kind of purchase document.
type DocType string

const (
	DocTypeInvoice DocType = "invoice"
	DocTypeReceipt DocType = "receipt"
)

// Source records who made the final document-type call.
type Source string

const (
	SourceAutomatic Source = "automatic"
	SourceUser      Source = "user"
)

// Path identifies which rule of the classification ladder fired.
type Path string

const (
	PathTwoTaxIDs        Path = "R1"
	PathNumberPlusSeller Path = "R2"
	PathHeuristic        Path = "R3"
	PathFallback         Path = "R4"
)

// Cents is a monetary amount in minor currency units. Amounts are carried
// as integers so that gross = net + vat holds exactly at cent precision.
type Cents int64

// CentsFromFloat rounds a major-unit amount to the nearest cent.
func CentsFromFloat(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// Float64 converts back to major units.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// Fields is the canonical, fully-typed representation of one extracted
// expense document. Absent amounts are zero; an empty ExpenseDate means
// "unknown", never a zero date.
type Fields struct {
	Vendor      string
	ExpenseDate string // YYYY-MM-DD or ""
	AmountGross Cents
	AmountNet   Cents
	TaxVAT      Cents
	Currency    string

	InvoiceNumber  string
	SellerTaxID    string
	BuyerTaxID     string
	TaxID          string
	CompanyAddress string
	CompanyEmail   string

	PaymentMethod string
	CategoryGuess string
	Notes         string

	DetectedKeywords []string
	OCRText          string

	// KindHint is the pre-classification inference: a document carrying an
	// invoice number or a tax identifier defaults to invoice before the
	// rule ladder runs. It is a hint only, never the final decision.
	KindHint DocType
}

// Classification is the automatic engine's suggestion plus the audit tag of
// the rule that produced it.
type Classification struct {
	SuggestedType DocType
	Path          Path
}

// Finalized is the attributable outcome of merging the automatic suggestion
// with an optional human override. Path always reflects the automatic
// engine's reasoning, even when Source is SourceUser.
type Finalized struct {
	DocType DocType
	Source  Source
	Path    Path
}
