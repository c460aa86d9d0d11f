package dto

// ClassificationResponse mirrors the automatic engine's suggestion for the
// review step. Path identifies the rule that fired (R1-R4).
type ClassificationResponse struct {
	SuggestedType string `json:"suggested_type"`
	Path          string `json:"classification_path"`
}

// RecognitionHint is the upstream service's own classification opinion,
// surfaced for display only; the rule ladder is authoritative.
type RecognitionHint struct {
	Type       string  `json:"type,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ExtractedFieldsResponse carries the canonical fields back to the review
// UI. Amounts are in major units, already settled at cent precision.
type ExtractedFieldsResponse struct {
	Vendor         string   `json:"vendor"`
	ExpenseDate    string   `json:"expense_date"`
	AmountNet      float64  `json:"amount_net"`
	TaxVAT         float64  `json:"tax_vat"`
	AmountGross    float64  `json:"amount_gross"`
	Currency       string   `json:"currency"`
	InvoiceNumber  string   `json:"invoice_number,omitempty"`
	SellerTaxID    string   `json:"seller_tax_id,omitempty"`
	BuyerTaxID     string   `json:"buyer_tax_id,omitempty"`
	CompanyAddress string   `json:"company_address,omitempty"`
	CompanyEmail   string   `json:"company_email,omitempty"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	CategoryGuess  string   `json:"category_guess,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Keywords       []string `json:"detected_keywords,omitempty"`
	OCRText        string   `json:"ocr_text,omitempty"`
}

// CategoryResolutionResponse reports how the proposed category name was
// resolved. Outcome "needs_decision" asks the reviewer to create the
// category, pick the fallback, or choose manually.
type CategoryResolutionResponse struct {
	Outcome      string `json:"outcome"` // exact | partial | fallback | needs_decision
	CategoryID   string `json:"category_id,omitempty"`
	ProposedName string `json:"proposed_name,omitempty"`
}

// AnalyzeExpenseResponse is the review draft. DuplicateOfReceiptFileID,
// when set, points at an earlier upload with byte-identical content; the
// review UI surfaces it as a warning, submission is not blocked.
type AnalyzeExpenseResponse struct {
	ReceiptFileID            string                     `json:"receipt_file_id"`
	DedupKey                 string                     `json:"dedup_key"`
	DuplicateOfReceiptFileID string                     `json:"duplicate_of_receipt_file_id,omitempty"`
	Fields                   ExtractedFieldsResponse    `json:"fields"`
	Classification           ClassificationResponse     `json:"classification"`
	Recognition              RecognitionHint            `json:"recognition_hint"`
	Category                 CategoryResolutionResponse `json:"category"`
}

// SubmitExpenseRequest is the reviewed record. Classification echoes what
// Analyze returned; DocTypeOverride, when set, is the human's final call.
type SubmitExpenseRequest struct {
	ReceiptFileID string `json:"receipt_file_id"`
	EmployeeID    string `json:"employee_id,omitempty"`
	ProjectCodeID string `json:"project_code_id,omitempty"`
	CategoryID    string `json:"category_id"`

	Vendor        string  `json:"vendor"`
	ExpenseDate   string  `json:"expense_date"`
	AmountNet     float64 `json:"amount_net"`
	TaxVAT        float64 `json:"tax_vat"`
	AmountGross   float64 `json:"amount_gross"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Notes         string  `json:"notes,omitempty"`

	InvoiceNumber  string `json:"invoice_number,omitempty"`
	CompanyTaxID   string `json:"company_tax_id,omitempty"`
	CompanyAddress string `json:"company_address,omitempty"`
	CompanyEmail   string `json:"company_email,omitempty"`

	SellerTaxID string   `json:"seller_tax_id,omitempty"`
	BuyerTaxID  string   `json:"buyer_tax_id,omitempty"`
	Keywords    []string `json:"detected_keywords,omitempty"`
	OCRText     string   `json:"ocr_text,omitempty"`

	Classification  *ClassificationResponse `json:"classification,omitempty"`
	DocTypeOverride string                  `json:"doc_type_override,omitempty"`
}

type ExpenseResponse struct {
	ID                 string  `json:"id"`
	Vendor             string  `json:"vendor"`
	ExpenseDate        string  `json:"expense_date"`
	AmountNet          float64 `json:"amount_net"`
	TaxVAT             float64 `json:"tax_vat"`
	AmountGross        float64 `json:"amount_gross"`
	Currency           string  `json:"currency"`
	CategoryID         string  `json:"category_id"`
	Status             string  `json:"status"`
	DocType            string  `json:"doc_type"`
	DocTypeSource      string  `json:"doc_type_source"`
	ClassificationPath string  `json:"classification_path"`
	DedupKey           string  `json:"hash_dedupe"`
	CreatedAt          string  `json:"created_at"`
}
