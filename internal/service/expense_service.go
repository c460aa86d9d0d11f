package service

import (
	"context"
	"fmt"
	"time"

	"gastoscan/internal/dto"
	"gastoscan/internal/models"
	"gastoscan/internal/pipeline"
	"gastoscan/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type expenseStore interface {
	Create(ctx context.Context, e *models.Expense) error
	CountForAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.Expense, error)
}

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type recognizer interface {
	Extract(ctx context.Context, req RecognitionRequest) (*RecognitionResult, error)
	ExtractLegacy(ctx context.Context, filePath, fileType string) (*RecognitionResult, error)
	FallbackEnabled() bool
}

// ExpenseService drives the two-step ingestion flow: Analyze turns an
// uploaded document into a reviewable draft, Submit persists the
// reviewed record.
type ExpenseService struct {
	expenses    expenseStore
	accounts    accountStore
	audit       auditStore
	storage     *StorageService
	recognition recognizer
	categories  *CategoryService
	logger      *zap.Logger
}

func NewExpenseService(
	expenses *repository.ExpenseRepository,
	accounts *repository.AccountRepository,
	audit *repository.AuditRepository,
	storage *StorageService,
	recognition *RecognitionClient,
	categories *CategoryService,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenses:    expenses,
		accounts:    accounts,
		audit:       audit,
		storage:     storage,
		recognition: recognition,
		categories:  categories,
		logger:      logger,
	}
}

// AnalyzeRequest is the upload plus its review context.
type AnalyzeRequest struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	FileName  string
	MimeType  string
	Data      []byte
	ProjectID string
	Notes     string
}

// Analyze stores the document, runs recognition, normalizes and
// classifies the extracted fields and resolves the proposed category.
// Nothing is persisted beyond the file itself; the caller reviews the
// draft and calls Submit.
func (s *ExpenseService) Analyze(ctx context.Context, req AnalyzeRequest) (*dto.AnalyzeExpenseResponse, error) {
	if len(req.Data) == 0 {
		return nil, stageFail("upload", ErrValidationFailed, fmt.Errorf("empty file"))
	}

	file, err := s.storage.Save(ctx, req.AccountID, req.UserID, req.Data, req.FileName, req.MimeType)
	if err != nil {
		return nil, stageFail("upload", ErrUploadFailed, err)
	}

	signedURL, err := s.storage.SignedURL(file)
	if err != nil {
		return nil, stageFail("signed_reference", ErrSignedReferenceFailed, err)
	}

	// Advisory only: a repeated upload is flagged, never rejected.
	duplicate, err := s.storage.FindDuplicate(ctx, file)
	if err != nil {
		s.logger.Warn("Duplicate lookup failed", zap.Error(err))
		duplicate = nil
	}

	var categoryNames []string
	if cats, err := s.categories.List(ctx, req.AccountID); err == nil {
		for _, c := range cats {
			categoryNames = append(categoryNames, c.Name)
		}
	} else {
		s.logger.Warn("Failed to list categories for recognition context", zap.Error(err))
	}

	result, err := s.recognition.Extract(ctx, RecognitionRequest{
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SignedURL:  signedURL,
		Data:       req.Data,
		AccountID:  req.AccountID.String(),
		ProjectID:  req.ProjectID,
		Notes:      req.Notes,
		Categories: categoryNames,
	})
	if err != nil && s.recognition.FallbackEnabled() {
		s.logger.Warn("Recognition failed, trying legacy endpoint", zap.Error(err))
		result, err = s.recognition.ExtractLegacy(ctx, file.StoragePath, req.MimeType)
	}
	if err != nil {
		return nil, stageFail("recognition", ErrRecognitionFailed, err)
	}

	fields := pipeline.Normalize(result.Extraction)
	if fields.OCRText == "" {
		fields.OCRText = result.RawText
	}

	classification := pipeline.Classify(pipeline.SignalsFromFields(fields))

	s.logger.Info("Document classified",
		zap.String("receipt_file_id", file.ID.String()),
		zap.String("suggested_type", string(classification.SuggestedType)),
		zap.String("classification_path", string(classification.Path)),
		zap.String("invoice_number", fields.InvoiceNumber),
		zap.Strings("keywords", fields.DetectedKeywords),
	)

	resolution, err := s.categories.Resolve(ctx, req.AccountID, fields.CategoryGuess)
	if err != nil {
		s.logger.Warn("Category resolution failed", zap.Error(err))
		resolution = &CategoryResolution{Outcome: CategoryMatchNeedsDecision, ProposedName: fields.CategoryGuess}
	}

	resp := &dto.AnalyzeExpenseResponse{
		ReceiptFileID: file.ID.String(),
		DedupKey:      file.HashDedupe,
		Fields:        fieldsToResponse(fields),
		Classification: dto.ClassificationResponse{
			SuggestedType: string(classification.SuggestedType),
			Path:          string(classification.Path),
		},
		Category: dto.CategoryResolutionResponse{
			Outcome:      resolution.Outcome,
			ProposedName: resolution.ProposedName,
		},
	}
	if duplicate != nil {
		resp.DuplicateOfReceiptFileID = duplicate.ID.String()
	}
	if resolution.Category != nil {
		resp.Category.CategoryID = resolution.Category.ID.String()
	}
	if result.Classification != nil {
		resp.Recognition = dto.RecognitionHint{
			Type:       result.Classification.Type,
			Reason:     result.Classification.Reason,
			Confidence: result.Classification.Confidence,
		}
	}
	return resp, nil
}

// Submit persists a reviewed expense: reconcile the document type,
// enforce the account's monthly quota, insert, then emit a best-effort
// audit event.
func (s *ExpenseService) Submit(ctx context.Context, accountID, userID uuid.UUID, req *dto.SubmitExpenseRequest) (*dto.ExpenseResponse, error) {
	expense, err := s.buildExpense(ctx, accountID, userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, accountID); err != nil {
		return nil, err
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, stageFail("persistence", ErrPersistenceFailed, err)
	}

	s.logger.Info("Expense submitted",
		zap.String("expense_id", expense.ID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("doc_type", string(expense.DocType)),
		zap.String("doc_type_source", string(expense.DocTypeSource)),
		zap.String("classification_path", string(expense.ClassificationPath)),
	)

	s.recordAudit(ctx, accountID, userID, expense)

	return expenseToResponse(expense), nil
}

func (s *ExpenseService) buildExpense(ctx context.Context, accountID, userID uuid.UUID, req *dto.SubmitExpenseRequest) (*models.Expense, error) {
	if req.Vendor == "" {
		return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("vendor is required"))
	}
	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("invalid expense_date %q", req.ExpenseDate))
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("invalid category_id"))
	}

	gross := pipeline.CentsFromFloat(req.AmountGross)
	net := pipeline.CentsFromFloat(req.AmountNet)
	vat := pipeline.CentsFromFloat(req.TaxVAT)
	switch {
	case gross == 0:
		gross = net + vat
	case net == 0:
		net = gross - vat
	case gross != net+vat:
		return nil, stageFail("validation", ErrValidationFailed,
			fmt.Errorf("amounts do not reconcile: gross %d != net %d + vat %d", gross, net, vat))
	}
	if gross == 0 {
		return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("amount is required"))
	}

	finalized := s.reconcile(req)

	now := time.Now()
	expense := &models.Expense{
		ID:                 uuid.New(),
		UserID:             userID,
		EmployeeID:         userID,
		AccountID:          accountID,
		CategoryID:         categoryID,
		Vendor:             sanitizeUTF8(req.Vendor),
		ExpenseDate:        expenseDate,
		AmountNet:          net.Float64(),
		TaxVAT:             vat.Float64(),
		AmountGross:        gross.Float64(),
		Currency:           req.Currency,
		PaymentMethod:      models.PaymentMethod(req.PaymentMethod),
		Notes:              sanitizeUTF8(req.Notes),
		Source:             models.ExpenseSourceManual,
		Status:             models.ExpenseStatusSubmitted,
		DocType:            finalized.DocType,
		DocTypeSource:      finalized.Source,
		ClassificationPath: finalized.Path,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if expense.Currency == "" {
		expense.Currency = "EUR"
	}

	if req.EmployeeID != "" {
		if employeeID, err := uuid.Parse(req.EmployeeID); err == nil {
			expense.EmployeeID = employeeID
		}
	}
	if req.ProjectCodeID != "" {
		projectCodeID, err := uuid.Parse(req.ProjectCodeID)
		if err != nil {
			return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("invalid project_code_id"))
		}
		expense.ProjectCodeID = &projectCodeID
	}

	if req.ReceiptFileID != "" {
		fileID, err := uuid.Parse(req.ReceiptFileID)
		if err != nil {
			return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("invalid receipt_file_id"))
		}
		file, err := s.storage.files.GetByID(ctx, fileID)
		if err != nil {
			return nil, stageFail("validation", ErrValidationFailed, fmt.Errorf("receipt file not found: %w", err))
		}
		if file.AccountID != accountID {
			return nil, ErrForbidden
		}
		expense.ReceiptFileID = &file.ID
		expense.HashDedupe = file.HashDedupe
		expense.Source = models.ExpenseSourceAIExtracted
	}

	// Invoice companion fields stay null on receipts.
	if finalized.DocType == pipeline.DocTypeInvoice {
		expense.InvoiceNumber = optional(req.InvoiceNumber)
		expense.CompanyTaxID = optional(firstNonEmpty(req.CompanyTaxID, req.SellerTaxID))
		expense.CompanyAddress = optional(req.CompanyAddress)
		expense.CompanyEmail = optional(req.CompanyEmail)
	}

	return expense, nil
}

// reconcile replays the automatic suggestion against the reviewer's
// choice. When the submit payload does not echo a classification, the
// signals are re-derived from the submitted fields.
func (s *ExpenseService) reconcile(req *dto.SubmitExpenseRequest) pipeline.Finalized {
	var classification pipeline.Classification
	if req.Classification != nil && req.Classification.Path != "" {
		classification = pipeline.Classification{
			SuggestedType: pipeline.DocType(req.Classification.SuggestedType),
			Path:          pipeline.Path(req.Classification.Path),
		}
	} else {
		classification = pipeline.Classify(pipeline.Signals{
			SellerTaxID:   req.SellerTaxID,
			BuyerTaxID:    req.BuyerTaxID,
			InvoiceNumber: req.InvoiceNumber,
			Keywords:      req.Keywords,
			OCRText:       req.OCRText,
		})
	}

	var override *pipeline.DocType
	if req.DocTypeOverride != "" {
		docType := pipeline.DocType(req.DocTypeOverride)
		override = &docType
	}
	return pipeline.Finalize(classification, override)
}

// checkQuota counts the account's expenses in the current calendar month
// against the plan ceiling. The window follows the clock, not the
// submitted expense date, so backdated submissions still consume this
// month's allowance. The count and the insert are not atomic; a
// concurrent submit can land one past the limit, which the plan
// tolerates.
func (s *ExpenseService) checkQuota(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return stageFail("quota", ErrPersistenceFailed, fmt.Errorf("account not found: %w", err))
	}
	if account.MonthlyExpenseLimit == nil {
		return nil
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	count, err := s.expenses.CountForAccountBetween(ctx, accountID, monthStart, nextMonth)
	if err != nil {
		return stageFail("quota", ErrPersistenceFailed, err)
	}
	if count >= *account.MonthlyExpenseLimit {
		return stageFail("quota", ErrQuotaExceeded,
			fmt.Errorf("%d of %d expenses used for %s", count, *account.MonthlyExpenseLimit, monthStart.Format("2006-01")))
	}
	return nil
}

func (s *ExpenseService) recordAudit(ctx context.Context, accountID, userID uuid.UUID, expense *models.Expense) {
	entry := &models.AuditLog{
		ID:          uuid.New(),
		AccountID:   accountID,
		ActorUserID: userID,
		Action:      "expense.submitted",
		Entity:      "expense",
		EntityID:    expense.ID,
		Metadata: map[string]any{
			"doc_type":            string(expense.DocType),
			"doc_type_source":     string(expense.DocTypeSource),
			"classification_path": string(expense.ClassificationPath),
			"amount_gross":        expense.AmountGross,
			"currency":            expense.Currency,
		},
		CreatedAt: time.Now(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit log", zap.Error(err), zap.String("expense_id", expense.ID.String()))
	}
}

// List returns the account's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*dto.ExpenseResponse, error) {
	expenses, err := s.expenses.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = expenseToResponse(e)
	}
	return responses, nil
}

func fieldsToResponse(f pipeline.Fields) dto.ExtractedFieldsResponse {
	return dto.ExtractedFieldsResponse{
		Vendor:         f.Vendor,
		ExpenseDate:    f.ExpenseDate,
		AmountNet:      f.AmountNet.Float64(),
		TaxVAT:         f.TaxVAT.Float64(),
		AmountGross:    f.AmountGross.Float64(),
		Currency:       f.Currency,
		InvoiceNumber:  f.InvoiceNumber,
		SellerTaxID:    f.SellerTaxID,
		BuyerTaxID:     f.BuyerTaxID,
		CompanyAddress: f.CompanyAddress,
		CompanyEmail:   f.CompanyEmail,
		PaymentMethod:  f.PaymentMethod,
		CategoryGuess:  f.CategoryGuess,
		Notes:          f.Notes,
		Keywords:       f.DetectedKeywords,
		OCRText:        f.OCRText,
	}
}

func expenseToResponse(e *models.Expense) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:                 e.ID.String(),
		Vendor:             e.Vendor,
		ExpenseDate:        e.ExpenseDate.Format("2006-01-02"),
		AmountNet:          e.AmountNet,
		TaxVAT:             e.TaxVAT,
		AmountGross:        e.AmountGross,
		Currency:           e.Currency,
		CategoryID:         e.CategoryID.String(),
		Status:             string(e.Status),
		DocType:            string(e.DocType),
		DocTypeSource:      string(e.DocTypeSource),
		ClassificationPath: string(e.ClassificationPath),
		DedupKey:           e.HashDedupe,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
