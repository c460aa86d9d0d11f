package pipeline

import "strings"

// Signals is the combined input of the classification ladder: explicit
// field values plus the recognized free text they can be backfilled from.
type Signals struct {
	SellerTaxID   string
	BuyerTaxID    string
	InvoiceNumber string
	Keywords      []string
	OCRText       string
}

// SignalsFromFields assembles classification signals out of canonical
// fields, falling back to the generic tax id for the seller side.
func SignalsFromFields(f Fields) Signals {
	seller := f.SellerTaxID
	if seller == "" {
		seller = f.TaxID
	}
	return Signals{
		SellerTaxID:   seller,
		BuyerTaxID:    f.BuyerTaxID,
		InvoiceNumber: f.InvoiceNumber,
		Keywords:      f.DetectedKeywords,
		OCRText:       f.OCRText,
	}
}

// Classify runs the priority-ordered rule ladder. The first matching rule
// wins and stamps its audit path onto the result. The ladder is pure and
// total: every signal set reaches exactly one outcome.
//
//	marker "factura simplificada"            -> receipt, R4
//	two distinct validated tax ids           -> invoice, R1
//	invoice number + seller tax id           -> invoice, R2
//	invoice number + invoice-type keyword    -> invoice, R3
//	invoice number + any tax id              -> invoice, R3
//	invoice-type keyword + any tax id        -> invoice, R3
//	otherwise                                -> receipt, R4
func Classify(sig Signals) Classification {
	invoiceNumber := strings.ToUpper(strings.TrimSpace(sig.InvoiceNumber))
	if invoiceNumber == "" {
		invoiceNumber = ExtractInvoiceNumber(sig.OCRText)
	}

	// Field ids first, then text-extracted ids: the first id in this order
	// is the assumed seller for R2.
	var allIDs []string
	seen := make(map[string]bool)
	appendID := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			allIDs = append(allIDs, id)
		}
	}
	appendID(NormalizeTaxID(sig.SellerTaxID))
	appendID(NormalizeTaxID(sig.BuyerTaxID))
	for _, id := range ExtractTaxIDs(sig.OCRText) {
		appendID(id)
	}

	if ContainsSimplifiedInvoiceMarker(sig.OCRText) {
		return Classification{SuggestedType: DocTypeReceipt, Path: PathFallback}
	}

	if len(allIDs) >= 2 {
		return Classification{SuggestedType: DocTypeInvoice, Path: PathTwoTaxIDs}
	}

	sellerID := ""
	if len(allIDs) > 0 {
		sellerID = allIDs[0]
	}

	kw := make(map[string]bool)
	for _, k := range sig.Keywords {
		kw[strings.ToLower(k)] = true
	}
	for _, k := range InferKeywords(sig.OCRText) {
		kw[k] = true
	}
	invoiceish := kw["invoice"] || kw["invoice_number"]

	if invoiceNumber != "" && sellerID != "" {
		return Classification{SuggestedType: DocTypeInvoice, Path: PathNumberPlusSeller}
	}
	if invoiceNumber != "" && invoiceish {
		return Classification{SuggestedType: DocTypeInvoice, Path: PathHeuristic}
	}
	if invoiceNumber != "" && len(allIDs) >= 1 {
		return Classification{SuggestedType: DocTypeInvoice, Path: PathHeuristic}
	}
	if invoiceish && len(allIDs) >= 1 {
		return Classification{SuggestedType: DocTypeInvoice, Path: PathHeuristic}
	}

	return Classification{SuggestedType: DocTypeReceipt, Path: PathFallback}
}

// Finalize merges the automatic suggestion with an optional human override.
// The classification path is copied verbatim in both branches: it records
// why the engine thought what it thought, independent of who made the
// final call.
func Finalize(c Classification, userChoice *DocType) Finalized {
	if userChoice != nil {
		return Finalized{DocType: *userChoice, Source: SourceUser, Path: c.Path}
	}
	return Finalized{DocType: c.SuggestedType, Source: SourceAutomatic, Path: c.Path}
}
