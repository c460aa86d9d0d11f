package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Synonym tables: for each canonical field, the payload keys that may carry
// it, in resolution order. Dotted keys descend into nested objects.
var (
	vendorKeys   = []string{"vendor", "merchant", "commerce", "company", "company_name"}
	dateKeys     = []string{"expense_date", "date", "purchase_date", "invoice_date"}
	grossKeys    = []string{"amount_gross", "amount_total", "total", "total_amount", "amount"}
	netKeys      = []string{"amount_net", "net"}
	vatKeys      = []string{"tax_vat", "vat", "tax", "iva"}
	currencyKeys = []string{"currency", "currency_code"}
	notesKeys    = []string{"notes", "comment", "description"}
	categoryKeys = []string{"category_guess", "category_suggestion", "category"}
	invoiceKeys  = []string{"invoice_number", "invoiceNo", "invoice_no", "n_factura"}
	taxIDKeys    = []string{"tax_id", "cif", "nif", "vat_id", "company_tax_id"}
	sellerKeys   = []string{"seller_tax_id", "vendor_tax_id", "company_tax_id", "issuer_tax_id", "emisor_tax_id", "emisor.nif", "emisor.cif"}
	buyerKeys    = []string{"buyer_tax_id", "customer_tax_id", "client_tax_id", "receptor_tax_id", "cliente.nif", "cliente.cif"}
	addressKeys  = []string{"address", "company_address"}
	emailKeys    = []string{"email", "company_email"}
	paymentKeys  = []string{"payment_method", "payment_method_guess"}
	keywordKeys  = []string{"detected_keywords", "keywords"}
	ocrKeys      = []string{"ocr_text", "raw_text", "full_text"}
	kindKeys     = []string{"type", "kind"}
)

// Normalize maps an arbitrarily-shaped extraction payload onto canonical
// expense fields. It is total: unknown shapes degrade to absent fields,
// never to an error. When the payload nests the extraction under a "data"
// key, that object is used as the source.
func Normalize(raw map[string]any) Fields {
	src := raw
	if data, ok := raw["data"].(map[string]any); ok {
		src = data
	}

	gross, grossOK := parseAmount(pickField(src, grossKeys...))
	net, netOK := parseAmount(pickField(src, netKeys...))
	vat, vatOK := parseAmount(pickField(src, vatKeys...))

	// Amount invariant, settled in integer cents: derive whichever of
	// gross/net is missing from the other two, then default to zero.
	switch {
	case !grossOK && netOK && vatOK:
		gross = net + vat
		grossOK = true
	case !netOK && grossOK && vatOK:
		net = gross - vat
		netOK = true
	}
	if !grossOK {
		gross = 0
	}
	if !netOK {
		net = 0
	}
	if !vatOK {
		vat = 0
	}

	currency := strings.ToUpper(pickString(src, currencyKeys...))
	if currency == "" {
		currency = "EUR"
	}

	f := Fields{
		Vendor:         pickString(src, vendorKeys...),
		ExpenseDate:    toISODate(pickField(src, dateKeys...)),
		AmountGross:    gross,
		AmountNet:      net,
		TaxVAT:         vat,
		Currency:       currency,
		InvoiceNumber:  pickString(src, invoiceKeys...),
		SellerTaxID:    pickString(src, sellerKeys...),
		BuyerTaxID:     pickString(src, buyerKeys...),
		TaxID:          pickString(src, taxIDKeys...),
		CompanyAddress: pickString(src, addressKeys...),
		CompanyEmail:   pickString(src, emailKeys...),
		PaymentMethod:  pickString(src, paymentKeys...),
		CategoryGuess:  pickString(src, categoryKeys...),
		Notes:          pickString(src, notesKeys...),
		DetectedKeywords: toStringSlice(pickField(src, keywordKeys...)),
		OCRText:        pickString(src, ocrKeys...),
	}
	if f.SellerTaxID == "" {
		f.SellerTaxID = f.TaxID
	}

	f.KindHint = inferKind(src, f)
	return f
}

// inferKind is the pre-classification hint: any invoice number or tax
// identifier defaults the document to invoice, otherwise the payload's own
// type marker is respected.
func inferKind(src map[string]any, f Fields) DocType {
	if f.InvoiceNumber != "" || f.TaxID != "" || f.SellerTaxID != "" || f.BuyerTaxID != "" {
		return DocTypeInvoice
	}
	switch strings.ToUpper(pickString(src, kindKeys...)) {
	case "FACTURA", "INVOICE":
		return DocTypeInvoice
	}
	return DocTypeReceipt
}

// pickField resolves the first present, non-null, non-empty value among the
// given keys. A key containing dots walks nested objects.
func pickField(src map[string]any, keys ...string) any {
	for _, key := range keys {
		var cur any = src
		for _, part := range strings.Split(key, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = m[part]
		}
		if cur == nil {
			continue
		}
		if s, ok := cur.(string); ok && s == "" {
			continue
		}
		return cur
	}
	return nil
}

func pickString(src map[string]any, keys ...string) string {
	v := pickField(src, keys...)
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

var amountJunkPattern = regexp.MustCompile(`[^0-9,.\-]`)

// parseAmount parses a locale-ambiguous numeric value into cents. When both
// separators appear, the one further right is the decimal separator; a lone
// comma is decimal. Unparseable values are absent, not zero.
func parseAmount(v any) (Cents, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return CentsFromFloat(t), true
	case int:
		return Cents(t) * 100, true
	case int64:
		return Cents(t) * 100, true
	}

	s := amountJunkPattern.ReplaceAllString(strings.TrimSpace(fmt.Sprintf("%v", v)), "")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > -1 && lastDot > -1:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma > -1:
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return CentsFromFloat(f), true
}

var (
	isoDatePattern = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	euDatePattern  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

	genericDateLayouts = []string{
		"2006-01-02", "02.01.2006", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		time.RFC3339,
	}
)

// toISODate normalizes a date value to zero-padded YYYY-MM-DD. An empty
// result means the date is unknown; callers must never treat it as epoch.
func toISODate(v any) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "" {
		return ""
	}
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + pad(m[2]) + "-" + pad(m[3])
	}
	if m := euDatePattern.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + pad(m[2]) + "-" + pad(m[1])
	}
	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
