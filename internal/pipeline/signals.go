package pipeline

import (
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Invoice-number extraction: tolerant match on "FACTURA/INVOICE [nº/no./#]
// <token>" where the token must contain at least one digit.
var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bFACTURA\s*(?:N[ºO]\.?\s*)?#?\s*([A-Z0-9./\-]{3,})`),
	regexp.MustCompile(`(?i)\bINVOICE\s*(?:NO\.|NUMBER|#)?\s*([A-Z0-9./\-]{3,})`),
}

var digitPattern = regexp.MustCompile(`\d`)

// ExtractInvoiceNumber pulls an invoice-number candidate out of recognized
// free text. First match wins; "" when nothing plausible is found.
func ExtractInvoiceNumber(text string) string {
	if text == "" {
		return ""
	}
	t := whitespacePattern.ReplaceAllString(text, " ")
	for _, rx := range invoiceNumberPatterns {
		if m := rx.FindStringSubmatch(t); m != nil && digitPattern.MatchString(m[1]) {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// Registry-ledger references ("Hoja B-630518" from the Registro Mercantil)
// look exactly like CIF codes and must be removed before scanning.
var ledgerRefPattern = regexp.MustCompile(`(?i)\bHoja\s+B-?\d+\b`)

// Tax-identifier pattern families. Each carries a leading and trailing
// non-alphanumeric boundary so fragments of longer tokens never match.
var (
	cifScanPattern = regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])([A-HJ-NP-SU-W](?:[\s./\-]?\d){7}(?:[\s./\-]?[A-Z0-9])?)(?:[^A-Z0-9]|$)`)
	nifScanPattern = regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])((?:[XYZ](?:[\s./\-]?\d){7}|(?:\d[\s./\-]?){8})[\s./\-]?[A-Z])(?:[^A-Z0-9]|$)`)
	vatScanPattern = regexp.MustCompile(`(?i)(?:^|[^A-Z0-9])([A-Z]{2,3}(?:[\s./\-]?[0-9A-Z]){6,})(?:[^A-Z0-9]|$)`)
)

// Validated shapes after separator stripping.
var (
	cifShape = regexp.MustCompile(`^[A-HJ-NP-SU-W]\d{7}[0-9A-Z]$`)
	nifShape = regexp.MustCompile(`^\d{8}[A-Z]$`)
	nieShape = regexp.MustCompile(`^[XYZ]\d{7}[A-Z]$`)
	vatShape = regexp.MustCompile(`^[A-Z]{2,3}[0-9A-Z]{6,11}$`)

	vatThreeLetterPrefix = regexp.MustCompile(`^[A-Z]{3}`)
	taxIDSeparators      = regexp.MustCompile(`[\s./:\-]`)
)

// NormalizeTaxID uppercases a candidate and strips separators. Returns ""
// for empty input.
func NormalizeTaxID(v string) string {
	return taxIDSeparators.ReplaceAllString(strings.ToUpper(strings.TrimSpace(v)), "")
}

// IsLikelyTaxID validates a normalized candidate against the accepted
// identifier families: CIF, NIF, NIE and generic 2-3 letter VAT prefixes.
func IsLikelyTaxID(id string) bool {
	if len(id) < 8 || len(id) > 14 {
		return false
	}
	hasLetter := strings.IndexFunc(id, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0
	if !hasLetter || !digitPattern.MatchString(id) {
		return false
	}

	if cifShape.MatchString(id) || nifShape.MatchString(id) || nieShape.MatchString(id) {
		return true
	}

	if vatShape.MatchString(id) {
		prefixLen := 2
		if vatThreeLetterPrefix.MatchString(id) {
			prefixLen = 3
		}
		suffix := id[prefixLen:]
		digits := len(digitPattern.FindAllString(suffix, -1))
		early := suffix
		if len(early) > 5 {
			early = early[:5]
		}
		if digits >= 2 && digitPattern.MatchString(early) {
			return true
		}
	}
	return false
}

// ExtractTaxIDs scans recognized text for validated tax identifiers,
// deduplicated in first-seen order. Scan order is positional: the first
// extracted identifier becomes the assumed seller id downstream.
func ExtractTaxIDs(text string) []string {
	if text == "" {
		return nil
	}
	clean := ledgerRefPattern.ReplaceAllString(text, "")
	clean = strings.NewReplacer("(", " ", ")", " ").Replace(clean)

	var ids []string
	seen := make(map[string]bool)
	for _, rx := range []*regexp.Regexp{cifScanPattern, nifScanPattern, vatScanPattern} {
		for _, m := range rx.FindAllStringSubmatch(clean, -1) {
			id := NormalizeTaxID(m[1])
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	valid := ids[:0]
	for _, id := range ids {
		if IsLikelyTaxID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

// Keyword inference over recognized text. Token names are stable: the
// classifier checks for "invoice" and "invoice_number".
var keywordPatterns = []struct {
	name string
	rx   *regexp.Regexp
}{
	{"invoice", regexp.MustCompile(`(?i)\b(invoice|factura)\b`)},
	{"vat", regexp.MustCompile(`(?i)\b(vat|iva)\b`)},
	{"nif", regexp.MustCompile(`(?i)\b(nif|cif|nie|vat\s*id)\b`)},
	{"invoice_number", regexp.MustCompile(`(?i)\b(factura\s*(n[ºo]\.?|#)|invoice\s*(no\.|number|#))`)},
}

// InferKeywords derives topical keyword tokens from recognized text.
func InferKeywords(text string) []string {
	if text == "" {
		return nil
	}
	var kws []string
	for _, p := range keywordPatterns {
		if p.rx.MatchString(text) {
			kws = append(kws, p.name)
		}
	}
	return kws
}

// ContainsSimplifiedInvoiceMarker reports whether the text carries a
// simplified-invoice phrase, the strong negative signal checked before any
// other classification rule.
func ContainsSimplifiedInvoiceMarker(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "factura simplificada") ||
		strings.Contains(lower, "simplified invoice")
}
