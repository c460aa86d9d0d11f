package pipeline_test

import (
	"testing"

	"gastoscan/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSynonymResolution(t *testing.T) {
	raw := map[string]any{
		"merchant":     "Acme SL",
		"invoice_date": "15/03/2024",
		"total":        "1.234,56",
		"iva":          "214,26",
		"vat_id":       "B75977868",
		"invoiceNo":    "FAC-2024-31",
		"keywords":     []any{"invoice", "vat"},
		"raw_text":     "FACTURA FAC-2024-31",
	}

	f := pipeline.Normalize(raw)

	assert.Equal(t, "Acme SL", f.Vendor)
	assert.Equal(t, "2024-03-15", f.ExpenseDate)
	assert.Equal(t, pipeline.Cents(123456), f.AmountGross)
	assert.Equal(t, pipeline.Cents(21426), f.TaxVAT)
	assert.Equal(t, "EUR", f.Currency)
	assert.Equal(t, "FAC-2024-31", f.InvoiceNumber)
	assert.Equal(t, "B75977868", f.TaxID)
	assert.Equal(t, []string{"invoice", "vat"}, f.DetectedKeywords)
	assert.Equal(t, "FACTURA FAC-2024-31", f.OCRText)
	assert.Equal(t, pipeline.DocTypeInvoice, f.KindHint)
}

func TestNormalizeNestedPayload(t *testing.T) {
	raw := map[string]any{
		"data": map[string]any{
			"vendor": "Acme SL",
			"emisor": map[string]any{"nif": "B75977868"},
			"cliente": map[string]any{
				"cif": "78222262K",
			},
		},
	}

	f := pipeline.Normalize(raw)

	assert.Equal(t, "Acme SL", f.Vendor)
	assert.Equal(t, "B75977868", f.SellerTaxID)
	assert.Equal(t, "78222262K", f.BuyerTaxID)
}

func TestNormalizeAmountInvariant(t *testing.T) {
	t.Run("gross derived from net plus vat without drift", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{
			"amount_net": 10.00,
			"tax_vat":    2.10,
		})
		assert.Equal(t, pipeline.Cents(1210), f.AmountGross)
		assert.Equal(t, 12.10, f.AmountGross.Float64())
	})

	t.Run("net derived from gross minus vat", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{
			"amount_gross": "12,10",
			"tax_vat":      "2,10",
		})
		assert.Equal(t, pipeline.Cents(1000), f.AmountNet)
	})

	t.Run("everything absent defaults to zero", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{"vendor": "bar"})
		assert.Equal(t, pipeline.Cents(0), f.AmountGross)
		assert.Equal(t, pipeline.Cents(0), f.AmountNet)
		assert.Equal(t, pipeline.Cents(0), f.TaxVAT)
	})

	t.Run("unparseable amount resolves to absent, gross falls back", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{
			"total":      "N/A",
			"amount_net": "40,00",
			"tax_vat":    "8,40",
		})
		assert.Equal(t, pipeline.Cents(4840), f.AmountGross)
	})

	t.Run("every vat synonym resolves, unknown keys do not", func(t *testing.T) {
		for _, key := range []string{"tax_vat", "vat", "tax", "iva"} {
			f := pipeline.Normalize(map[string]any{
				"total": "121,00",
				key:     "21,00",
			})
			assert.Equal(t, pipeline.Cents(2100), f.TaxVAT, "key %q", key)
			assert.Equal(t, pipeline.Cents(10000), f.AmountNet, "key %q", key)
		}

		f := pipeline.Normalize(map[string]any{
			"total":      "121,00",
			"tax_amount": "21,00",
		})
		assert.Equal(t, pipeline.Cents(0), f.TaxVAT)
		assert.Equal(t, pipeline.Cents(12100), f.AmountNet)
	})
}

func TestNormalizeNumericFormats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want pipeline.Cents
	}{
		{"plain float", 45.9, 4590},
		{"dot decimal", "45.90", 4590},
		{"comma decimal", "45,90", 4590},
		{"european thousands", "1.234,56", 123456},
		{"us thousands", "1,234.56", 123456},
		{"currency symbol stripped", "€ 45,90", 4590},
		{"negative", "-12.50", -1250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pipeline.Normalize(map[string]any{"amount_gross": tt.in})
			assert.Equal(t, tt.want, f.AmountGross)
		})
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso", "2024-03-15", "2024-03-15"},
		{"iso unpadded", "2024-3-5", "2024-03-05"},
		{"iso slashes", "2024/03/15", "2024-03-15"},
		{"european", "15-03-2024", "2024-03-15"},
		{"european slashes", "15/3/2024", "2024-03-15"},
		{"generic layout", "Mar 15, 2024", "2024-03-15"},
		{"garbage yields unknown", "mañana", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pipeline.Normalize(map[string]any{"expense_date": tt.in})
			assert.Equal(t, tt.want, f.ExpenseDate)
		})
	}
}

func TestNormalizeKindHint(t *testing.T) {
	t.Run("invoice number forces invoice hint", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{"invoice_number": "F253282", "type": "TICKET"})
		assert.Equal(t, pipeline.DocTypeInvoice, f.KindHint)
	})

	t.Run("tax id forces invoice hint", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{"cif": "B75977868"})
		assert.Equal(t, pipeline.DocTypeInvoice, f.KindHint)
	})

	t.Run("payload marker respected otherwise", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{"type": "FACTURA"})
		assert.Equal(t, pipeline.DocTypeInvoice, f.KindHint)
	})

	t.Run("defaults to receipt", func(t *testing.T) {
		f := pipeline.Normalize(map[string]any{"vendor": "Bar Pepe"})
		assert.Equal(t, pipeline.DocTypeReceipt, f.KindHint)
	})
}

func TestNormalizeNeverPanicsOnHostilePayloads(t *testing.T) {
	payloads := []map[string]any{
		nil,
		{},
		{"data": "not an object"},
		{"vendor": 42, "amount_gross": []any{"x"}, "expense_date": true},
		{"data": map[string]any{"emisor": "flat string"}},
		{"detected_keywords": "not-an-array"},
	}
	for _, p := range payloads {
		assert.NotPanics(t, func() { pipeline.Normalize(p) })
	}
}
