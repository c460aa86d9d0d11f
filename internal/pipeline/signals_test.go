package pipeline_test

import (
	"testing"

	"gastoscan/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestExtractInvoiceNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"factura with hash", "FACTURA #F253282", "F253282"},
		{"factura with nummer sign", "Factura Nº 2024/0031", "2024/0031"},
		{"factura no dot", "factura no. A-771", "A-771"},
		{"invoice number", "Invoice Number INV-0099", "INV-0099"},
		{"invoice no", "INVOICE NO. 2023-44", "2023-44"},
		{"multiline whitespace", "FACTURA\n  #\tF253282", "F253282"},
		{"first match wins", "Factura #A1B2 ... Invoice No. C3D4", "A1B2"},
		{"token without digits rejected", "FACTURA PROFORMA", ""},
		{"no marker", "Total 12,30 EUR gracias por su visita", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.ExtractInvoiceNumber(tt.text))
		})
	}
}

func TestExtractTaxIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "cif and nif",
			text: "Emisor CIF B75977868 — Cliente 78222262K",
			want: []string{"B75977868", "78222262K"},
		},
		{
			name: "nie",
			text: "titular X1234567L",
			want: []string{"X1234567L"},
		},
		{
			name: "separated digits are joined",
			text: "CIF: B-75.977.868",
			want: []string{"B75977868"},
		},
		{
			name: "registry ledger reference is stripped",
			text: "Inscrita en el Registro Mercantil, Hoja B-630518",
			want: nil,
		},
		{
			name: "ledger stripped but real id kept",
			text: "Hoja B-630518, CIF B75977868",
			want: []string{"B75977868", "CIFB75977868"},
		},
		{
			name: "too short candidates are dropped",
			text: "ref A123",
			want: nil,
		},
		{
			name: "letters only rejected",
			text: "ABCDEFGHIJ",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.ExtractTaxIDs(tt.text))
		})
	}
}

func TestIsLikelyTaxID(t *testing.T) {
	valid := []string{
		"B75977868",    // CIF
		"78222262K",    // NIF
		"X1234567L",    // NIE
		"ESB75977868",  // VAT with country prefix
		"ESX12345678Z", // VAT, longer suffix
	}
	for _, id := range valid {
		assert.True(t, pipeline.IsLikelyTaxID(id), id)
	}

	invalid := []string{
		"",
		"B759778",          // too short
		"B759778689999999", // too long
		"123456789",        // digits only
		"ABCDEFGHI",        // letters only
		"ESABCDEFGH",       // VAT suffix without digits
		"ESABCDEF12",       // VAT without an early digit in the suffix
	}
	for _, id := range invalid {
		assert.False(t, pipeline.IsLikelyTaxID(id), id)
	}
}

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "B75977868", pipeline.NormalizeTaxID(" b-75.977/868 "))
	assert.Equal(t, "78222262K", pipeline.NormalizeTaxID("78222262-k"))
	assert.Equal(t, "", pipeline.NormalizeTaxID("   "))
}

func TestInferKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"factura", "FACTURA emitida el 2024-01-01", []string{"invoice"}},
		{"invoice and vat", "Invoice total, VAT included", []string{"invoice", "vat"}},
		{"nif marker", "NIF: B75977868", []string{"nif"}},
		{"compound number phrase", "invoice no. 44", []string{"invoice", "invoice_number"}},
		{"iva", "IVA 21%", []string{"vat"}},
		{"nothing", "gracias por su compra", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.InferKeywords(tt.text))
		})
	}
}

func TestContainsSimplifiedInvoiceMarker(t *testing.T) {
	assert.True(t, pipeline.ContainsSimplifiedInvoiceMarker("FACTURA SIMPLIFICADA Nº 5"))
	assert.True(t, pipeline.ContainsSimplifiedInvoiceMarker("This is a Simplified Invoice"))
	assert.False(t, pipeline.ContainsSimplifiedInvoiceMarker("FACTURA #F253282"))
	assert.False(t, pipeline.ContainsSimplifiedInvoiceMarker(""))
}
