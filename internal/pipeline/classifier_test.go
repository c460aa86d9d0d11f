package pipeline_test

import (
	"testing"

	"gastoscan/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		signals  pipeline.Signals
		wantType pipeline.DocType
		wantPath pipeline.Path
	}{
		{
			name: "two tax ids dominate",
			signals: pipeline.Signals{
				InvoiceNumber: "F253282",
				SellerTaxID:   "B75977868",
				BuyerTaxID:    "78222262K",
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathTwoTaxIDs,
		},
		{
			name: "two ids win regardless of keywords",
			signals: pipeline.Signals{
				SellerTaxID: "B75977868",
				BuyerTaxID:  "78222262K",
				Keywords:    []string{"invoice"},
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathTwoTaxIDs,
		},
		{
			name: "invoice number plus seller id",
			signals: pipeline.Signals{
				InvoiceNumber: "INV-0099",
				SellerTaxID:   "B75977868",
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathNumberPlusSeller,
		},
		{
			name: "simplified invoice marker overrides everything",
			signals: pipeline.Signals{
				InvoiceNumber: "F253282",
				SellerTaxID:   "B75977868",
				BuyerTaxID:    "78222262K",
				OCRText:       "Factura simplificada nº 5",
			},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
		{
			name: "english simplified marker",
			signals: pipeline.Signals{
				InvoiceNumber: "INV-1",
				SellerTaxID:   "B75977868",
				OCRText:       "SIMPLIFIED INVOICE no. 1",
			},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
		{
			name: "invoice number plus keyword, no id",
			signals: pipeline.Signals{
				InvoiceNumber: "FAC-2024-001",
				Keywords:      []string{"invoice"},
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathHeuristic,
		},
		{
			name: "keyword plus single id",
			signals: pipeline.Signals{
				SellerTaxID: "B75977868",
				Keywords:    []string{"invoice"},
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathHeuristic,
		},
		{
			name:     "keyword alone is insufficient",
			signals:  pipeline.Signals{Keywords: []string{"invoice"}},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
		{
			name:     "single id alone is insufficient",
			signals:  pipeline.Signals{SellerTaxID: "B75977868"},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
		{
			name:     "empty signals fall back to receipt",
			signals:  pipeline.Signals{},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
		{
			name: "ids and number backfilled from text",
			signals: pipeline.Signals{
				OCRText: "FACTURA #F253282 emitida por Acme SL, CIF B75977868, cliente NIF 78222262K",
			},
			wantType: pipeline.DocTypeInvoice,
			wantPath: pipeline.PathTwoTaxIDs,
		},
		{
			name: "duplicate seller and buyer id count once",
			signals: pipeline.Signals{
				SellerTaxID: "B75977868",
				BuyerTaxID:  "b-759.778.68",
			},
			wantType: pipeline.DocTypeReceipt,
			wantPath: pipeline.PathFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pipeline.Classify(tt.signals)
			assert.Equal(t, tt.wantType, got.SuggestedType)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	sig := pipeline.Signals{
		InvoiceNumber: "INV-0099",
		SellerTaxID:   "B75977868",
		OCRText:       "Invoice No. INV-0099, VAT number ESB75977868",
	}
	first := pipeline.Classify(sig)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, pipeline.Classify(sig))
	}
}

func TestFinalize(t *testing.T) {
	cls := pipeline.Classification{
		SuggestedType: pipeline.DocTypeInvoice,
		Path:          pipeline.PathNumberPlusSeller,
	}

	t.Run("no override keeps the suggestion", func(t *testing.T) {
		got := pipeline.Finalize(cls, nil)
		assert.Equal(t, pipeline.SourceAutomatic, got.Source)
		assert.Equal(t, cls.SuggestedType, got.DocType)
		assert.Equal(t, cls.Path, got.Path)
	})

	t.Run("override wins but keeps the automatic path", func(t *testing.T) {
		choice := pipeline.DocTypeReceipt
		got := pipeline.Finalize(cls, &choice)
		assert.Equal(t, pipeline.SourceUser, got.Source)
		assert.Equal(t, pipeline.DocTypeReceipt, got.DocType)
		assert.Equal(t, pipeline.PathNumberPlusSeller, got.Path)
	})

	t.Run("agreeing override is still attributed to the user", func(t *testing.T) {
		choice := pipeline.DocTypeInvoice
		got := pipeline.Finalize(cls, &choice)
		assert.Equal(t, pipeline.SourceUser, got.Source)
		assert.Equal(t, pipeline.DocTypeInvoice, got.DocType)
	})
}
