package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gastoscan/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRecognitionClient(baseURL, legacyURL string) *RecognitionClient {
	return NewRecognitionClient(config.RecognitionConfig{
		BaseURL:              baseURL,
		LegacyURL:            legacyURL,
		APIKey:               "test-key",
		Model:                "test-model",
		Timeout:              5 * time.Second,
		EnableLegacyFallback: legacyURL != "",
	}, zap.NewNop())
}

func TestExtractSendsMultipartAndDecodes(t *testing.T) {
	var gotAuth, gotModel, gotFileURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotFileURL = r.FormValue("file_url")

		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"classification": map[string]any{
				"type": "expense_invoice", "reason": "layout", "confidence": 0.9,
			},
			"extraction": map[string]any{
				"type": "invoice",
				"data": map[string]any{"vendor": "Bar Pepe", "total": 12.5},
			},
		})
	}))
	defer server.Close()

	client := newTestRecognitionClient(server.URL, "")
	result, err := client.Extract(context.Background(), RecognitionRequest{
		FileName:  "ticket.jpg",
		MimeType:  "image/jpeg",
		SignedURL: "http://localhost:8080/files/abc?token=t",
		Data:      []byte("jpeg"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotModel)
	assert.Equal(t, "http://localhost:8080/files/abc?token=t", gotFileURL)

	require.NotNil(t, result.Classification)
	assert.Equal(t, "expense_invoice", result.Classification.Type)
	assert.Equal(t, "Bar Pepe", result.Extraction["vendor"])
}

func TestExtractToleratesMissingKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := newTestRecognitionClient(server.URL, "")
	result, err := client.Extract(context.Background(), RecognitionRequest{FileName: "a.pdf", Data: []byte("x")})
	require.NoError(t, err)
	assert.Nil(t, result.Classification)
	assert.NotNil(t, result.Extraction)
	assert.Empty(t, result.Extraction)
}

func TestExtractReportsUpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "unreadable document"}`))
	}))
	defer server.Close()

	client := newTestRecognitionClient(server.URL, "")
	_, err := client.Extract(context.Background(), RecognitionRequest{FileName: "a.pdf", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable document")
}

func TestExtractReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestRecognitionClient(server.URL, "")
	_, err := client.Extract(context.Background(), RecognitionRequest{FileName: "a.pdf", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestExtractLegacySendsJSONReference(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"extraction": map[string]any{
				"type": "receipt",
				"data": map[string]any{"vendor": "Bar Pepe"},
			},
		})
	}))
	defer server.Close()

	client := newTestRecognitionClient("http://invalid", server.URL)
	result, err := client.ExtractLegacy(context.Background(), "abc123.jpg", "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "abc123.jpg", gotBody["file_path"])
	assert.Equal(t, "image/jpeg", gotBody["file_type"])
	assert.Equal(t, "Bar Pepe", result.Extraction["vendor"])
	assert.True(t, client.FallbackEnabled())
}
