package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"gastoscan/pkg/config"

	"go.uber.org/zap"
)

// RecognitionClient talks to the external document extraction function.
// It never retries on its own; upstream decides whether to surface the
// failure or fall back to the legacy endpoint.
type RecognitionClient struct {
	cfg        config.RecognitionConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRecognitionClient(cfg config.RecognitionConfig, logger *zap.Logger) *RecognitionClient {
	return &RecognitionClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// RecognitionRequest carries everything the extraction function needs:
// the raw bytes, a signed URL it can re-fetch them from, and account
// context for category prompting.
type RecognitionRequest struct {
	FileName   string
	MimeType   string
	SignedURL  string
	Data       []byte
	AccountID  string
	ProjectID  string
	Notes      string
	Categories []string
}

// RecognitionClassification is the upstream function's own guess about
// what kind of document it saw. It is advisory only.
type RecognitionClassification struct {
	Type       string  `json:"type"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// RecognitionResult is the decoded upstream response. Extraction holds
// the raw field map exactly as returned; normalization happens later.
type RecognitionResult struct {
	Success        bool                       `json:"success"`
	Classification *RecognitionClassification `json:"classification"`
	ExtractionType string                     `json:"-"`
	Extraction     map[string]any             `json:"-"`
	RawText        string                     `json:"-"`
}

type recognitionEnvelope struct {
	Success        bool                       `json:"success"`
	Error          string                     `json:"error"`
	Classification *RecognitionClassification `json:"classification"`
	Extraction     *struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	} `json:"extraction"`
	RawText string `json:"raw_text"`
}

// Extract sends the document to the recognition function and decodes
// its response. Missing or misshapen keys degrade to absent fields
// rather than errors; only transport and non-2xx failures are returned.
func (c *RecognitionClient) Extract(ctx context.Context, req RecognitionRequest) (*RecognitionResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	fields := map[string]string{
		"mime_type":  req.MimeType,
		"file_url":   req.SignedURL,
		"account_id": req.AccountID,
		"project_id": req.ProjectID,
		"notes":      req.Notes,
		"model":      c.cfg.Model,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if len(req.Categories) > 0 {
		encoded, err := json.Marshal(req.Categories)
		if err != nil {
			return nil, fmt.Errorf("failed to encode categories: %w", err)
		}
		if err := writer.WriteField("categories", string(encoded)); err != nil {
			return nil, fmt.Errorf("failed to write categories field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recognition returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var envelope recognitionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	c.logger.Info("Recognition completed",
		zap.String("file", req.FileName),
		zap.Bool("success", envelope.Success),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !envelope.Success {
		if envelope.Error != "" {
			return nil, fmt.Errorf("recognition rejected document: %s", envelope.Error)
		}
		return nil, fmt.Errorf("recognition rejected document")
	}

	result := &RecognitionResult{
		Success:        envelope.Success,
		Classification: envelope.Classification,
		RawText:        envelope.RawText,
	}
	if envelope.Extraction != nil {
		result.ExtractionType = envelope.Extraction.Type
		result.Extraction = envelope.Extraction.Data
	}
	if result.Extraction == nil {
		result.Extraction = map[string]any{}
	}
	return result, nil
}

// ExtractLegacy calls the previous-generation endpoint, which only
// accepts a reference to already-stored bytes.
func (c *RecognitionClient) ExtractLegacy(ctx context.Context, filePath, fileType string) (*RecognitionResult, error) {
	payload, err := json.Marshal(map[string]string{
		"file_path": filePath,
		"file_type": fileType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode legacy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LegacyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create legacy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("legacy recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("legacy recognition returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var envelope recognitionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode legacy response: %w", err)
	}

	result := &RecognitionResult{
		Success:        envelope.Success,
		Classification: envelope.Classification,
		RawText:        envelope.RawText,
	}
	if envelope.Extraction != nil {
		result.ExtractionType = envelope.Extraction.Type
		result.Extraction = envelope.Extraction.Data
	}
	if result.Extraction == nil {
		result.Extraction = map[string]any{}
	}
	return result, nil
}

// FallbackEnabled reports whether the legacy endpoint may be used when
// the primary one fails.
func (c *RecognitionClient) FallbackEnabled() bool {
	return c.cfg.EnableLegacyFallback && c.cfg.LegacyURL != ""
}
