package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gastoscan/internal/models"
	"gastoscan/internal/repository"
	"gastoscan/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type receiptFileStore interface {
	Create(ctx context.Context, f *models.ReceiptFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptFile, error)
	FindByHash(ctx context.Context, accountID uuid.UUID, hash string, exclude uuid.UUID) (*models.ReceiptFile, error)
}

// StorageService persists uploaded receipt bytes on disk, records their
// metadata, and issues short-lived signed URLs so the recognition
// function can fetch them back.
type StorageService struct {
	files  receiptFileStore
	cfg    config.StorageConfig
	logger *zap.Logger
}

func NewStorageService(files *repository.ReceiptFileRepository, cfg config.StorageConfig, logger *zap.Logger) *StorageService {
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &StorageService{
		files:  files,
		cfg:    cfg,
		logger: logger,
	}
}

// Save writes the bytes under a uuid-based name, computes the dedup
// digest over the exact bytes, and records the receipt_files row. The
// file is removed again if the row cannot be written.
func (s *StorageService) Save(ctx context.Context, accountID, userID uuid.UUID, data []byte, originalName, mimeType string) (*models.ReceiptFile, error) {
	fileID := uuid.New()
	storedName := fileID.String() + filepath.Ext(originalName)
	storagePath := filepath.Join(s.cfg.UploadDir, storedName)

	if err := os.WriteFile(storagePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	digest := sha256.Sum256(data)

	file := &models.ReceiptFile{
		ID:           fileID,
		AccountID:    accountID,
		UserID:       userID,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
		StoragePath:  storedName,
		HashDedupe:   hex.EncodeToString(digest[:]),
		CreatedAt:    time.Now(),
	}

	if err := s.files.Create(ctx, file); err != nil {
		os.Remove(storagePath)
		return nil, fmt.Errorf("failed to create receipt file record: %w", err)
	}

	return file, nil
}

// FindDuplicate returns the account's earlier upload carrying the same
// content digest, or nil when the bytes are new to the account.
func (s *StorageService) FindDuplicate(ctx context.Context, file *models.ReceiptFile) (*models.ReceiptFile, error) {
	return s.files.FindByHash(ctx, file.AccountID, file.HashDedupe, file.ID)
}

// SignedURL returns an expiring public URL for the stored file. The
// token is an HMAC over the file id and the unix expiry.
func (s *StorageService) SignedURL(file *models.ReceiptFile) (string, error) {
	if s.cfg.SigningSecret == "" {
		return "", fmt.Errorf("signing secret is not configured")
	}

	expires := time.Now().Add(s.cfg.SignedURLTTL).Unix()
	token := s.sign(file.ID.String(), expires)
	return fmt.Sprintf("%s/files/%s?expires=%d&token=%s",
		s.cfg.PublicBaseURL, file.ID.String(), expires, token), nil
}

// VerifySignedAccess validates the token and expiry from a signed URL
// and returns the file metadata plus the on-disk path.
func (s *StorageService) VerifySignedAccess(ctx context.Context, fileID uuid.UUID, expires int64, token string) (*models.ReceiptFile, string, error) {
	if expires < time.Now().Unix() {
		return nil, "", fmt.Errorf("signed url expired")
	}

	expected := s.sign(fileID.String(), expires)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return nil, "", fmt.Errorf("invalid signature")
	}

	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, "", fmt.Errorf("file not found: %w", err)
	}

	return file, filepath.Join(s.cfg.UploadDir, file.StoragePath), nil
}

func (s *StorageService) sign(fileID string, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SigningSecret))
	mac.Write([]byte(fileID + ":" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
