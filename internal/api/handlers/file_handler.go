package handlers

import (
	"strconv"

	"gastoscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileHandler serves stored receipt files against signed URLs. The
// route is public; possession of a valid unexpired token is the only
// credential, so the recognition function can fetch without a JWT.
type FileHandler struct {
	storage *service.StorageService
	logger  *zap.Logger
}

func NewFileHandler(storage *service.StorageService, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *FileHandler) Get(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid file ID",
		})
	}

	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Missing or invalid expiry",
		})
	}
	token := c.Query("token")

	file, path, err := h.storage.VerifySignedAccess(c.Context(), fileID, expires, token)
	if err != nil {
		h.logger.Warn("Rejected signed file access",
			zap.String("file_id", fileID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid or expired link",
		})
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	return c.SendFile(path)
}
