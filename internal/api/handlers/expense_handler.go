package handlers

import (
	"errors"
	"io"

	"gastoscan/internal/dto"
	"gastoscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// Analyze accepts a multipart upload plus review context and returns the
// extracted fields, the classification suggestion and the category
// resolution for the review step. Nothing is submitted yet.
func (h *ExpenseHandler) Analyze(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	resp, err := h.expenseService.Analyze(c.Context(), service.AnalyzeRequest{
		AccountID: accountID,
		UserID:    userID,
		FileName:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Data:      data,
		ProjectID: c.FormValue("project_id"),
		Notes:     c.FormValue("notes"),
	})
	if err != nil {
		return h.mapError(c, err, "Analyze failed")
	}

	return c.JSON(resp)
}

// Submit persists a reviewed expense.
func (h *ExpenseHandler) Submit(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.SubmitExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.expenseService.Submit(c.Context(), accountID, userID, &req)
	if err != nil {
		return h.mapError(c, err, "Submit failed")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	expenses, err := h.expenseService.List(c.Context(), accountID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list expenses",
		})
	}

	return c.JSON(expenses)
}

func (h *ExpenseHandler) mapError(c *fiber.Ctx, err error, fallback string) error {
	body := fiber.Map{"error": err.Error()}
	var stage *service.StageError
	if errors.As(err, &stage) {
		body["stage"] = stage.Stage
	}

	switch {
	case errors.Is(err, service.ErrValidationFailed):
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, service.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(body)
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(body)
	case errors.Is(err, service.ErrRecognitionFailed):
		return c.Status(fiber.StatusBadGateway).JSON(body)
	default:
		h.logger.Error(fallback, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fallback,
		})
	}
}
