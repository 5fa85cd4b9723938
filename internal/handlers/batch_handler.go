package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
	"cv-intelligence/internal/services"
)

type BatchHandler struct {
	processor services.BatchProcessor
	validate  *validator.Validate
}

func NewBatchHandler(processor services.BatchProcessor) *BatchHandler {
	return &BatchHandler{
		processor: processor,
		validate:  validator.New(),
	}
}

// CreateBatch handles POST /cv-intelligence/batch.
func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req models.CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationFailed(validationMessages(err))
	}

	batch, err := h.processor.CreateBatch(ownerID(c), req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(models.APIResponse{
		Success: true,
		Data:    models.CreateBatchResponse{BatchID: batch.ID.String()},
		Message: "Batch created successfully",
	})
}

// ListBatches handles GET /cv-intelligence/batches.
func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	batches, err := h.processor.ListBatches(ownerID(c))
	if err != nil {
		return err
	}
	if batches == nil {
		batches = []models.Batch{}
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Data:    batches,
	})
}

// GetBatch handles GET /cv-intelligence/batch/:id.
func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id, err := parseBatchID(c)
	if err != nil {
		return err
	}

	detail, err := h.processor.GetBatch(id, ownerID(c))
	if err != nil {
		return err
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Data:    detail,
	})
}

// DeleteBatch handles DELETE /cv-intelligence/batch/:id.
func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	id, err := parseBatchID(c)
	if err != nil {
		return err
	}

	if err := h.processor.DeleteBatch(c.Context(), id, ownerID(c)); err != nil {
		return err
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Message: "Batch deleted successfully",
	})
}

// parseBatchID reads the :id path parameter. A malformed id answers the same
// as an unknown one so the id space stays opaque.
func parseBatchID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFound("Batch not found")
	}
	return id, nil
}

func parseCandidateID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("candidateId"))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFound("Candidate not found")
	}
	return id, nil
}

func validationMessages(err error) []string {
	var messages []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			switch fe.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
			default:
				messages = append(messages, fmt.Sprintf("%s is invalid", fe.Field()))
			}
		}
		return messages
	}
	return []string{err.Error()}
}
