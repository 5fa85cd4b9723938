package handlers

import (
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
	"cv-intelligence/internal/services"
)

type ProcessHandler struct {
	processor services.BatchProcessor
	validate  *validator.Validate
}

func NewProcessHandler(processor services.BatchProcessor) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		validate:  validator.New(),
	}
}

// ProcessBatch handles POST /cv-intelligence/batch/:id/process. The request
// carries the job description as "jdFile" and the résumés as "cvFiles".
func (h *ProcessHandler) ProcessBatch(c *fiber.Ctx) error {
	id, err := parseBatchID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewInvalidInput("Failed to parse multipart form")
	}

	var jdFile *multipart.FileHeader
	if jdFiles := form.File["jdFile"]; len(jdFiles) > 0 {
		jdFile = jdFiles[0]
	}
	cvFiles := form.File["cvFiles"]

	result, err := h.processor.ProcessBatch(c.Context(), id, ownerID(c), jdFile, cvFiles)
	if err != nil {
		return err
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Data:    result,
		Message: "Batch processed successfully",
	})
}

// ScheduleInterview handles PUT /cv-intelligence/batch/:id/candidate/:candidateId/interview.
func (h *ProcessHandler) ScheduleInterview(c *fiber.Ctx) error {
	id, err := parseBatchID(c)
	if err != nil {
		return err
	}
	candidateID, err := parseCandidateID(c)
	if err != nil {
		return err
	}

	var req models.ScheduleInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationFailed(validationMessages(err))
	}

	if err := h.processor.ScheduleInterview(id, candidateID, ownerID(c), req.InterviewID); err != nil {
		return err
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Message: "Interview scheduled successfully",
	})
}

// Search handles POST /cv-intelligence/batch/:id/search.
func (h *ProcessHandler) Search(c *fiber.Ctx) error {
	id, err := parseBatchID(c)
	if err != nil {
		return err
	}

	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationFailed(validationMessages(err))
	}

	matches, err := h.processor.SearchCandidates(c.Context(), id, ownerID(c), req.Query, req.Limit)
	if err != nil {
		return err
	}

	return c.JSON(models.APIResponse{
		Success: true,
		Data:    matches,
	})
}
