package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
)

// ErrorHandler maps typed application errors onto the response envelope.
// Anything untyped is a server fault and keeps its detail out of the body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr := apperrors.From(err); appErr != nil {
		return c.Status(appErr.Status).JSON(models.APIResponse{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Details,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.APIResponse{
			Success: false,
			Message: fiberErr.Message,
		})
	}

	log.Printf("❌ Unhandled error: %v\n", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.APIResponse{
		Success: false,
		Message: "Internal server error",
	})
}
