package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cv-intelligence/internal/apperrors"
)

const ownerIDKey = "ownerID"

// RequireUser resolves the caller identity from the X-User-ID header set by
// the upstream auth proxy. Requests without it never reach a handler.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			return apperrors.NewUnauthorized("Missing X-User-ID header")
		}
		c.Locals(ownerIDKey, userID)
		return c.Next()
	}
}

func ownerID(c *fiber.Ctx) string {
	if id, ok := c.Locals(ownerIDKey).(string); ok {
		return id
	}
	return ""
}
