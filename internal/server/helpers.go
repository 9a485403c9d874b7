package server

import (
	"folio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForCode maps application error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeDuplicate:
		return fiber.StatusConflict
	case models.CodeUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the standardized error response for err.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForCode(models.ErrorCode(err)), err)
}
