package server

import (
	"errors"

	"folio/internal/models"
	"folio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// subscribeResponse is the envelope the subscribe form renders
// directly. The endpoint answers 200 for form-level failures
// (validation, duplicates) and reserves error statuses for transport
// problems.
type subscribeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Subscribe handles POST /api/subscribe.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var in service.SubscribeInput
	if err := c.BodyParser(&in); err != nil {
		return c.JSON(subscribeResponse{Success: false, Error: "Invalid request body"})
	}

	_, err := s.newsletterService.Subscribe(c.UserContext(), in)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case models.CodeValidation, models.CodeDuplicate:
				return c.JSON(subscribeResponse{Success: false, Error: appErr.Message})
			}
		}
		return c.JSON(subscribeResponse{Success: false, Error: "Failed to subscribe. Please try again."})
	}

	return c.JSON(subscribeResponse{Success: true})
}

// GetSubscriberCount handles GET /api/subscribers/count.
func (s *Server) GetSubscriberCount(c *fiber.Ctx) error {
	count, err := s.newsletterService.SubscriberCount(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
