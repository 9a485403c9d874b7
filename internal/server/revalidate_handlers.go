package server

import (
	"crypto/subtle"

	"folio/internal/cache"
	"folio/internal/middleware"
	"folio/internal/models"

	"github.com/gofiber/fiber/v2"
)

type revalidateRequest struct {
	Tags []string `json:"tags"`
}

// Revalidate handles POST /api/revalidate: the content studio calls it
// after publishing so edits show up before the cache window expires.
// The endpoint is disabled unless a shared secret is configured.
func (s *Server) Revalidate(c *fiber.Ctx) error {
	if s.config.RevalidateSecret == "" {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("route", c.Path()))
	}

	secret := c.Get("X-Revalidate-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.RevalidateSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid revalidation secret",
		})
	}

	var req revalidateRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	tags := req.Tags
	if len(tags) == 0 {
		tags = cache.KnownTags()
	}

	known := make(map[string]bool)
	for _, t := range cache.KnownTags() {
		known[t] = true
	}

	invalidated := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !known[tag] {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown cache tag: "+tag))
		}
		if err := s.contentCache.InvalidateTag(c.UserContext(), tag); err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		invalidated = append(invalidated, tag)
	}

	middleware.Logger.InfoContext(c.UserContext(), "cache revalidated", "tags", invalidated)

	return c.JSON(fiber.Map{"revalidated": invalidated})
}
