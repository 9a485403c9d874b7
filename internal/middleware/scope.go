package middleware

import (
	"folio/internal/cache"

	"github.com/gofiber/fiber/v2"
)

// RequestScope attaches a fresh query memoization scope to each
// request's context. Everything fetched while rendering one response
// shares it.
func RequestScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(cache.WithScope(c.UserContext()))
		return c.Next()
	}
}
