package middleware

import "github.com/gofiber/fiber/v2"

// NoCacheHeaders sets no-cache headers. Loan state changes with every
// repayment so nothing under the API may be cached by intermediaries.
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}
