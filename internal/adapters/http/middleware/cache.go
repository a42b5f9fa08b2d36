package middleware

import "github.com/gofiber/fiber/v2"

// NoStore marks responses as uncacheable; used on routes that carry
// account data or set the session cookie
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set("Pragma", "no-cache")
		return err
	}
}
