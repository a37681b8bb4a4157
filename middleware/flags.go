// middleware/flags.go
package middleware

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard-service/utils"
)

// APIEnabledMiddleware hides the whole surface when the API flag is off:
// every endpoint reports not found rather than forbidden, so the flag leaks
// nothing about what routes exist.
func APIEnabledMiddleware(settings *utils.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !settings.APIEnabled {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not found",
			})
		}
		return c.Next()
	}
}
