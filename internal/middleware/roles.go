package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// RequireRole allows only viewers holding one of roles (admins always pass).
// Anonymous requests get 401, signed-in viewers without the role get 403.
//
//	app.Post("/api/turfs", middleware.RequireRole(models.UserRoleOwner), h.CreateTurf)
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, ok := c.Locals(localViewer).(identity.Viewer)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		if !v.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient permissions",
			})
		}
		return c.Next()
	}
}
