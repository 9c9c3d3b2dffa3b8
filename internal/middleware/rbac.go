package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/brigada-mx/brigada-api/internal/models"
	"github.com/brigada-mx/brigada-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the
// allowed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		value, _ := c.Locals("user_role").(string)
		role := models.Role(strings.ToLower(strings.TrimSpace(value)))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
