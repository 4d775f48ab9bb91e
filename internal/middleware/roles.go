package middleware

import (
	"github.com/fisioclinic/clinic-backend/internal/authctx"
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RequireRoles lets the request through when the token's role is one of
// roles. Admins always pass.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles)+1)
	allowed[models.RoleAdmin] = true
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role, err := authctx.GetRole(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized"))
		}
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(dto.Fail("Insufficient permissions"))
		}
		c.Locals("role", string(role))
		return c.Next()
	}
}
