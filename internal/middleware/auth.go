package middleware

import (
	"github.com/fisioclinic/clinic-backend/internal/authctx"
	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: authctx.UserKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("Unauthorized: invalid or expired token"))
		},
	})
}
