package authctx

import (
	"errors"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserKey is the Fiber locals key the JWT middleware stores the token under.
const UserKey = "user"

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(UserKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// GetRole extracts the staff role from JWT claims in context.
func GetRole(c *fiber.Ctx) (models.Role, error) {
	mc, err := claims(c)
	if err != nil {
		return "", err
	}

	role := models.Role(stringClaim(mc, "role"))
	if !role.Valid() {
		return "", errors.New("missing or unknown role claim")
	}
	return role, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}
