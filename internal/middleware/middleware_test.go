package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, role models.Role, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "6f1c8a52-0c7e-4d6b-9a51-0d5d2f0d9e11",
		"role": string(role),
		"exp":  exp.Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRequireRoles(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := fiber.New()
	app.Get("/patients", JWTProtected(cfg), RequireRoles(models.RoleReceptionist), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", fiber.StatusUnauthorized},
		{"expired token", "Bearer " + signed(t, "test-secret", models.RoleAdmin, time.Now().Add(-time.Hour)), fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, "other", models.RoleAdmin, future), fiber.StatusUnauthorized},
		{"admin passes", "Bearer " + signed(t, "test-secret", models.RoleAdmin, future), fiber.StatusOK},
		{"allowed role", "Bearer " + signed(t, "test-secret", models.RoleReceptionist, future), fiber.StatusOK},
		{"forbidden role", "Bearer " + signed(t, "test-secret", models.RoleTherapist, future), fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/patients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(&config.Config{CORSOrigins: "https://recepcao.clinic.test"}), SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://recepcao.clinic.test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "https://recepcao.clinic.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
