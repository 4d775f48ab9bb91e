package authctx

import (
	"net/http/httptest"
	"testing"

	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsFromLocals(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name     string
		token    interface{}
		wantID   uuid.UUID
		wantRole models.Role
		wantErr  bool
	}{
		{
			name:     "valid token",
			token:    jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.String(), "role": "RECEPCIONISTA"}),
			wantID:   id,
			wantRole: models.RoleReceptionist,
		},
		{name: "missing token", token: nil, wantErr: true},
		{
			name:    "unknown role",
			token:   jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.String(), "role": "ROOT"}),
			wantID:  id,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.token != nil {
					c.Locals(UserKey, tt.token)
				}
				gotID, idErr := GetUserID(c)
				gotRole, roleErr := GetRole(c)
				if tt.wantErr {
					assert.Error(t, roleErr)
				} else {
					assert.NoError(t, idErr)
					assert.NoError(t, roleErr)
					assert.Equal(t, tt.wantRole, gotRole)
				}
				if tt.wantID != uuid.Nil {
					assert.Equal(t, tt.wantID, gotID)
				}
				return c.SendStatus(fiber.StatusNoContent)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		})
	}
}
