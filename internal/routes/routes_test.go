package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/handlers"
	"github.com/fisioclinic/clinic-backend/internal/metrics"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type testServer struct {
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   time.Hour,
		RateLimitPerMinute: 10000,
		StoreDriver:        config.StoreDriverMemory,
	}
	st := store.NewMemoryStore()
	checker := services.NewConflictChecker(st, services.DefaultSlotRadius)
	auth := services.NewAuthService(st, cfg)
	agenda := services.NewAgendaService(st)
	require.NoError(t, auth.SeedAdmin(context.Background(), "Admin", "admin@clinic.test", "admin123"))

	app := fiber.New()
	Setup(app, cfg, Handlers{
		Auth:          handlers.NewAuthHandler(auth),
		Health:        handlers.NewHealthHandler(st, cfg.StoreDriver),
		Patients:      handlers.NewPatientHandler(services.NewPatientService(st), agenda),
		Therapists:    handlers.NewTherapistHandler(services.NewTherapistService(st), services.NewAvailabilityService(st, checker), agenda),
		Receptionists: handlers.NewReceptionistHandler(services.NewReceptionistService(st)),
		Appointments:  handlers.NewAppointmentHandler(services.NewAppointmentService(st, checker, metrics.NewScheduling(prometheus.NewRegistry()))),
	})
	return &testServer{app: app}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, env.Error)
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.AccessToken
}

func idOf(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSchedulingFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@clinic.test", "admin123")

	code, env := s.do(t, http.MethodPost, "/api/receptionists", admin, map[string]string{
		"name": "Rita Alves", "email": "rita@clinic.test", "password": "segredo1",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	desk := s.login(t, "rita@clinic.test", "segredo1")

	code, env = s.do(t, http.MethodPost, "/api/therapists", admin, map[string]string{
		"name": "Carla Mendes", "email": "carla@clinic.test", "password": "segredo1",
		"crefito": "CREFITO-3/1", "specialty": "Ortopedia",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	therapistID := idOf(t, env)
	physio := s.login(t, "carla@clinic.test", "segredo1")

	code, env = s.do(t, http.MethodPost, "/api/patients", desk, map[string]string{
		"name": "Maria Souza", "cpf": "12345678901", "phone": "11987654321", "birth_date": "1985-06-15",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	patientID := idOf(t, env)

	code, _ = s.do(t, http.MethodPost, "/api/patients", physio, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, code)

	book := func(token, at string) (int, envelope) {
		return s.do(t, http.MethodPost, "/api/appointments", token, map[string]string{
			"patient_id": patientID, "therapist_id": therapistID, "scheduled_at": at,
		})
	}

	code, env = book(desk, "2030-03-04T10:00:00")
	require.Equal(t, http.StatusCreated, code, env.Error)
	apptID := idOf(t, env)

	code, env = book(desk, "2030-03-04T10:20:00")
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	code, _ = s.do(t, http.MethodGet, "/api/therapists/available?at=2030-03-04T10:30:00", desk, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/therapists/available", desk, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPut, "/api/appointments/"+apptID, physio, map[string]string{"status": "CONFIRMADA"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = s.do(t, http.MethodPut, "/api/appointments/"+apptID+"/reschedule", desk, map[string]string{"scheduled_at": "2030-03-05T10:00:00"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPatch, "/api/appointments/"+apptID+"/complete", physio, map[string]string{"report": "alongamento"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodGet, "/api/therapists/"+therapistID+"/agenda?from=2030-03-04&to=2030-03-05", physio, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var agenda struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &agenda))
	assert.Equal(t, 1, agenda.Total)

	code, _ = s.do(t, http.MethodDelete, "/api/appointments/"+apptID, desk, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/appointments?status=CONCLUIDA", desk, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var page struct {
		Pagination struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, 10, page.Pagination.Limit)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@clinic.test", "admin123")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/patients", "", http.StatusUnauthorized},
		{"malformed id", http.MethodGet, "/api/patients/not-a-uuid", admin, http.StatusBadRequest},
		{"missing patient", http.MethodGet, "/api/patients/6f1c8a52-0c7e-4d6b-9a51-0d5d2f0d9e11", admin, http.StatusNotFound},
		{"missing appointment delete", http.MethodDelete, "/api/appointments/6f1c8a52-0c7e-4d6b-9a51-0d5d2f0d9e11", admin, http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/appointments?status=FOO", admin, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, code)
			assert.False(t, env.Success)
		})
	}

	code, _ := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@clinic.test", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(t, http.MethodGet, "/api/auth/me", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}
