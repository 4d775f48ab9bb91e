package routes

import (
	"time"

	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/handlers"
	"github.com/fisioclinic/clinic-backend/internal/middleware"
	"github.com/fisioclinic/clinic-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Patients      *handlers.PatientHandler
	Therapists    *handlers.TherapistHandler
	Receptionists *handlers.ReceptionistHandler
	Appointments  *handlers.AppointmentHandler
}

const authRateLimit = 10

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth - public, stricter limit
	auth := api.Group("/auth")
	authLimit := authLimiter()
	auth.Post("/login", authLimit, h.Auth.Login)
	auth.Post("/refresh", authLimit, h.Auth.Refresh)

	jwt := middleware.JWTProtected(cfg)
	auth.Post("/logout", jwt, h.Auth.Logout)
	auth.Get("/me", jwt, h.Auth.Me)
	auth.Put("/password", jwt, h.Auth.ChangePassword)

	staff := middleware.RequireRoles(models.RoleReceptionist, models.RoleTherapist)
	front := middleware.RequireRoles(models.RoleReceptionist)
	admin := middleware.RequireRoles()

	patients := api.Group("/patients", jwt)
	patients.Get("/", staff, h.Patients.List)
	patients.Post("/", front, h.Patients.Create)
	patients.Get("/:id", staff, h.Patients.Get)
	patients.Put("/:id", front, h.Patients.Update)
	patients.Delete("/:id", front, h.Patients.Delete)
	patients.Patch("/:id/status", front, h.Patients.ToggleStatus)
	patients.Get("/:id/agenda", staff, h.Patients.Agenda)

	therapists := api.Group("/therapists", jwt)
	therapists.Get("/", staff, h.Therapists.List)
	therapists.Post("/", admin, h.Therapists.Create)
	therapists.Get("/available", staff, h.Therapists.Available)
	therapists.Get("/:id", staff, h.Therapists.Get)
	therapists.Put("/:id", admin, h.Therapists.Update)
	therapists.Delete("/:id", admin, h.Therapists.Delete)
	therapists.Patch("/:id/status", admin, h.Therapists.ToggleStatus)
	therapists.Get("/:id/agenda", staff, h.Therapists.Agenda)

	receptionists := api.Group("/receptionists", jwt, admin)
	receptionists.Get("/", h.Receptionists.List)
	receptionists.Post("/", h.Receptionists.Create)
	receptionists.Get("/:id", h.Receptionists.Get)
	receptionists.Put("/:id", h.Receptionists.Update)
	receptionists.Delete("/:id", h.Receptionists.Delete)
	receptionists.Delete("/:id/permanent", h.Receptionists.HardDelete)

	appointments := api.Group("/appointments", jwt)
	appointments.Get("/", staff, h.Appointments.List)
	appointments.Post("/", front, h.Appointments.Create)
	appointments.Get("/:id", staff, h.Appointments.Get)
	appointments.Put("/:id", staff, h.Appointments.Update)
	appointments.Delete("/:id", front, h.Appointments.Delete)
	appointments.Put("/:id/reschedule", front, h.Appointments.Reschedule)
	appointments.Patch("/:id/cancel", front, h.Appointments.Cancel)
	appointments.Patch("/:id/complete", staff, h.Appointments.Complete)
}

func authLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               authRateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
