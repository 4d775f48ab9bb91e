package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/fisioclinic/clinic-backend/internal/config"
	"github.com/fisioclinic/clinic-backend/internal/database"
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/handlers"
	"github.com/fisioclinic/clinic-backend/internal/logging"
	"github.com/fisioclinic/clinic-backend/internal/metrics"
	"github.com/fisioclinic/clinic-backend/internal/middleware"
	"github.com/fisioclinic/clinic-backend/internal/routes"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(slog.LevelInfo)

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	var (
		st          store.Store
		db          *gorm.DB
		pgLog       *logging.PGHandler
		cleanupDone = make(chan struct{})
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		st = store.NewMemoryStore()
	case config.StoreDriverPostgres:
		if cfg.DBPassword == "" {
			slog.Error("DB_PASSWORD environment variable is required")
			os.Exit(1)
		}
		var err error
		if db, err = database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		st = store.NewGormStore(db)

		// PostgreSQL log handler (ERROR+ async batch)
		pgLog = logging.NewPGHandler(db)
		logging.Setup(slog.LevelInfo, pgLog)
		logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)
	default:
		slog.Error("unknown STORE_DRIVER", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	// Services
	scheduling := metrics.NewScheduling(nil)
	checker := services.NewConflictChecker(st, cfg.SlotRadius)
	authService := services.NewAuthService(st, cfg)
	patientService := services.NewPatientService(st)
	therapistService := services.NewTherapistService(st)
	receptionistService := services.NewReceptionistService(st)
	appointmentService := services.NewAppointmentService(st, checker, scheduling)
	availabilityService := services.NewAvailabilityService(st, checker)
	agendaService := services.NewAgendaService(st)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.SeedAdmin(seedCtx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("admin seed failed", "error", err)
	}
	cancelSeed()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Health:        handlers.NewHealthHandler(st, cfg.StoreDriver),
		Patients:      handlers.NewPatientHandler(patientService, agendaService),
		Therapists:    handlers.NewTherapistHandler(therapistService, availabilityService, agendaService),
		Receptionists: handlers.NewReceptionistHandler(receptionistService),
		Appointments:  handlers.NewAppointmentHandler(appointmentService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLog != nil {
		pgLog.Stop()
	}
	sentry.Flush(2 * time.Second)

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.Fail(message))
}
