package handlers

import (
	"context"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store  store.Store
	driver string
}

func NewHealthHandler(st store.Store, driver string) *HealthHandler {
	return &HealthHandler{store: st, driver: driver}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbStatus := "ok", "ok"
	if err := h.store.Ping(ctx); err != nil {
		status, dbStatus = "degraded", "unhealthy: "+err.Error()
	}

	resp := dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Store:     h.driver,
	}
	if status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.APIResponse{Success: false, Data: resp, Error: dbStatus})
	}
	return c.JSON(dto.OK(resp))
}
