package handlers

import (
	"errors"
	"log/slog"

	"github.com/fisioclinic/clinic-backend/internal/authctx"
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid request body"))
}

// respondError maps a service failure onto its HTTP status. Store failures
// are logged and reported to Sentry with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case services.KindNotFound:
			return c.Status(fiber.StatusNotFound).JSON(dto.Fail(se.Message))
		case services.KindInvalidState, services.KindValidation:
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(se.Message))
		case services.KindConflict:
			return c.Status(fiber.StatusConflict).JSON(dto.Fail(se.Message))
		}
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail(err.Error()))
	case errors.Is(err, services.ErrInactiveAccount):
		return c.Status(fiber.StatusForbidden).JSON(dto.Fail(err.Error()))
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail(err.Error()))
	}

	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err.Error(),
	}
	if userID, idErr := authctx.GetUserID(c); idErr == nil {
		attrs = append(attrs, "user_id", userID.String())
	}
	slog.Error("request failed", attrs...)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	return services.ParseID("id", c.Params("id"))
}

func list(c *fiber.Ctx, items interface{}, page, limit int, total int64) error {
	return c.JSON(dto.OK(dto.ListResponse{
		Items:      items,
		Pagination: dto.NewPagination(page, limit, total),
	}))
}
