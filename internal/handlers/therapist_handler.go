package handlers

import (
	"time"

	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type TherapistHandler struct {
	therapists   *services.TherapistService
	availability *services.AvailabilityService
	agenda       *services.AgendaService
}

func NewTherapistHandler(therapists *services.TherapistService, availability *services.AvailabilityService, agenda *services.AgendaService) *TherapistHandler {
	return &TherapistHandler{therapists: therapists, availability: availability, agenda: agenda}
}

// period reads the from/to query bounds of an agenda request.
func period(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := services.ParseInstant("from", c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := services.ParseInstant("to", c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (h *TherapistHandler) List(c *fiber.Ctx) error {
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid query parameters"))
	}

	items, total, err := h.therapists.List(c.UserContext(), &q)
	if err != nil {
		return respondError(c, err)
	}
	return list(c, items, q.Page, q.Limit, total)
}

func (h *TherapistHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.therapists.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(t))
}

func (h *TherapistHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTherapistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	t, err := h.therapists.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OKMessage(t, "Therapist created"))
}

func (h *TherapistHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateTherapistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	t, err := h.therapists.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(t, "Therapist updated"))
}

func (h *TherapistHandler) ToggleStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.therapists.ToggleStatus(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	msg := "Therapist deactivated"
	if t.Active {
		msg = "Therapist activated"
	}
	return c.JSON(dto.OKMessage(t, msg))
}

func (h *TherapistHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.therapists.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(nil, "Therapist deleted"))
}

func (h *TherapistHandler) Available(c *fiber.Ctx) error {
	at, err := services.ParseInstant("at", c.Query("at"))
	if err != nil {
		return respondError(c, err)
	}
	free, err := h.availability.FindAvailable(c.UserContext(), at)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(dto.AvailabilityResponse{At: at, Total: len(free), Therapists: free}))
}

func (h *TherapistHandler) Agenda(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	from, to, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := h.agenda.ForTherapist(c.UserContext(), id, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(resp))
}
