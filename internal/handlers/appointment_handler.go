package handlers

import (
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	var q dto.AppointmentListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid query parameters"))
	}

	items, total, err := h.appointments.List(c.UserContext(), &q)
	if err != nil {
		return respondError(c, err)
	}
	paging := q.Paging()
	return list(c, items, paging.Page, paging.Limit, total)
}

func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.appointments.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(a))
}

func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	a, err := h.appointments.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OKMessage(a, "Appointment scheduled"))
}

func (h *AppointmentHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	a, err := h.appointments.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(a, "Appointment updated"))
}

func (h *AppointmentHandler) Reschedule(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	a, err := h.appointments.Reschedule(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(a, "Appointment rescheduled"))
}

func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.CancelAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	a, err := h.appointments.Cancel(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(a, "Appointment cancelled"))
}

func (h *AppointmentHandler) Complete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.CompleteAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	a, err := h.appointments.Complete(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(a, "Appointment completed"))
}

func (h *AppointmentHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.appointments.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
