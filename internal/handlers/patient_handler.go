package handlers

import (
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PatientHandler struct {
	patients *services.PatientService
	agenda   *services.AgendaService
}

func NewPatientHandler(patients *services.PatientService, agenda *services.AgendaService) *PatientHandler {
	return &PatientHandler{patients: patients, agenda: agenda}
}

func (h *PatientHandler) List(c *fiber.Ctx) error {
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid query parameters"))
	}

	items, total, err := h.patients.List(c.UserContext(), &q)
	if err != nil {
		return respondError(c, err)
	}
	return list(c, items, q.Page, q.Limit, total)
}

func (h *PatientHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.patients.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(p))
}

func (h *PatientHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p, err := h.patients.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OKMessage(p, "Patient created"))
}

func (h *PatientHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p, err := h.patients.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(p, "Patient updated"))
}

func (h *PatientHandler) ToggleStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.patients.ToggleStatus(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	msg := "Patient deactivated"
	if p.Active {
		msg = "Patient activated"
	}
	return c.JSON(dto.OKMessage(p, msg))
}

func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.patients.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(nil, "Patient deleted"))
}

func (h *PatientHandler) Agenda(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	from, to, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := h.agenda.ForPatient(c.UserContext(), id, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(resp))
}
