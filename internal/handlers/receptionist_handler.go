package handlers

import (
	"github.com/fisioclinic/clinic-backend/internal/dto"
	"github.com/fisioclinic/clinic-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReceptionistHandler struct {
	receptionists *services.ReceptionistService
}

func NewReceptionistHandler(receptionists *services.ReceptionistService) *ReceptionistHandler {
	return &ReceptionistHandler{receptionists: receptionists}
}

func (h *ReceptionistHandler) List(c *fiber.Ctx) error {
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Invalid query parameters"))
	}

	items, total, err := h.receptionists.List(c.UserContext(), &q)
	if err != nil {
		return respondError(c, err)
	}
	return list(c, items, q.Page, q.Limit, total)
}

func (h *ReceptionistHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.receptionists.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OK(r))
}

func (h *ReceptionistHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateReceptionistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	r, err := h.receptionists.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OKMessage(r, "Receptionist created"))
}

func (h *ReceptionistHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateReceptionistRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	r, err := h.receptionists.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(r, "Receptionist updated"))
}

func (h *ReceptionistHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.receptionists.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(nil, "Receptionist deactivated"))
}

func (h *ReceptionistHandler) HardDelete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.receptionists.HardDelete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OKMessage(nil, "Receptionist permanently deleted"))
}
