package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

type LeadHandler struct {
	leadService *service.LeadService
	validator   *validator.Validator
}

func NewLeadHandler(leadService *service.LeadService, validator *validator.Validator) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		validator:   validator,
	}
}

// CreateLead
// POST /api/v1/leads
func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req service.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	lead, err := h.leadService.CreateLead(c.Context(), p, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// ListLeads
// GET /api/v1/leads?limit=&offset=
func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	limit, offset := pageParams(c)
	leads, total, err := h.leadService.ListLeads(c.Context(), p, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"leads": leads,
		"total": total,
	})
}

// GetLead
// GET /api/v1/leads/:id
func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	lead, err := h.leadService.GetLead(c.Context(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lead)
}

// DeleteLead
// DELETE /api/v1/leads/:id
func (h *LeadHandler) DeleteLead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.leadService.DeleteLead(c.Context(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
