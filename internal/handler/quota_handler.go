package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/service"
)

// QuotaHandler exposes advisory quota checks. A positive answer does not
// reserve a slot.
type QuotaHandler struct {
	quotaService *service.QuotaService
}

func NewQuotaHandler(quotaService *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaService: quotaService}
}

// CanCreateListing
// GET /api/v1/quota/listings
func (h *QuotaHandler) CanCreateListing(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	d, err := h.quotaService.CanCreateListing(c.Context(), p.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}

// CanAddCustomer
// GET /api/v1/quota/customers
func (h *QuotaHandler) CanAddCustomer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	d, err := h.quotaService.CanAddCustomer(c.Context(), p.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}
