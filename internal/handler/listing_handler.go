package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

type ListingHandler struct {
	listingService *service.ListingService
	validator      *validator.Validator
}

func NewListingHandler(listingService *service.ListingService, validator *validator.Validator) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		validator:      validator,
	}
}

type changeStatusRequest struct {
	Status domain.ListingStatus `json:"status" validate:"required,listing_status"`
}

// CreateListing creates a listing owned by the caller
// POST /api/v1/listings
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req service.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	listing, err := h.listingService.CreateListing(c.Context(), p, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// ListListings returns the listings in the caller's scope
// GET /api/v1/listings?status=&limit=&offset=
func (h *ListingHandler) ListListings(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	f := service.ListingFilter{}
	f.Limit, f.Offset = pageParams(c)
	if s := c.Query("status"); s != "" {
		status := domain.ListingStatus(s)
		if !status.IsValid() {
			return badRequest(c, "invalid status")
		}
		f.Status = &status
	}

	listings, total, err := h.listingService.ListListings(c.Context(), p, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
	})
}

// GetListing
// GET /api/v1/listings/:id
func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	listing, err := h.listingService.GetListing(c.Context(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// ChangeStatus moves a listing between lifecycle states
// PATCH /api/v1/listings/:id/status
func (h *ListingHandler) ChangeStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req changeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	listing, err := h.listingService.ChangeStatus(c.Context(), p, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// DeleteListing
// DELETE /api/v1/listings/:id
func (h *ListingHandler) DeleteListing(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.listingService.DeleteListing(c.Context(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListInquiries returns the inquiries received on a listing
// GET /api/v1/listings/:id/inquiries
func (h *ListingHandler) ListInquiries(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	limit, offset := pageParams(c)
	inquiries, err := h.listingService.ListInquiries(c.Context(), p, id, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"inquiries": inquiries})
}
