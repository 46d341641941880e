package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

// PublicHandler serves the anonymous catalog and inquiry form
type PublicHandler struct {
	catalogService *service.CatalogService
	inquiryService *service.InquiryService
	validator      *validator.Validator
}

func NewPublicHandler(catalogService *service.CatalogService, inquiryService *service.InquiryService, validator *validator.Validator) *PublicHandler {
	return &PublicHandler{
		catalogService: catalogService,
		inquiryService: inquiryService,
		validator:      validator,
	}
}

// ListListings searches the public catalog. tenant narrows the result to
// one broker's microsite.
// GET /api/v1/public/listings?tenant=&city=&property_type=&min_price=&max_price=&min_bedrooms=&limit=&offset=
func (h *PublicHandler) ListListings(c *fiber.Ctx) error {
	f := domain.PublicListingFilter{
		City:         c.Query("city"),
		PropertyType: c.Query("property_type"),
	}
	f.Limit, f.Offset = pageParams(c)

	if s := c.Query("tenant"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return badRequest(c, "invalid tenant")
		}
		f.TenantID = &id
	}

	var err error
	if f.MinPrice, err = floatQuery(c, "min_price"); err != nil {
		return badRequest(c, "invalid min_price")
	}
	if f.MaxPrice, err = floatQuery(c, "max_price"); err != nil {
		return badRequest(c, "invalid max_price")
	}
	if s := c.Query("min_bedrooms"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return badRequest(c, "invalid min_bedrooms")
		}
		f.MinBedrooms = &n
	}

	listings, err := h.catalogService.GetPublicListings(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

// GetListing
// GET /api/v1/public/listings/:id
func (h *PublicHandler) GetListing(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	listing, err := h.catalogService.GetPublicListing(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// CreateInquiry records a prospect's inquiry on a listing. The response does
// not reveal whether a lead was created.
// POST /api/v1/public/listings/:id/inquiries
func (h *PublicHandler) CreateInquiry(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var in service.InquiryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	in.ListingID = id
	if err := h.validator.Validate(in); err != nil {
		return invalidRequest(c, err)
	}

	result, err := h.inquiryService.CreatePropertyInquiry(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"inquiry_id": result.Inquiry.ID,
		"message":    "Inquiry received",
	})
}

func floatQuery(c *fiber.Ctx, key string) (*float64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
