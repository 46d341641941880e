package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

// ListingService is the authenticated listing surface. Every read is bounded
// by the caller's visibility scope; writes go through the QuotaService.
type ListingService struct {
	listings  repository.ListingRepository
	inquiries repository.InquiryRepository
	quota     *QuotaService
	resolver  *authz.Resolver
}

type CreateListingRequest struct {
	Title             string               `json:"title" validate:"required,max=200"`
	Description       string               `json:"description"`
	PropertyType      string               `json:"property_type" validate:"required"`
	Price             float64              `json:"price" validate:"gt=0"`
	City              string               `json:"city" validate:"required"`
	Address           string               `json:"address"`
	Bedrooms          int                  `json:"bedrooms" validate:"gte=0"`
	Bathrooms         int                  `json:"bathrooms" validate:"gte=0"`
	AreaSqFt          float64              `json:"area_sq_ft" validate:"gte=0"`
	Status            domain.ListingStatus `json:"status" validate:"omitempty,listing_status"`
	IsPubliclyVisible *bool                `json:"is_publicly_visible"`
	IsFeatured        bool                 `json:"is_featured"`
}

type ListingFilter struct {
	Status *domain.ListingStatus
	Limit  int
	Offset int
}

func NewListingService(
	listings repository.ListingRepository,
	inquiries repository.InquiryRepository,
	quota *QuotaService,
	resolver *authz.Resolver,
) *ListingService {
	return &ListingService{
		listings:  listings,
		inquiries: inquiries,
		quota:     quota,
		resolver:  resolver,
	}
}

// ListListings returns the listings visible to p
func (s *ListingService) ListListings(ctx context.Context, p domain.Principal, f ListingFilter) ([]*domain.Listing, int, error) {
	v := visibilityFor(s.resolver, p)
	limit, offset := clampPage(f.Limit, f.Offset)

	return s.listings.List(ctx, domain.ListingQuery{
		TenantID: v.tenantID,
		OwnerID:  v.ownerID,
		Status:   f.Status,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetListing returns a listing if p can see it. Listings outside the scope
// are reported as not found. Tenant-bound callers never load another
// tenant's row.
func (s *ListingService) GetListing(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Listing, error) {
	v := visibilityFor(s.resolver, p)

	var (
		listing *domain.Listing
		err     error
	)
	if v.tenantID != nil {
		listing, err = s.listings.GetByIDInTenant(ctx, *v.tenantID, id)
	} else {
		listing, err = s.listings.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !v.allows(listing.TenantID, listing.OwnerID) {
		return nil, domain.NotFoundError("listing")
	}
	return listing, nil
}

// CreateListing creates a listing owned by the caller
func (s *ListingService) CreateListing(ctx context.Context, p domain.Principal, req CreateListingRequest) (*domain.Listing, error) {
	visible := true
	if req.IsPubliclyVisible != nil {
		visible = *req.IsPubliclyVisible
	}

	return s.quota.CreateListing(ctx, p.AccountID, &domain.Listing{
		Title:             req.Title,
		Description:       req.Description,
		PropertyType:      req.PropertyType,
		Price:             req.Price,
		City:              req.City,
		Address:           req.Address,
		Bedrooms:          req.Bedrooms,
		Bathrooms:         req.Bathrooms,
		AreaSqFt:          req.AreaSqFt,
		Status:            req.Status,
		IsPubliclyVisible: visible,
		IsFeatured:        req.IsFeatured,
	})
}

func (s *ListingService) ChangeStatus(ctx context.Context, p domain.Principal, id uuid.UUID, status domain.ListingStatus) (*domain.Listing, error) {
	listing, err := s.GetListing(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.quota.ChangeListingStatus(ctx, listing, status)
}

func (s *ListingService) DeleteListing(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	listing, err := s.GetListing(ctx, p, id)
	if err != nil {
		return err
	}
	return s.quota.DeleteListing(ctx, listing)
}

// ListInquiries returns the inquiries on a listing p can see
func (s *ListingService) ListInquiries(ctx context.Context, p domain.Principal, id uuid.UUID, limit, offset int) ([]*domain.Inquiry, error) {
	listing, err := s.GetListing(ctx, p, id)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.inquiries.ListByListing(ctx, listing.ID, limit, offset)
}
