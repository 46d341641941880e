package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)

	// GetByIDInTenant returns NotFound for a listing outside tenantID
	GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error)

	List(ctx context.Context, q domain.ListingQuery) ([]*domain.Listing, int, error)

	// CountActiveByOwner counts active listings in the owner's tenant
	CountActiveByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error)

	IncrementInquiryCount(ctx context.Context, id uuid.UUID) error

	// Public catalog; results never carry tenant-internal fields
	ListPublic(ctx context.Context, f domain.PublicListingFilter) ([]*domain.ProjectedListing, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*domain.ProjectedListing, error)
}
