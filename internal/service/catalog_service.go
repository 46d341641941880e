package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

// CatalogService serves the customer-facing catalog. It never returns
// tenant, owner, or quota data.
type CatalogService struct {
	listings repository.ListingRepository
}

func NewCatalogService(listings repository.ListingRepository) *CatalogService {
	return &CatalogService{listings: listings}
}

// GetPublicListings returns active, publicly visible listings matching f
func (s *CatalogService) GetPublicListings(ctx context.Context, f domain.PublicListingFilter) ([]*domain.ProjectedListing, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	return s.listings.ListPublic(ctx, f)
}

// GetPublicListing returns one public listing or a not found error
func (s *CatalogService) GetPublicListing(ctx context.Context, id uuid.UUID) (*domain.ProjectedListing, error) {
	return s.listings.GetPublic(ctx, id)
}
