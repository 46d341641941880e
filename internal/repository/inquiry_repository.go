package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	ListByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*domain.Inquiry, error)
}
