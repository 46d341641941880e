package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

type LeadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, q domain.LeadQuery) ([]*domain.Lead, int, error)
	CountByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error)
}
