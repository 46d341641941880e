package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	ListEmployees(ctx context.Context, tenantID, companyID uuid.UUID) ([]*domain.Account, error)
}
