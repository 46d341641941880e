package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

// QuotaStore runs a unit of work against a single account with that
// account's row locked for the whole unit. Two units for the same account
// never interleave, so a check performed inside fn stays true until fn's
// writes are committed.
type QuotaStore interface {
	// WithAccountLock loads and locks accountID, then runs fn. fn's writes are
	// committed only if it returns nil. Returns an error wrapping
	// domain.ErrNotFound if the account does not exist.
	WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(tx QuotaTx) error) error
}

// QuotaTx is the view of the system of record available inside a locked
// unit of work. Count methods read live rows and take the tenant first.
type QuotaTx interface {
	// Account is the locked account as read at the start of the unit
	Account() *domain.Account

	CountActiveListings(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error)
	CountLeads(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error)
	CountActiveEmployees(ctx context.Context, tenantID, companyID uuid.UUID) (int, error)

	InsertListing(ctx context.Context, listing *domain.Listing) error
	InsertLead(ctx context.Context, lead *domain.Lead) error
	InsertAccount(ctx context.Context, account *domain.Account) error

	// GetListing and GetLead lock the row they return
	GetListing(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error)
	GetLead(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error)
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error)

	UpdateListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
	SetAccountActive(ctx context.Context, id uuid.UUID, active bool) error

	// SetUsage stores the live usage of r on the locked account's counter
	SetUsage(ctx context.Context, r domain.Resource, current int) error

	// UpdateCeilings persists new ceilings for the locked account
	UpdateCeilings(ctx context.Context, q domain.Quota) error
}
