package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

const leadColumns = `
	id, tenant_id, owner_id, listing_id, inquiry_id, first_name, last_name,
	email, phone, lead_source, status, notes, created_at, updated_at`

type leadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository creates a new PostgreSQL lead repository
func NewLeadRepository(db *sqlx.DB) repository.LeadRepository {
	return &leadRepository{db: db}
}

// GetByID retrieves a lead by ID
func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("lead")
		}
		return nil, fmt.Errorf("failed to get lead by id: %w", err)
	}

	return &lead, nil
}

func (r *leadRepository) GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND id = $2`

	var lead domain.Lead
	if err := r.db.GetContext(ctx, &lead, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("lead")
		}
		return nil, fmt.Errorf("failed to get lead by id: %w", err)
	}

	return &lead, nil
}

// List retrieves leads matching q with the total match count
func (r *leadRepository) List(ctx context.Context, q domain.LeadQuery) ([]*domain.Lead, int, error) {
	var w where
	if q.TenantID != nil {
		w.add("tenant_id = ?", *q.TenantID)
	}
	if q.OwnerID != nil {
		w.add("owner_id = ?", *q.OwnerID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM leads` + w.clause()
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + w.clause() +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args := append(w.args, q.Limit, q.Offset)

	var leads []*domain.Lead
	if err := r.db.SelectContext(ctx, &leads, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, total, nil
}

// CountByOwner counts every lead the owner holds regardless of status
func (r *leadRepository) CountByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	return countLeads(ctx, r.db, tenantID, ownerID)
}

func countLeads(ctx context.Context, db sqlx.QueryerContext, tenantID, ownerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM leads WHERE tenant_id = $1 AND owner_id = $2`

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, tenantID, ownerID); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}
