package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

type inquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository creates a new PostgreSQL inquiry repository
func NewInquiryRepository(db *sqlx.DB) repository.InquiryRepository {
	return &inquiryRepository{db: db}
}

// Create records an inquiry
func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	query := `
		INSERT INTO inquiries (id, listing_id, name, email, phone, message, created_at)
		VALUES (:id, :listing_id, :name, :email, :phone, :message, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}

	return nil
}

// ListByListing returns inquiries for a listing, newest first
func (r *inquiryRepository) ListByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*domain.Inquiry, error) {
	query := `
		SELECT id, listing_id, name, email, phone, message, created_at
		FROM inquiries
		WHERE listing_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var inquiries []*domain.Inquiry
	if err := r.db.SelectContext(ctx, &inquiries, query, listingID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}

	return inquiries, nil
}
