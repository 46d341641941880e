package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

const listingColumns = `
	id, tenant_id, owner_id, title, description, property_type, price, city,
	address, bedrooms, bathrooms, area_sq_ft, status, is_publicly_visible,
	is_featured, inquiry_count, created_at, updated_at`

// MaxPublicPageSize caps a single public catalog page
const MaxPublicPageSize = 100

type listingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new PostgreSQL listing repository
func NewListingRepository(db *sqlx.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

// GetByID retrieves a listing by ID without any tenant predicate. Callers
// apply visibility rules to the result.
func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	var listing domain.Listing
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("listing")
		}
		return nil, fmt.Errorf("failed to get listing by id: %w", err)
	}

	return &listing, nil
}

// GetByIDInTenant retrieves a listing by ID within one tenant
func (r *listingRepository) GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE tenant_id = $1 AND id = $2`

	var listing domain.Listing
	if err := r.db.GetContext(ctx, &listing, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("listing")
		}
		return nil, fmt.Errorf("failed to get listing by id: %w", err)
	}

	return &listing, nil
}

// List retrieves listings matching q with the total match count
func (r *listingRepository) List(ctx context.Context, q domain.ListingQuery) ([]*domain.Listing, int, error) {
	var w where
	if q.TenantID != nil {
		w.add("tenant_id = ?", *q.TenantID)
	}
	if q.OwnerID != nil {
		w.add("owner_id = ?", *q.OwnerID)
	}
	if q.Status != nil {
		w.add("status = ?", *q.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM listings` + w.clause()
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + w.clause() +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args := append(w.args, q.Limit, q.Offset)

	var listings []*domain.Listing
	if err := r.db.SelectContext(ctx, &listings, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, total, nil
}

// CountActiveByOwner counts the owner's active listings
func (r *listingRepository) CountActiveByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	return countActiveListings(ctx, r.db, tenantID, ownerID)
}

// IncrementInquiryCount bumps the denormalised inquiry counter
func (r *listingRepository) IncrementInquiryCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE listings SET inquiry_count = inquiry_count + 1 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment inquiry count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.NotFoundError("listing")
	}

	return nil
}

// publicListingRow is the flat shape of the catalog join
type publicListingRow struct {
	ID           uuid.UUID `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	PropertyType string    `db:"property_type"`
	Price        float64   `db:"price"`
	City         string    `db:"city"`
	Address      string    `db:"address"`
	Bedrooms     int       `db:"bedrooms"`
	Bathrooms    int       `db:"bathrooms"`
	AreaSqFt     float64   `db:"area_sq_ft"`
	IsFeatured   bool      `db:"is_featured"`
	CreatedAt    time.Time `db:"created_at"`
	FirstName    string    `db:"broker_first_name"`
	LastName     string    `db:"broker_last_name"`
	Phone        string    `db:"broker_phone"`
	Email        string    `db:"broker_email"`
	CompanyName  string    `db:"broker_company_name"`
}

func (row *publicListingRow) project() *domain.ProjectedListing {
	broker := domain.Account{FirstName: row.FirstName, LastName: row.LastName}
	return &domain.ProjectedListing{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		PropertyType: row.PropertyType,
		Price:        row.Price,
		City:         row.City,
		Address:      row.Address,
		Bedrooms:     row.Bedrooms,
		Bathrooms:    row.Bathrooms,
		AreaSqFt:     row.AreaSqFt,
		IsFeatured:   row.IsFeatured,
		CreatedAt:    row.CreatedAt,
		Broker: domain.BrokerContact{
			Name:        broker.FullName(),
			Phone:       row.Phone,
			Email:       row.Email,
			CompanyName: row.CompanyName,
		},
	}
}

const publicListingSelect = `
	SELECT l.id, l.title, l.description, l.property_type, l.price, l.city,
		   l.address, l.bedrooms, l.bathrooms, l.area_sq_ft, l.is_featured, l.created_at,
		   a.first_name AS broker_first_name, a.last_name AS broker_last_name,
		   a.phone AS broker_phone, a.email AS broker_email,
		   COALESCE(NULLIF(c.company_name, ''), a.company_name, '') AS broker_company_name
	FROM listings l
	JOIN accounts a ON a.id = l.owner_id
	LEFT JOIN accounts c ON c.id = a.parent_company_id`

// ListPublic returns active, publicly visible listings of active brokers,
// featured first
func (r *listingRepository) ListPublic(ctx context.Context, f domain.PublicListingFilter) ([]*domain.ProjectedListing, error) {
	var w where
	if f.TenantID != nil {
		w.add("l.tenant_id = ?", *f.TenantID)
	}
	w.add("l.status = ?", domain.ListingStatusActive)
	w.add("l.is_publicly_visible = ?", true)
	w.add("a.is_active = ?", true)
	if f.City != "" {
		w.add("LOWER(l.city) = LOWER(?)", f.City)
	}
	if f.PropertyType != "" {
		w.add("l.property_type = ?", f.PropertyType)
	}
	if f.MinPrice != nil {
		w.add("l.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("l.price <= ?", *f.MaxPrice)
	}
	if f.MinBedrooms != nil {
		w.add("l.bedrooms >= ?", *f.MinBedrooms)
	}

	limit := f.Limit
	if limit <= 0 || limit > MaxPublicPageSize {
		limit = MaxPublicPageSize
	}

	query := publicListingSelect + w.clause() +
		` ORDER BY l.is_featured DESC, l.created_at DESC LIMIT ? OFFSET ?`
	args := append(w.args, limit, f.Offset)

	var rows []publicListingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list public listings: %w", err)
	}

	listings := make([]*domain.ProjectedListing, 0, len(rows))
	for i := range rows {
		listings = append(listings, rows[i].project())
	}

	return listings, nil
}

// GetPublic returns one listing if it is active and publicly visible
func (r *listingRepository) GetPublic(ctx context.Context, id uuid.UUID) (*domain.ProjectedListing, error) {
	query := publicListingSelect + `
		WHERE l.id = $1 AND l.status = $2 AND l.is_publicly_visible = TRUE AND a.is_active = TRUE`

	var row publicListingRow
	if err := r.db.GetContext(ctx, &row, query, id, domain.ListingStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("listing")
		}
		return nil, fmt.Errorf("failed to get public listing: %w", err)
	}

	return row.project(), nil
}

func countActiveListings(ctx context.Context, db sqlx.QueryerContext, tenantID, ownerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM listings WHERE tenant_id = $1 AND owner_id = $2 AND status = $3`

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, tenantID, ownerID, domain.ListingStatusActive); err != nil {
		return 0, fmt.Errorf("failed to count active listings: %w", err)
	}
	return count, nil
}

// where accumulates AND-ed predicates written with ? placeholders; callers
// rebind the final query for the driver.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
