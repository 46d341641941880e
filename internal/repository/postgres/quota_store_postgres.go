package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

type quotaStore struct {
	db *sqlx.DB
}

// NewQuotaStore creates a quota store that serialises units of work on the
// account row with SELECT ... FOR UPDATE.
func NewQuotaStore(db *sqlx.DB) repository.QuotaStore {
	return &quotaStore{db: db}
}

// Attempts made before a unit that keeps losing serialization races gives up
const maxLockAttempts = 10

const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// WithAccountLock runs fn inside a repeatable read transaction that holds
// the account row lock. A unit that waited on the lock while another unit
// changed the row fails with a serialization error and is retried from a
// fresh snapshot, so fn must be safe to run more than once.
func (s *quotaStore) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(tx repository.QuotaTx) error) error {
	var err error
	for attempt := 1; attempt <= maxLockAttempts; attempt++ {
		err = s.runLocked(ctx, accountID, fn)
		if !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("account %s still contended after %d attempts: %w", accountID, maxLockAttempts, err)
}

func (s *quotaStore) runLocked(ctx context.Context, accountID uuid.UUID, fn func(tx repository.QuotaTx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &account, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError("account")
		}
		return fmt.Errorf("failed to lock account: %w", err)
	}

	if err := fn(&quotaTx{tx: tx, account: &account}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected
}

type quotaTx struct {
	tx      *sqlx.Tx
	account *domain.Account
}

func (t *quotaTx) Account() *domain.Account {
	return t.account
}

func (t *quotaTx) CountActiveListings(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	return countActiveListings(ctx, t.tx, tenantID, ownerID)
}

func (t *quotaTx) CountLeads(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	return countLeads(ctx, t.tx, tenantID, ownerID)
}

func (t *quotaTx) CountActiveEmployees(ctx context.Context, tenantID, companyID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM accounts
		WHERE tenant_id = $1 AND parent_company_id = $2 AND is_active = TRUE`

	var count int
	if err := t.tx.GetContext(ctx, &count, query, tenantID, companyID); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

func (t *quotaTx) InsertListing(ctx context.Context, listing *domain.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `
		) VALUES (
			:id, :tenant_id, :owner_id, :title, :description, :property_type, :price, :city,
			:address, :bedrooms, :bathrooms, :area_sq_ft, :status, :is_publicly_visible,
			:is_featured, :inquiry_count, :created_at, :updated_at
		)`

	if _, err := t.tx.NamedExecContext(ctx, query, listing); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (t *quotaTx) InsertLead(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `
		) VALUES (
			:id, :tenant_id, :owner_id, :listing_id, :inquiry_id, :first_name, :last_name,
			:email, :phone, :lead_source, :status, :notes, :created_at, :updated_at
		)`

	if _, err := t.tx.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (t *quotaTx) InsertAccount(ctx context.Context, account *domain.Account) error {
	return insertAccount(ctx, t.tx, account)
}

func (t *quotaTx) GetListing(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE tenant_id = $1 AND id = $2 FOR UPDATE`

	var listing domain.Listing
	if err := t.tx.GetContext(ctx, &listing, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("listing")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (t *quotaTx) GetLead(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND id = $2 FOR UPDATE`

	var lead domain.Lead
	if err := t.tx.GetContext(ctx, &lead, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("lead")
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

func (t *quotaTx) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND id = $2`

	var account domain.Account
	if err := t.tx.GetContext(ctx, &account, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("account")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (t *quotaTx) UpdateListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error {
	query := `UPDATE listings SET status = $2, updated_at = NOW() WHERE id = $1`
	return t.execOne(ctx, "listing", "failed to update listing status", query, id, status)
}

func (t *quotaTx) DeleteListing(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, "listing", "failed to delete listing", `DELETE FROM listings WHERE id = $1`, id)
}

func (t *quotaTx) DeleteLead(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, "lead", "failed to delete lead", `DELETE FROM leads WHERE id = $1`, id)
}

func (t *quotaTx) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) error {
	return setAccountActive(ctx, t.tx, id, active)
}

// usageColumns maps each governed resource to its counter column
var usageColumns = map[domain.Resource]string{
	domain.ResourceListing:  "current_active_listings",
	domain.ResourceCustomer: "current_customers",
	domain.ResourceEmployee: "current_employees",
}

func (t *quotaTx) SetUsage(ctx context.Context, r domain.Resource, current int) error {
	column, ok := usageColumns[r]
	if !ok {
		return fmt.Errorf("unknown resource %q: %w", r, domain.ErrInvalidInput)
	}
	if current < 0 {
		current = 0
	}

	query := `UPDATE accounts SET ` + column + ` = $2, updated_at = NOW() WHERE id = $1`
	if err := t.execOne(ctx, "account", "failed to update usage", query, t.account.ID, current); err != nil {
		return err
	}

	switch r {
	case domain.ResourceListing:
		t.account.CurrentActiveListings = current
	case domain.ResourceCustomer:
		t.account.CurrentCustomers = current
	case domain.ResourceEmployee:
		t.account.CurrentEmployees = current
	}
	return nil
}

func (t *quotaTx) UpdateCeilings(ctx context.Context, q domain.Quota) error {
	query := `
		UPDATE accounts SET
			max_active_listings = $2,
			max_customers = $3,
			max_employees = $4,
			max_listings_per_employee = $5,
			max_customers_per_employee = $6,
			updated_at = NOW()
		WHERE id = $1`

	err := t.execOne(ctx, "account", "failed to update quota", query, t.account.ID,
		q.MaxActiveListings, q.MaxCustomers, q.MaxEmployees,
		q.MaxListingsPerEmployee, q.MaxCustomersPerEmployee)
	if err != nil {
		return err
	}

	t.account.MaxActiveListings = q.MaxActiveListings
	t.account.MaxCustomers = q.MaxCustomers
	t.account.MaxEmployees = q.MaxEmployees
	t.account.MaxListingsPerEmployee = q.MaxListingsPerEmployee
	t.account.MaxCustomersPerEmployee = q.MaxCustomersPerEmployee
	return nil
}

func (t *quotaTx) execOne(ctx context.Context, entity, msg, query string, args ...interface{}) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.NotFoundError(entity)
	}
	return nil
}
