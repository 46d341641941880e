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

const accountColumns = `
	id, tenant_id, account_type, is_company_owner, parent_company_id, roles,
	email, password_hash, first_name, last_name, phone, company_name, is_active,
	quota_unlimited, max_active_listings, current_active_listings,
	max_customers, current_customers, max_employees, current_employees,
	max_listings_per_employee, max_customers_per_employee,
	created_at, updated_at`

const insertAccountQuery = `
	INSERT INTO accounts (` + accountColumns + `
	) VALUES (
		:id, :tenant_id, :account_type, :is_company_owner, :parent_company_id, :roles,
		:email, :password_hash, :first_name, :last_name, :phone, :company_name, :is_active,
		:quota_unlimited, :max_active_listings, :current_active_listings,
		:max_customers, :current_customers, :max_employees, :current_employees,
		:max_listings_per_employee, :max_customers_per_employee,
		:created_at, :updated_at
	)`

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

type accountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	return insertAccount(ctx, r.db, account)
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("account")
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return &account, nil
}

// GetByEmail retrieves an account by its login email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("account")
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}

// SetActive flips the soft-deactivation flag
func (r *accountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return setAccountActive(ctx, r.db, id, active)
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if rows == 0 {
		return domain.NotFoundError("account")
	}
	return nil
}

// ListEmployees returns every account attached to a company, tenant first
func (r *accountRepository) ListEmployees(ctx context.Context, tenantID, companyID uuid.UUID) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND parent_company_id = $2
		ORDER BY created_at ASC`

	var accounts []*domain.Account
	if err := r.db.SelectContext(ctx, &accounts, query, tenantID, companyID); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	return accounts, nil
}

func insertAccount(ctx context.Context, db sqlx.ExtContext, account *domain.Account) error {
	if _, err := sqlx.NamedExecContext(ctx, db, insertAccountQuery, account); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("email already registered: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func setAccountActive(ctx context.Context, db sqlx.ExecerContext, id uuid.UUID, active bool) error {
	query := `UPDATE accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.NotFoundError("account")
	}

	return nil
}
