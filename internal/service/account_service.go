package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
	"github.com/andressep95/realty-core/pkg/hash"
)

// TokenRevoker invalidates every token issued to an account so far
type TokenRevoker interface {
	RevokeAccount(ctx context.Context, accountID string, ttl time.Duration) error
}

type AccountService struct {
	accounts  repository.AccountRepository
	store     repository.QuotaStore
	revoker   TokenRevoker
	revokeTTL time.Duration
	hasher    *hash.Hasher
	log       *zap.Logger
}

type CreateAccountRequest struct {
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required,min=8"`
	FirstName   string             `json:"first_name" validate:"required"`
	LastName    string             `json:"last_name"`
	Phone       string             `json:"phone" validate:"omitempty,phone"`
	CompanyName string             `json:"company_name" validate:"required_if=AccountType corporate_company"`
	AccountType domain.AccountType `json:"account_type" validate:"required,account_type"`
}

type AddEmployeeRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

// UpgradeQuotaRequest carries new ceilings; nil fields keep their value
type UpgradeQuotaRequest struct {
	MaxActiveListings       *int `json:"max_active_listings" validate:"omitempty,gte=0"`
	MaxCustomers            *int `json:"max_customers" validate:"omitempty,gte=0"`
	MaxEmployees            *int `json:"max_employees" validate:"omitempty,gte=0"`
	MaxListingsPerEmployee  *int `json:"max_listings_per_employee" validate:"omitempty,gte=0"`
	MaxCustomersPerEmployee *int `json:"max_customers_per_employee" validate:"omitempty,gte=0"`
}

// revoker may be nil when Redis is disabled
func NewAccountService(
	accounts repository.AccountRepository,
	store repository.QuotaStore,
	revoker TokenRevoker,
	revokeTTL time.Duration,
	hasher *hash.Hasher,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		store:     store,
		revoker:   revoker,
		revokeTTL: revokeTTL,
		hasher:    hasher,
		log:       log,
	}
}

// CreateAccount onboards a top-level account in its own tenant. Company
// accounts created here are owners; employees go through AddEmployee.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("unknown account type %q: %w", req.AccountType, domain.ErrInvalidInput)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	owner := req.AccountType == domain.AccountTypeCorporateCompany
	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		AccountType:    req.AccountType,
		IsCompanyOwner: owner,
		Roles:          domain.DefaultRoles(req.AccountType, owner),
		Email:          normalizeEmail(req.Email),
		PasswordHash:   passwordHash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		CompanyName:    req.CompanyName,
		IsActive:       true,
		Quota:          domain.InitialQuota(req.AccountType, owner),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("account_type", string(account.AccountType)),
	)
	return account, nil
}

// AddEmployee creates an employee under ownerID. The owner row stays locked
// from the employee count until the insert commits.
func (s *AccountService) AddEmployee(ctx context.Context, ownerID uuid.UUID, req AddEmployeeRequest) (*domain.Account, error) {
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var employee *domain.Account
	err = s.store.WithAccountLock(ctx, ownerID, func(tx repository.QuotaTx) error {
		owner := tx.Account()
		if !owner.IsCompanyOwner || !owner.IsActive {
			return fmt.Errorf("only active company owners can add employees: %w", domain.ErrForbidden)
		}

		live, err := tx.CountActiveEmployees(ctx, owner.TenantID, owner.ID)
		if err != nil {
			return err
		}
		if d := evaluate(owner, domain.ResourceEmployee, live); !d.Allowed {
			return d.Err()
		}

		quota := domain.InitialQuota(domain.AccountTypeCorporateCompany, false)
		if owner.MaxListingsPerEmployee > 0 {
			quota.MaxActiveListings = owner.MaxListingsPerEmployee
		}
		if owner.MaxCustomersPerEmployee > 0 {
			quota.MaxCustomers = owner.MaxCustomersPerEmployee
		}

		parent := owner.ID
		now := time.Now().UTC()
		employee = &domain.Account{
			ID:              uuid.New(),
			TenantID:        owner.TenantID,
			AccountType:     domain.AccountTypeCorporateCompany,
			ParentCompanyID: &parent,
			Roles:           domain.DefaultRoles(domain.AccountTypeCorporateCompany, false),
			Email:           normalizeEmail(req.Email),
			PasswordHash:    passwordHash,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Phone:           req.Phone,
			IsActive:        true,
			Quota:           quota,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := tx.InsertAccount(ctx, employee); err != nil {
			return err
		}
		return tx.SetUsage(ctx, domain.ResourceEmployee, live+1)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("employee added",
		zap.String("owner_id", ownerID.String()),
		zap.String("employee_id", employee.ID.String()),
	)
	return employee, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// ListEmployees returns the employees of a company owner
func (s *AccountService) ListEmployees(ctx context.Context, ownerID uuid.UUID) ([]*domain.Account, error) {
	owner, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsCompanyOwner {
		return nil, fmt.Errorf("only company owners have employees: %w", domain.ErrForbidden)
	}
	return s.accounts.ListEmployees(ctx, owner.TenantID, owner.ID)
}

// DeactivateAccount soft-deactivates an account and revokes its tokens.
// Owned resources are kept. An employee's slot on its owner is released.
func (s *AccountService) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if account.IsEmployee() {
		err = s.store.WithAccountLock(ctx, *account.ParentCompanyID, func(tx repository.QuotaTx) error {
			owner := tx.Account()
			if _, err := tx.GetAccount(ctx, owner.TenantID, id); err != nil {
				return err
			}
			if err := tx.SetAccountActive(ctx, id, false); err != nil {
				return err
			}
			live, err := tx.CountActiveEmployees(ctx, owner.TenantID, owner.ID)
			if err != nil {
				return err
			}
			return tx.SetUsage(ctx, domain.ResourceEmployee, live)
		})
	} else {
		err = s.store.WithAccountLock(ctx, id, func(tx repository.QuotaTx) error {
			return tx.SetAccountActive(ctx, id, false)
		})
	}
	if err != nil {
		return err
	}

	s.log.Info("account deactivated", zap.String("account_id", id.String()))

	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.RevokeAccount(ctx, id.String(), s.revokeTTL); err != nil {
		return fmt.Errorf("account deactivated but token revocation failed: %w", err)
	}
	return nil
}

// UpgradeQuota changes an account's ceilings. A ceiling below live usage is
// rejected. For company owners whose own listing or customer ceiling is not
// given, it is re-derived from the employee and per-employee ceilings.
func (s *AccountService) UpgradeQuota(ctx context.Context, accountID uuid.UUID, req UpgradeQuotaRequest) (*domain.Account, error) {
	var updated domain.Account
	err := s.store.WithAccountLock(ctx, accountID, func(tx repository.QuotaTx) error {
		account := tx.Account()
		switch {
		case account.Unlimited:
			return fmt.Errorf("platform admins have no ceilings: %w", domain.ErrInvalidInput)
		case account.AccountType == domain.AccountTypeCustomer:
			return fmt.Errorf("customer accounts cannot hold quota: %w", domain.ErrInvalidInput)
		}

		q := account.Quota
		apply := func(dst *int, v *int) {
			if v != nil {
				*dst = *v
			}
		}
		apply(&q.MaxActiveListings, req.MaxActiveListings)
		apply(&q.MaxCustomers, req.MaxCustomers)
		if account.IsCompanyOwner {
			apply(&q.MaxEmployees, req.MaxEmployees)
			apply(&q.MaxListingsPerEmployee, req.MaxListingsPerEmployee)
			apply(&q.MaxCustomersPerEmployee, req.MaxCustomersPerEmployee)

			derived := domain.OwnerQuota(q.MaxEmployees, q.MaxListingsPerEmployee, q.MaxCustomersPerEmployee)
			if req.MaxActiveListings == nil {
				q.MaxActiveListings = derived.MaxActiveListings
			}
			if req.MaxCustomers == nil {
				q.MaxCustomers = derived.MaxCustomers
			}
		}

		var errs []error
		check := func(r domain.Resource, ceiling int, live func() (int, error)) {
			n, err := live()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ceiling < n {
				errs = append(errs, fmt.Errorf("%s ceiling %d is below current usage %d: %w", r, ceiling, n, domain.ErrInvalidInput))
			}
		}
		check(domain.ResourceListing, q.MaxActiveListings, func() (int, error) {
			return tx.CountActiveListings(ctx, account.TenantID, account.ID)
		})
		check(domain.ResourceCustomer, q.MaxCustomers, func() (int, error) {
			return tx.CountLeads(ctx, account.TenantID, account.ID)
		})
		if account.IsCompanyOwner {
			check(domain.ResourceEmployee, q.MaxEmployees, func() (int, error) {
				return tx.CountActiveEmployees(ctx, account.TenantID, account.ID)
			})
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}

		if err := tx.UpdateCeilings(ctx, q); err != nil {
			return err
		}
		updated = *account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quota updated",
		zap.String("account_id", accountID.String()),
		zap.Int("max_active_listings", updated.MaxActiveListings),
		zap.Int("max_customers", updated.MaxCustomers),
		zap.Int("max_employees", updated.MaxEmployees),
	)
	return &updated, nil
}

// BootstrapAdmin makes sure a platform admin with the given email exists
func (s *AccountService) BootstrapAdmin(ctx context.Context, email, password string) (*domain.Account, error) {
	existing, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return s.CreateAccount(ctx, CreateAccountRequest{
		Email:       email,
		Password:    password,
		FirstName:   "Platform",
		LastName:    "Admin",
		AccountType: domain.AccountTypePlatformAdmin,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
