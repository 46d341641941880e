package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
	"github.com/andressep95/realty-core/pkg/metrics"
)

// Decision is the outcome of a quota check. Limit and Current are reported
// even when the check allows.
type Decision struct {
	Allowed  bool            `json:"allowed"`
	Reason   string          `json:"reason,omitempty"`
	Resource domain.Resource `json:"resource"`
	Limit    int             `json:"limit"`
	Current  int             `json:"current"`
}

// Err converts a deny into a *domain.QuotaExceededError, nil on allow
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.QuotaExceededError{
		Resource: d.Resource,
		Limit:    d.Limit,
		Current:  d.Current,
		Reason:   d.Reason,
	}
}

// evaluate decides whether account may hold one more r given live, the
// number it holds right now.
func evaluate(account *domain.Account, r domain.Resource, live int) Decision {
	d := Decision{Resource: r, Limit: account.Ceiling(r), Current: live}

	switch {
	case account.Unlimited || account.AccountType == domain.AccountTypePlatformAdmin:
		d.Allowed = true
		return d
	case !account.IsActive:
		d.Reason = "account is deactivated"
		return d
	case account.AccountType == domain.AccountTypeCustomer:
		d.Reason = fmt.Sprintf("customer accounts cannot hold %ss", r)
		return d
	case live >= d.Limit:
		d.Reason = fmt.Sprintf("%s limit reached: %d of %d in use", r, live, d.Limit)
		return d
	}

	d.Allowed = true
	return d
}

// QuotaService gates every creation of a quota-bound resource. Checks that
// precede a write run inside the same locked unit as the write.
type QuotaService struct {
	accounts repository.AccountRepository
	listings repository.ListingRepository
	leads    repository.LeadRepository
	store    repository.QuotaStore
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewQuotaService(
	accounts repository.AccountRepository,
	listings repository.ListingRepository,
	leads repository.LeadRepository,
	store repository.QuotaStore,
	m *metrics.Metrics,
	log *zap.Logger,
) *QuotaService {
	return &QuotaService{
		accounts: accounts,
		listings: listings,
		leads:    leads,
		store:    store,
		metrics:  m,
		log:      log,
	}
}

// CanCreateListing reports whether the account may activate one more
// listing. It is advisory: CreateListing re-checks under the account lock.
func (s *QuotaService) CanCreateListing(ctx context.Context, accountID uuid.UUID) (*Decision, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	live, err := s.listings.CountActiveByOwner(ctx, account.TenantID, account.ID)
	if err != nil {
		return nil, err
	}

	d := evaluate(account, domain.ResourceListing, live)
	s.metrics.QuotaDecision(string(d.Resource), d.Allowed)
	return &d, nil
}

// CanAddCustomer reports whether the account may take one more lead
func (s *QuotaService) CanAddCustomer(ctx context.Context, accountID uuid.UUID) (*Decision, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	live, err := s.leads.CountByOwner(ctx, account.TenantID, account.ID)
	if err != nil {
		return nil, err
	}

	d := evaluate(account, domain.ResourceCustomer, live)
	s.metrics.QuotaDecision(string(d.Resource), d.Allowed)
	return &d, nil
}

// CreateListing inserts a listing owned by ownerID. Tenant and owner come
// from the locked account, never from the input. A listing created active
// counts toward the active listing ceiling.
func (s *QuotaService) CreateListing(ctx context.Context, ownerID uuid.UUID, listing *domain.Listing) (*domain.Listing, error) {
	if listing.Status == "" {
		listing.Status = domain.ListingStatusActive
	}
	if !listing.Status.IsValid() {
		return nil, fmt.Errorf("unknown listing status %q: %w", listing.Status, domain.ErrInvalidInput)
	}

	var decision Decision
	err := s.store.WithAccountLock(ctx, ownerID, func(tx repository.QuotaTx) error {
		account := tx.Account()

		live, err := tx.CountActiveListings(ctx, account.TenantID, account.ID)
		if err != nil {
			return err
		}

		// inactive listings only need the owner to be eligible at all
		count := live
		if listing.Status != domain.ListingStatusActive {
			count = 0
		}
		decision = evaluate(account, domain.ResourceListing, count)
		decision.Current = live
		if !decision.Allowed {
			return decision.Err()
		}

		now := time.Now().UTC()
		listing.ID = uuid.New()
		listing.TenantID = account.TenantID
		listing.OwnerID = account.ID
		listing.InquiryCount = 0
		listing.CreatedAt = now
		listing.UpdatedAt = now

		if err := tx.InsertListing(ctx, listing); err != nil {
			return err
		}

		if listing.Status == domain.ListingStatusActive {
			return tx.SetUsage(ctx, domain.ResourceListing, live+1)
		}
		return nil
	})
	s.recordDecision(decision)
	if err != nil {
		return nil, err
	}

	s.log.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("status", string(listing.Status)),
	)
	return listing, nil
}

// CreateLead inserts a lead owned by ownerID, gated by the customer ceiling
func (s *QuotaService) CreateLead(ctx context.Context, ownerID uuid.UUID, lead *domain.Lead) (*domain.Lead, error) {
	var decision Decision
	err := s.store.WithAccountLock(ctx, ownerID, func(tx repository.QuotaTx) error {
		account := tx.Account()

		live, err := tx.CountLeads(ctx, account.TenantID, account.ID)
		if err != nil {
			return err
		}

		decision = evaluate(account, domain.ResourceCustomer, live)
		if !decision.Allowed {
			return decision.Err()
		}

		now := time.Now().UTC()
		lead.ID = uuid.New()
		lead.TenantID = account.TenantID
		lead.OwnerID = account.ID
		if lead.Status == "" {
			lead.Status = domain.LeadStatusNew
		}
		lead.CreatedAt = now
		lead.UpdatedAt = now

		if err := tx.InsertLead(ctx, lead); err != nil {
			return err
		}
		return tx.SetUsage(ctx, domain.ResourceCustomer, live+1)
	})
	s.recordDecision(decision)
	if err != nil {
		return nil, err
	}

	return lead, nil
}

// ChangeListingStatus moves a listing between lifecycle states. Entering
// active is gated like a creation; leaving active frees a slot.
func (s *QuotaService) ChangeListingStatus(ctx context.Context, listing *domain.Listing, status domain.ListingStatus) (*domain.Listing, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown listing status %q: %w", status, domain.ErrInvalidInput)
	}

	var (
		updated  *domain.Listing
		decision Decision
	)
	err := s.store.WithAccountLock(ctx, listing.OwnerID, func(tx repository.QuotaTx) error {
		account := tx.Account()

		current, err := tx.GetListing(ctx, account.TenantID, listing.ID)
		if err != nil {
			return err
		}
		updated = current
		if current.Status == status {
			return nil
		}

		live, err := tx.CountActiveListings(ctx, account.TenantID, account.ID)
		if err != nil {
			return err
		}

		entering := status == domain.ListingStatusActive
		leaving := current.Status == domain.ListingStatusActive

		if entering {
			decision = evaluate(account, domain.ResourceListing, live)
			if !decision.Allowed {
				return decision.Err()
			}
		}

		if err := tx.UpdateListingStatus(ctx, current.ID, status); err != nil {
			return err
		}
		current.Status = status
		current.UpdatedAt = time.Now().UTC()

		switch {
		case entering:
			return tx.SetUsage(ctx, domain.ResourceListing, live+1)
		case leaving:
			return tx.SetUsage(ctx, domain.ResourceListing, live-1)
		}
		return nil
	})
	s.recordDecision(decision)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteListing removes a listing and frees its slot if it was active
func (s *QuotaService) DeleteListing(ctx context.Context, listing *domain.Listing) error {
	return s.store.WithAccountLock(ctx, listing.OwnerID, func(tx repository.QuotaTx) error {
		account := tx.Account()

		current, err := tx.GetListing(ctx, account.TenantID, listing.ID)
		if err != nil {
			return err
		}

		if err := tx.DeleteListing(ctx, current.ID); err != nil {
			return err
		}

		if current.Status != domain.ListingStatusActive {
			return nil
		}
		live, err := tx.CountActiveListings(ctx, account.TenantID, account.ID)
		if err != nil {
			return err
		}
		return tx.SetUsage(ctx, domain.ResourceListing, live)
	})
}

// DeleteLead removes a lead and frees its customer slot
func (s *QuotaService) DeleteLead(ctx context.Context, lead *domain.Lead) error {
	return s.store.WithAccountLock(ctx, lead.OwnerID, func(tx repository.QuotaTx) error {
		account := tx.Account()

		current, err := tx.GetLead(ctx, account.TenantID, lead.ID)
		if err != nil {
			return err
		}

		if err := tx.DeleteLead(ctx, current.ID); err != nil {
			return err
		}

		live, err := tx.CountLeads(ctx, account.TenantID, account.ID)
		if err != nil {
			return err
		}
		return tx.SetUsage(ctx, domain.ResourceCustomer, live)
	})
}

// ResourceUsage is one line of a usage report
type ResourceUsage struct {
	Limit     int `json:"limit"`
	Current   int `json:"current"`
	Remaining int `json:"remaining"`
}

func newResourceUsage(limit, current int) ResourceUsage {
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return ResourceUsage{Limit: limit, Current: current, Remaining: remaining}
}

// EmployeeUsage is a company employee's line in the owner's report
type EmployeeUsage struct {
	AccountID uuid.UUID     `json:"account_id"`
	Name      string        `json:"name"`
	IsActive  bool          `json:"is_active"`
	Listings  ResourceUsage `json:"listings"`
	Customers ResourceUsage `json:"customers"`
}

// UsageReport lists live usage against every ceiling of an account
type UsageReport struct {
	AccountID    uuid.UUID       `json:"account_id"`
	Unlimited    bool            `json:"unlimited"`
	Listings     ResourceUsage   `json:"listings"`
	Customers    ResourceUsage   `json:"customers"`
	Employees    *ResourceUsage  `json:"employees,omitempty"`
	EmployeeList []EmployeeUsage `json:"employee_usage,omitempty"`
}

// GetUsage reports live counts for the account. Company owners also get the
// employee ceiling and a line per employee.
func (s *QuotaService) GetUsage(ctx context.Context, accountID uuid.UUID) (*UsageReport, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	listings, customers, err := s.liveCounts(ctx, account)
	if err != nil {
		return nil, err
	}

	report := &UsageReport{
		AccountID: account.ID,
		Unlimited: account.Unlimited,
		Listings:  newResourceUsage(account.MaxActiveListings, listings),
		Customers: newResourceUsage(account.MaxCustomers, customers),
	}

	if !account.IsCompanyOwner {
		return report, nil
	}

	employees, err := s.accounts.ListEmployees(ctx, account.TenantID, account.ID)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, e := range employees {
		if e.IsActive {
			active++
		}
		l, c, err := s.liveCounts(ctx, e)
		if err != nil {
			return nil, err
		}
		report.EmployeeList = append(report.EmployeeList, EmployeeUsage{
			AccountID: e.ID,
			Name:      e.FullName(),
			IsActive:  e.IsActive,
			Listings:  newResourceUsage(e.MaxActiveListings, l),
			Customers: newResourceUsage(e.MaxCustomers, c),
		})
	}
	emp := newResourceUsage(account.MaxEmployees, active)
	report.Employees = &emp

	return report, nil
}

func (s *QuotaService) liveCounts(ctx context.Context, account *domain.Account) (listings, customers int, err error) {
	listings, err = s.listings.CountActiveByOwner(ctx, account.TenantID, account.ID)
	if err != nil {
		return 0, 0, err
	}
	customers, err = s.leads.CountByOwner(ctx, account.TenantID, account.ID)
	if err != nil {
		return 0, 0, err
	}
	return listings, customers, nil
}

func (s *QuotaService) recordDecision(d Decision) {
	if d.Resource == "" {
		return
	}
	s.metrics.QuotaDecision(string(d.Resource), d.Allowed)
	if !d.Allowed {
		s.log.Info("quota denied",
			zap.String("resource", string(d.Resource)),
			zap.Int("limit", d.Limit),
			zap.Int("current", d.Current),
		)
	}
}
