// Package memory is a process-local implementation of the repository
// interfaces. It backs STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

// Store keeps every table in maps. Units of work run under a per-account
// mutex; their writes are visible to other readers immediately and undone if
// the unit fails.
type Store struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]domain.Account
	listings  map[uuid.UUID]domain.Listing
	leads     map[uuid.UUID]domain.Lead
	inquiries map[uuid.UUID]domain.Inquiry

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[uuid.UUID]domain.Account),
		listings:  make(map[uuid.UUID]domain.Listing),
		leads:     make(map[uuid.UUID]domain.Lead),
		inquiries: make(map[uuid.UUID]domain.Inquiry),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

// Accounts returns the store as an AccountRepository
func (s *Store) Accounts() repository.AccountRepository { return accountRepo{s} }

// Listings returns the store as a ListingRepository
func (s *Store) Listings() repository.ListingRepository { return listingRepo{s} }

// Leads returns the store as a LeadRepository
func (s *Store) Leads() repository.LeadRepository { return leadRepo{s} }

// Inquiries returns the store as an InquiryRepository
func (s *Store) Inquiries() repository.InquiryRepository { return inquiryRepo{s} }

func (s *Store) accountLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// WithAccountLock implements repository.QuotaStore
func (s *Store) WithAccountLock(ctx context.Context, accountID uuid.UUID, fn func(tx repository.QuotaTx) error) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	account, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return domain.NotFoundError("account")
	}

	tx := &memoryTx{store: s, account: &account}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) countActiveListings(tenantID, ownerID uuid.UUID) int {
	n := 0
	for _, l := range s.listings {
		if l.TenantID == tenantID && l.OwnerID == ownerID && l.Status == domain.ListingStatusActive {
			n++
		}
	}
	return n
}

func (s *Store) countLeads(tenantID, ownerID uuid.UUID) int {
	n := 0
	for _, l := range s.leads {
		if l.TenantID == tenantID && l.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertAccountLocked(account)
}

func (s *Store) insertAccountLocked(account *domain.Account) error {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return fmt.Errorf("email already registered: %w", domain.ErrInvalidInput)
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (r accountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.NotFoundError("account")
	}
	return &a, nil
}

func (r accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, domain.NotFoundError("account")
}

func (r accountRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.NotFoundError("account")
	}
	a.IsActive = active
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.NotFoundError("account")
	}
	a.PasswordHash = passwordHash
	r.s.accounts[id] = a
	return nil
}

func (r accountRepo) ListEmployees(ctx context.Context, tenantID, companyID uuid.UUID) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Account{}
	for _, a := range r.s.accounts {
		if a.TenantID == tenantID && a.ParentCompanyID != nil && *a.ParentCompanyID == companyID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type listingRepo struct{ s *Store }

func (r listingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, domain.NotFoundError("listing")
	}
	return &l, nil
}

func (r listingRepo) GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok || l.TenantID != tenantID {
		return nil, domain.NotFoundError("listing")
	}
	return &l, nil
}

func (r listingRepo) List(ctx context.Context, q domain.ListingQuery) ([]*domain.Listing, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Listing{}
	for _, l := range r.s.listings {
		if q.TenantID != nil && l.TenantID != *q.TenantID {
			continue
		}
		if q.OwnerID != nil && l.OwnerID != *q.OwnerID {
			continue
		}
		if q.Status != nil && l.Status != *q.Status {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, q.Limit, q.Offset), len(out), nil
}

func (r listingRepo) CountActiveByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countActiveListings(tenantID, ownerID), nil
}

func (r listingRepo) IncrementInquiryCount(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return domain.NotFoundError("listing")
	}
	l.InquiryCount++
	r.s.listings[id] = l
	return nil
}

// MaxPublicPageSize caps a single public catalog page
const MaxPublicPageSize = 100

func (r listingRepo) ListPublic(ctx context.Context, f domain.PublicListingFilter) ([]*domain.ProjectedListing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Listing
	for _, l := range r.s.listings {
		if f.TenantID != nil && l.TenantID != *f.TenantID {
			continue
		}
		if !r.s.isPublic(l) {
			continue
		}
		if f.City != "" && !strings.EqualFold(l.City, f.City) {
			continue
		}
		if f.PropertyType != "" && l.PropertyType != f.PropertyType {
			continue
		}
		if f.MinPrice != nil && l.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && l.Price > *f.MaxPrice {
			continue
		}
		if f.MinBedrooms != nil && l.Bedrooms < *f.MinBedrooms {
			continue
		}
		matched = append(matched, l)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsFeatured != matched[j].IsFeatured {
			return matched[i].IsFeatured
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 || limit > MaxPublicPageSize {
		limit = MaxPublicPageSize
	}

	out := []*domain.ProjectedListing{}
	for _, l := range page(matched, limit, f.Offset) {
		out = append(out, r.s.project(l))
	}
	return out, nil
}

func (r listingRepo) GetPublic(ctx context.Context, id uuid.UUID) (*domain.ProjectedListing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok || !r.s.isPublic(l) {
		return nil, domain.NotFoundError("listing")
	}
	return r.s.project(l), nil
}

func (s *Store) isPublic(l domain.Listing) bool {
	if l.Status != domain.ListingStatusActive || !l.IsPubliclyVisible {
		return false
	}
	owner, ok := s.accounts[l.OwnerID]
	return ok && owner.IsActive
}

func (s *Store) project(l domain.Listing) *domain.ProjectedListing {
	owner := s.accounts[l.OwnerID]
	company := owner.CompanyName
	if owner.ParentCompanyID != nil {
		if parent, ok := s.accounts[*owner.ParentCompanyID]; ok && parent.CompanyName != "" {
			company = parent.CompanyName
		}
	}
	return &domain.ProjectedListing{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Price:        l.Price,
		City:         l.City,
		Address:      l.Address,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		AreaSqFt:     l.AreaSqFt,
		IsFeatured:   l.IsFeatured,
		CreatedAt:    l.CreatedAt,
		Broker: domain.BrokerContact{
			Name:        owner.FullName(),
			Phone:       owner.Phone,
			Email:       owner.Email,
			CompanyName: company,
		},
	}
}

type leadRepo struct{ s *Store }

func (r leadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return nil, domain.NotFoundError("lead")
	}
	return &l, nil
}

func (r leadRepo) GetByIDInTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok || l.TenantID != tenantID {
		return nil, domain.NotFoundError("lead")
	}
	return &l, nil
}

func (r leadRepo) List(ctx context.Context, q domain.LeadQuery) ([]*domain.Lead, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Lead{}
	for _, l := range r.s.leads {
		if q.TenantID != nil && l.TenantID != *q.TenantID {
			continue
		}
		if q.OwnerID != nil && l.OwnerID != *q.OwnerID {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, q.Limit, q.Offset), len(out), nil
}

func (r leadRepo) CountByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countLeads(tenantID, ownerID), nil
}

type inquiryRepo struct{ s *Store }

func (r inquiryRepo) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.inquiries[inquiry.ID] = *inquiry
	return nil
}

func (r inquiryRepo) ListByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*domain.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Inquiry{}
	for _, i := range r.s.inquiries {
		if i.ListingID == listingID {
			i := i
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return page(out, limit, offset), nil
}
