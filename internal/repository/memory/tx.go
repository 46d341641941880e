package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

// memoryTx applies writes straight to the store and records how to reverse
// each one.
type memoryTx struct {
	store   *Store
	account *domain.Account
	undo    []func()
}

func (t *memoryTx) rollback() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) Account() *domain.Account {
	return t.account
}

func (t *memoryTx) CountActiveListings(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.countActiveListings(tenantID, ownerID), nil
}

func (t *memoryTx) CountLeads(ctx context.Context, tenantID, ownerID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.countLeads(tenantID, ownerID), nil
}

func (t *memoryTx) CountActiveEmployees(ctx context.Context, tenantID, companyID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	n := 0
	for _, a := range t.store.accounts {
		if a.TenantID == tenantID && a.ParentCompanyID != nil && *a.ParentCompanyID == companyID && a.IsActive {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) InsertListing(ctx context.Context, listing *domain.Listing) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, exists := t.store.listings[listing.ID]; exists {
		return fmt.Errorf("failed to create listing: duplicate id %s", listing.ID)
	}
	t.store.listings[listing.ID] = *listing
	id := listing.ID
	t.undo = append(t.undo, func() { delete(t.store.listings, id) })
	return nil
}

func (t *memoryTx) InsertLead(ctx context.Context, lead *domain.Lead) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, exists := t.store.leads[lead.ID]; exists {
		return fmt.Errorf("failed to create lead: duplicate id %s", lead.ID)
	}
	t.store.leads[lead.ID] = *lead
	id := lead.ID
	t.undo = append(t.undo, func() { delete(t.store.leads, id) })
	return nil
}

func (t *memoryTx) InsertAccount(ctx context.Context, account *domain.Account) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := t.store.insertAccountLocked(account); err != nil {
		return err
	}
	id := account.ID
	t.undo = append(t.undo, func() { delete(t.store.accounts, id) })
	return nil
}

func (t *memoryTx) GetListing(ctx context.Context, tenantID, id uuid.UUID) (*domain.Listing, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	l, ok := t.store.listings[id]
	if !ok || l.TenantID != tenantID {
		return nil, domain.NotFoundError("listing")
	}
	return &l, nil
}

func (t *memoryTx) GetLead(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	l, ok := t.store.leads[id]
	if !ok || l.TenantID != tenantID {
		return nil, domain.NotFoundError("lead")
	}
	return &l, nil
}

func (t *memoryTx) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*domain.Account, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	a, ok := t.store.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, domain.NotFoundError("account")
	}
	return &a, nil
}

func (t *memoryTx) UpdateListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	l, ok := t.store.listings[id]
	if !ok {
		return domain.NotFoundError("listing")
	}
	prev := l.Status
	l.Status = status
	t.store.listings[id] = l
	t.undo = append(t.undo, func() {
		if cur, ok := t.store.listings[id]; ok {
			cur.Status = prev
			t.store.listings[id] = cur
		}
	})
	return nil
}

func (t *memoryTx) DeleteListing(ctx context.Context, id uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, ok := t.store.listings[id]
	if !ok {
		return domain.NotFoundError("listing")
	}
	delete(t.store.listings, id)
	t.undo = append(t.undo, func() { t.store.listings[id] = prev })
	return nil
}

func (t *memoryTx) DeleteLead(ctx context.Context, id uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, ok := t.store.leads[id]
	if !ok {
		return domain.NotFoundError("lead")
	}
	delete(t.store.leads, id)
	t.undo = append(t.undo, func() { t.store.leads[id] = prev })
	return nil
}

func (t *memoryTx) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) error {
	return t.updateAccount(id, func(a *domain.Account) func(*domain.Account) {
		prev := a.IsActive
		a.IsActive = active
		return func(a *domain.Account) { a.IsActive = prev }
	})
}

func usageField(r domain.Resource) (func(q *domain.Quota) *int, error) {
	switch r {
	case domain.ResourceListing:
		return func(q *domain.Quota) *int { return &q.CurrentActiveListings }, nil
	case domain.ResourceCustomer:
		return func(q *domain.Quota) *int { return &q.CurrentCustomers }, nil
	case domain.ResourceEmployee:
		return func(q *domain.Quota) *int { return &q.CurrentEmployees }, nil
	}
	return nil, fmt.Errorf("unknown resource %q: %w", r, domain.ErrInvalidInput)
}

func (t *memoryTx) SetUsage(ctx context.Context, r domain.Resource, current int) error {
	if current < 0 {
		current = 0
	}
	field, err := usageField(r)
	if err != nil {
		return err
	}

	err = t.updateAccount(t.account.ID, func(a *domain.Account) func(*domain.Account) {
		prev := *field(&a.Quota)
		*field(&a.Quota) = current
		return func(a *domain.Account) { *field(&a.Quota) = prev }
	})
	if err != nil {
		return err
	}
	*field(&t.account.Quota) = current
	return nil
}

type ceilings struct {
	listings, customers, employees            int
	listingsPerEmployee, customersPerEmployee int
}

func ceilingsOf(q domain.Quota) ceilings {
	return ceilings{q.MaxActiveListings, q.MaxCustomers, q.MaxEmployees, q.MaxListingsPerEmployee, q.MaxCustomersPerEmployee}
}

func (c ceilings) apply(q *domain.Quota) {
	q.MaxActiveListings = c.listings
	q.MaxCustomers = c.customers
	q.MaxEmployees = c.employees
	q.MaxListingsPerEmployee = c.listingsPerEmployee
	q.MaxCustomersPerEmployee = c.customersPerEmployee
}

func (t *memoryTx) UpdateCeilings(ctx context.Context, q domain.Quota) error {
	next := ceilingsOf(q)
	err := t.updateAccount(t.account.ID, func(a *domain.Account) func(*domain.Account) {
		prev := ceilingsOf(a.Quota)
		next.apply(&a.Quota)
		return func(a *domain.Account) { prev.apply(&a.Quota) }
	})
	if err != nil {
		return err
	}
	next.apply(&t.account.Quota)
	return nil
}

// updateAccount applies mutate to a stored account. mutate returns the
// inverse of its own change; rollback applies that inverse to whatever the
// account holds by then, so fields other units committed meanwhile survive.
func (t *memoryTx) updateAccount(id uuid.UUID, mutate func(a *domain.Account) func(*domain.Account)) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	a, ok := t.store.accounts[id]
	if !ok {
		return domain.NotFoundError("account")
	}
	restore := mutate(&a)
	t.store.accounts[id] = a
	t.undo = append(t.undo, func() {
		if cur, ok := t.store.accounts[id]; ok {
			restore(&cur)
			t.store.accounts[id] = cur
		}
	})
	return nil
}
