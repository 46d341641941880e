package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository/memory"
	"github.com/andressep95/realty-core/pkg/email"
	"github.com/andressep95/realty-core/pkg/hash"
)

var testArgon = hash.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestHasher(t *testing.T) *hash.Hasher {
	t.Helper()
	h, err := hash.NewHasher(testArgon)
	require.NoError(t, err)
	return h
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendNewInquiryEmail(ctx context.Context, to, brokerName string, n email.InquiryNotification) error {
	args := m.Called(ctx, to, brokerName, n)
	return args.Error(0)
}

type mockRevoker struct {
	mock.Mock
}

func (m *mockRevoker) RevokeAccount(ctx context.Context, accountID string, ttl time.Duration) error {
	args := m.Called(ctx, accountID, ttl)
	return args.Error(0)
}

type fixture struct {
	store     *memory.Store
	resolver  *authz.Resolver
	quota     *QuotaService
	accounts  *AccountService
	listings  *ListingService
	leads     *LeadService
	catalog   *CatalogService
	inquiries *InquiryService
	notifier  *mockNotifier
	revoker   *mockRevoker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	resolver := authz.NewResolver(authz.DefaultCatalog())
	log := zap.NewNop()
	notifier := &mockNotifier{}
	revoker := &mockRevoker{}

	quota := NewQuotaService(store.Accounts(), store.Listings(), store.Leads(), store, nil, log)
	accounts := NewAccountService(store.Accounts(), store, revoker, time.Hour, newTestHasher(t), log)

	return &fixture{
		store:     store,
		resolver:  resolver,
		quota:     quota,
		accounts:  accounts,
		listings:  NewListingService(store.Listings(), store.Inquiries(), quota, resolver),
		leads:     NewLeadService(store.Leads(), quota, resolver),
		catalog:   NewCatalogService(store.Listings()),
		inquiries: NewInquiryService(store.Listings(), store.Inquiries(), store.Accounts(), quota, notifier, nil, log),
		notifier:  notifier,
		revoker:   revoker,
	}
}

func (f *fixture) createAccount(t *testing.T, accountType domain.AccountType) *domain.Account {
	t.Helper()
	account, err := f.accounts.CreateAccount(context.Background(), CreateAccountRequest{
		Email:       uuid.NewString() + "@example.com",
		Password:    "correct-horse",
		FirstName:   "Ana",
		LastName:    "Ruiz",
		Phone:       "+56 9 5555 0000",
		CompanyName: "Casa Grande SpA",
		AccountType: accountType,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) addEmployee(t *testing.T, owner *domain.Account) *domain.Account {
	t.Helper()
	employee, err := f.accounts.AddEmployee(context.Background(), owner.ID, AddEmployeeRequest{
		Email:     uuid.NewString() + "@example.com",
		Password:  "correct-horse",
		FirstName: "Luis",
		LastName:  "Mora",
	})
	require.NoError(t, err)
	return employee
}

func (f *fixture) createListings(t *testing.T, owner *domain.Account, n int) []*domain.Listing {
	t.Helper()
	out := make([]*domain.Listing, 0, n)
	for i := 0; i < n; i++ {
		l, err := f.quota.CreateListing(context.Background(), owner.ID, newListing())
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func newListing() *domain.Listing {
	return &domain.Listing{
		Title:             "Two bedroom apartment",
		PropertyType:      "apartment",
		Price:             125000,
		City:              "Santiago",
		Bedrooms:          2,
		Bathrooms:         1,
		IsPubliclyVisible: true,
	}
}

func principal(a *domain.Account) domain.Principal {
	return domain.Principal{AccountID: a.ID, TenantID: a.TenantID, Roles: a.Roles}
}
