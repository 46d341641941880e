package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/andressep95/realty-core/internal/domain"
)

func TestEvaluate(t *testing.T) {
	broker := &domain.Account{
		AccountType: domain.AccountTypeIndividualBroker,
		IsActive:    true,
		Quota:       domain.InitialQuota(domain.AccountTypeIndividualBroker, false),
	}
	customer := &domain.Account{AccountType: domain.AccountTypeCustomer, IsActive: true}
	admin := &domain.Account{AccountType: domain.AccountTypePlatformAdmin, IsActive: true, Quota: domain.Quota{Unlimited: true}}
	inactive := &domain.Account{
		AccountType: domain.AccountTypeIndividualBroker,
		Quota:       domain.InitialQuota(domain.AccountTypeIndividualBroker, false),
	}

	tests := []struct {
		name    string
		account *domain.Account
		live    int
		allowed bool
		reason  string
	}{
		{"under ceiling", broker, 29, true, ""},
		{"at ceiling", broker, 30, false, "active listing limit reached: 30 of 30 in use"},
		{"over ceiling", broker, 31, false, "active listing limit reached: 31 of 30 in use"},
		{"customer never owns listings", customer, 0, false, "customer accounts cannot hold active listings"},
		{"admin ignores ceilings", admin, 10000, true, ""},
		{"deactivated accounts cannot create", inactive, 0, false, "account is deactivated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := evaluate(tt.account, domain.ResourceListing, tt.live)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.live, d.Current)
			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				assert.ErrorIs(t, d.Err(), domain.ErrQuotaExceeded)
			}
		})
	}
}

func TestCanCreateListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	f.createListings(t, broker, 29)

	d, err := f.quota.CanCreateListing(ctx, broker.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 30, d.Limit)
	assert.Equal(t, 29, d.Current)

	f.createListings(t, broker, 1)
	d, err = f.quota.CanCreateListing(ctx, broker.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "30 of 30")

	_, err = f.quota.CanCreateListing(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCanAddCustomer_CustomerAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := f.createAccount(t, domain.AccountTypeCustomer)
	d, err := f.quota.CanAddCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	admin := f.createAccount(t, domain.AccountTypePlatformAdmin)
	d, err = f.quota.CanAddCustomer(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCreateListing_RacersAtCeilingAdmitExactlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	f.createListings(t, broker, 29)

	const racers = 16
	var admitted, denied atomic.Int32

	var g errgroup.Group
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			_, err := f.quota.CreateListing(ctx, broker.ID, newListing())
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, domain.ErrQuotaExceeded):
				denied.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), admitted.Load())
	assert.Equal(t, int32(racers-1), denied.Load())

	count, err := f.store.Listings().CountActiveByOwner(ctx, broker.TenantID, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, count)

	account, err := f.store.Accounts().GetByID(ctx, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, account.CurrentActiveListings)
}

func TestCreateLead_RacersAtCeilingAdmitExactlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)

	one := 1
	_, err := f.accounts.UpgradeQuota(ctx, broker.ID, UpgradeQuotaRequest{MaxCustomers: &one})
	require.NoError(t, err)

	var admitted atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := f.quota.CreateLead(ctx, broker.ID, &domain.Lead{FirstName: "Racer"})
			if err == nil {
				admitted.Add(1)
				return nil
			}
			if errors.Is(err, domain.ErrQuotaExceeded) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), admitted.Load())
}

func TestEmployeeCeilingsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)
	a := f.addEmployee(t, owner)
	b := f.addEmployee(t, owner)

	f.createListings(t, a, 99)
	f.createListings(t, b, 99)

	_, err := f.quota.CreateListing(ctx, a.ID, newListing())
	require.NoError(t, err, "A's 100th listing")
	_, err = f.quota.CreateListing(ctx, b.ID, newListing())
	require.NoError(t, err, "B's 100th listing is not blocked by A")

	_, err = f.quota.CreateListing(ctx, a.ID, newListing())
	var qe *domain.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 100, qe.Limit)
	assert.Equal(t, 100, qe.Current)
}

func TestCreateListing_TenantAndOwnerComeFromAccount(t *testing.T) {
	f := newFixture(t)
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)

	input := newListing()
	input.TenantID = uuid.New()
	input.OwnerID = uuid.New()

	l, err := f.quota.CreateListing(context.Background(), broker.ID, input)
	require.NoError(t, err)
	assert.Equal(t, broker.TenantID, l.TenantID)
	assert.Equal(t, broker.ID, l.OwnerID)
	assert.Equal(t, domain.ListingStatusActive, l.Status)
}

func TestChangeListingStatus_GatesActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listings := f.createListings(t, broker, 30)

	pending := newListing()
	pending.Status = domain.ListingStatusPending
	draft, err := f.quota.CreateListing(ctx, broker.ID, pending)
	require.NoError(t, err, "inactive listings do not need a free slot")

	_, err = f.quota.ChangeListingStatus(ctx, draft, domain.ListingStatusActive)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	sold, err := f.quota.ChangeListingStatus(ctx, listings[0], domain.ListingStatusSold)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusSold, sold.Status)

	account, err := f.store.Accounts().GetByID(ctx, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 29, account.CurrentActiveListings)

	activated, err := f.quota.ChangeListingStatus(ctx, draft, domain.ListingStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusActive, activated.Status)

	_, err = f.quota.ChangeListingStatus(ctx, draft, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteFreesSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listings := f.createListings(t, broker, 2)

	lead, err := f.quota.CreateLead(ctx, broker.ID, &domain.Lead{FirstName: "Eva"})
	require.NoError(t, err)

	require.NoError(t, f.quota.DeleteListing(ctx, listings[0]))
	require.NoError(t, f.quota.DeleteLead(ctx, lead))

	account, err := f.store.Accounts().GetByID(ctx, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, account.CurrentActiveListings)
	assert.Equal(t, 0, account.CurrentCustomers)

	err = f.quota.DeleteLead(ctx, lead)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUsage_OwnerReportIncludesEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)
	a := f.addEmployee(t, owner)
	f.createListings(t, a, 3)

	report, err := f.quota.GetUsage(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Employees)
	assert.Equal(t, 50, report.Employees.Limit)
	assert.Equal(t, 1, report.Employees.Current)
	require.Len(t, report.EmployeeList, 1)
	assert.Equal(t, 3, report.EmployeeList[0].Listings.Current)
	assert.Equal(t, 97, report.EmployeeList[0].Listings.Remaining)

	report, err = f.quota.GetUsage(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, report.Employees)
	assert.Equal(t, 3, report.Listings.Current)
}
