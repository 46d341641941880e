package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/pkg/blacklist"
)

func TestCreateAccount_Onboarding(t *testing.T) {
	f := newFixture(t)

	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)
	assert.True(t, owner.IsCompanyOwner)
	assert.Equal(t, domain.RoleList{domain.RoleCorporateOwner}, owner.Roles)
	assert.Equal(t, 50, owner.MaxEmployees)
	assert.Equal(t, 5000, owner.MaxActiveListings)

	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	assert.False(t, broker.IsCompanyOwner)
	assert.NotEqual(t, owner.TenantID, broker.TenantID, "every top-level account gets its own tenant")

	_, err := f.accounts.CreateAccount(context.Background(), CreateAccountRequest{
		Email:       "x@example.com",
		Password:    "correct-horse",
		FirstName:   "X",
		AccountType: "landlord",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	req := CreateAccountRequest{
		Email:       "Broker@Example.com ",
		Password:    "correct-horse",
		FirstName:   "Ana",
		AccountType: domain.AccountTypeIndividualBroker,
	}

	account, err := f.accounts.CreateAccount(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "broker@example.com", account.Email)

	req.Email = "broker@example.com"
	_, err = f.accounts.CreateAccount(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddEmployee_InheritsTenantAndPerEmployeeCeilings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)

	forty := 40
	_, err := f.accounts.UpgradeQuota(ctx, owner.ID, UpgradeQuotaRequest{MaxListingsPerEmployee: &forty})
	require.NoError(t, err)

	employee := f.addEmployee(t, owner)
	assert.Equal(t, owner.TenantID, employee.TenantID)
	require.NotNil(t, employee.ParentCompanyID)
	assert.Equal(t, owner.ID, *employee.ParentCompanyID)
	assert.True(t, employee.IsEmployee())
	assert.Equal(t, domain.RoleList{domain.RoleCorporateAgent}, employee.Roles)
	assert.Equal(t, 40, employee.MaxActiveListings)
	assert.Equal(t, 500, employee.MaxCustomers)

	stored, err := f.store.Accounts().GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentEmployees)
	assert.Equal(t, 50*40, stored.MaxActiveListings)
}

func TestAddEmployee_OnlyOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)
	employee := f.addEmployee(t, owner)
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)

	for _, caller := range []*domain.Account{employee, broker} {
		_, err := f.accounts.AddEmployee(ctx, caller.ID, AddEmployeeRequest{
			Email:     "new@example.com",
			Password:  "correct-horse",
			FirstName: "New",
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
}

func TestAddEmployee_QuotaAndDeactivationReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)

	one := 1
	_, err := f.accounts.UpgradeQuota(ctx, owner.ID, UpgradeQuotaRequest{MaxEmployees: &one})
	require.NoError(t, err)

	first := f.addEmployee(t, owner)

	_, err = f.accounts.AddEmployee(ctx, owner.ID, AddEmployeeRequest{
		Email:     "second@example.com",
		Password:  "correct-horse",
		FirstName: "Second",
	})
	var qe *domain.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, domain.ResourceEmployee, qe.Resource)
	assert.Equal(t, 1, qe.Limit)

	f.revoker.On("RevokeAccount", mock.Anything, first.ID.String(), time.Hour).Return(nil).Once()
	require.NoError(t, f.accounts.DeactivateAccount(ctx, first.ID))
	f.revoker.AssertExpectations(t)

	deactivated, err := f.store.Accounts().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	stored, err := f.store.Accounts().GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentEmployees)

	f.addEmployee(t, owner)
}

func TestDeactivateAccount_KeepsResourcesAndBlocksCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	f.createListings(t, broker, 2)

	f.revoker.On("RevokeAccount", mock.Anything, broker.ID.String(), time.Hour).Return(nil).Once()
	require.NoError(t, f.accounts.DeactivateAccount(ctx, broker.ID))

	count, err := f.store.Listings().CountActiveByOwner(ctx, broker.TenantID, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = f.quota.CreateListing(ctx, broker.ID, newListing())
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "deactivated")
}

func TestDeactivateAccount_RevocationFailureIsReported(t *testing.T) {
	f := newFixture(t)
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)

	f.revoker.On("RevokeAccount", mock.Anything, broker.ID.String(), time.Hour).Return(errors.New("redis down")).Once()
	err := f.accounts.DeactivateAccount(context.Background(), broker.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token revocation failed")

	stored, err := f.store.Accounts().GetByID(context.Background(), broker.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestDeactivateAccount_RevokesIssuedTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	bl := blacklist.NewTokenBlacklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	f := newFixture(t)
	f.accounts = NewAccountService(f.store.Accounts(), f.store, bl, time.Hour, newTestHasher(t), zap.NewNop())

	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	issuedAt := time.Now().Add(-time.Minute)

	require.NoError(t, f.accounts.DeactivateAccount(ctx, broker.ID))

	revoked, err := bl.IsAccountRevoked(ctx, broker.ID.String(), issuedAt)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUpgradeQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	f.createListings(t, broker, 5)

	four := 4
	_, err := f.accounts.UpgradeQuota(ctx, broker.ID, UpgradeQuotaRequest{MaxActiveListings: &four})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "below current usage 5")

	sixty := 60
	updated, err := f.accounts.UpgradeQuota(ctx, broker.ID, UpgradeQuotaRequest{MaxActiveListings: &sixty})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.MaxActiveListings)
	assert.Equal(t, 100, updated.MaxCustomers)

	customer := f.createAccount(t, domain.AccountTypeCustomer)
	_, err = f.accounts.UpgradeQuota(ctx, customer.ID, UpgradeQuotaRequest{MaxActiveListings: &sixty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	admin := f.createAccount(t, domain.AccountTypePlatformAdmin)
	_, err = f.accounts.UpgradeQuota(ctx, admin.ID, UpgradeQuotaRequest{MaxActiveListings: &sixty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createAccount(t, domain.AccountTypeCorporateCompany)
	f.addEmployee(t, owner)
	f.addEmployee(t, owner)
	f.addEmployee(t, f.createAccount(t, domain.AccountTypeCorporateCompany))

	employees, err := f.accounts.ListEmployees(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	_, err = f.accounts.ListEmployees(ctx, broker.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBootstrapAdmin_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.accounts.BootstrapAdmin(ctx, "Admin@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountTypePlatformAdmin, first.AccountType)
	assert.True(t, first.Unlimited)

	second, err := f.accounts.BootstrapAdmin(ctx, "admin@example.com", "other-password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
