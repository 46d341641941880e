package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/pkg/email"
)

func leadCreated(want bool) interface{} {
	return mock.MatchedBy(func(n email.InquiryNotification) bool { return n.LeadCreated == want })
}

func TestCreatePropertyInquiry_CreatesLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listing := f.createListings(t, broker, 1)[0]

	f.notifier.On("SendNewInquiryEmail", mock.Anything, broker.Email, "Ana Ruiz", leadCreated(true)).Return(nil).Once()

	result, err := f.inquiries.CreatePropertyInquiry(ctx, InquiryInput{
		ListingID: listing.ID,
		Name:      "Maria Lopez Diaz",
		Email:     "maria@example.com",
		Phone:     "+56 9 1234 5678",
		Message:   "Is it still available?",
	})
	require.NoError(t, err)
	assert.True(t, result.LeadCreated)
	f.notifier.AssertExpectations(t)

	leads, total, err := f.store.Leads().List(ctx, domain.LeadQuery{TenantID: &broker.TenantID, OwnerID: &broker.ID, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	lead := leads[0]
	assert.Equal(t, "Maria", lead.FirstName)
	assert.Equal(t, "Lopez Diaz", lead.LastName)
	assert.Equal(t, domain.LeadSourceWebsite, lead.LeadSource)
	require.NotNil(t, lead.InquiryID)
	assert.Equal(t, result.Inquiry.ID, *lead.InquiryID)
	require.NotNil(t, lead.ListingID)
	assert.Equal(t, listing.ID, *lead.ListingID)

	stored, err := f.store.Listings().GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.InquiryCount)
}

func TestCreatePropertyInquiry_OwnerAtCustomerLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listing := f.createListings(t, broker, 1)[0]

	one := 1
	_, err := f.accounts.UpgradeQuota(ctx, broker.ID, UpgradeQuotaRequest{MaxCustomers: &one})
	require.NoError(t, err)
	_, err = f.quota.CreateLead(ctx, broker.ID, &domain.Lead{FirstName: "Existing"})
	require.NoError(t, err)

	f.notifier.On("SendNewInquiryEmail", mock.Anything, broker.Email, mock.Anything, leadCreated(false)).Return(nil).Once()

	result, err := f.inquiries.CreatePropertyInquiry(ctx, InquiryInput{
		ListingID: listing.ID,
		Name:      "Pedro",
		Email:     "pedro@example.com",
	})
	require.NoError(t, err, "a full customer quota never fails the prospect")
	assert.False(t, result.LeadCreated)
	f.notifier.AssertExpectations(t)

	inquiries, err := f.store.Inquiries().ListByListing(ctx, listing.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, inquiries, 1)

	count, err := f.store.Leads().CountByOwner(ctx, broker.TenantID, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreatePropertyInquiry_NotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listing := f.createListings(t, broker, 1)[0]

	f.notifier.On("SendNewInquiryEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp unavailable")).Once()

	result, err := f.inquiries.CreatePropertyInquiry(context.Background(), InquiryInput{
		ListingID: listing.ID,
		Name:      "Pedro Soto",
		Email:     "pedro@example.com",
	})
	require.NoError(t, err)
	assert.True(t, result.LeadCreated)
}

func TestCreatePropertyInquiry_AcceptsAnyExistingListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := f.createAccount(t, domain.AccountTypeIndividualBroker)
	listings := f.createListings(t, broker, 2)

	_, err := f.quota.ChangeListingStatus(ctx, listings[0], domain.ListingStatusWithdrawn)
	require.NoError(t, err)
	_, err = f.quota.ChangeListingStatus(ctx, listings[1], domain.ListingStatusSold)
	require.NoError(t, err)

	f.notifier.On("SendNewInquiryEmail", mock.Anything, broker.Email, mock.Anything, leadCreated(true)).Return(nil).Twice()

	for _, listing := range listings {
		result, err := f.inquiries.CreatePropertyInquiry(ctx, InquiryInput{ListingID: listing.ID, Name: "Ana Soto", Email: "a@example.com"})
		require.NoError(t, err)
		assert.True(t, result.LeadCreated)

		inquiries, err := f.store.Inquiries().ListByListing(ctx, listing.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, inquiries, 1)
	}
	f.notifier.AssertExpectations(t)

	count, err := f.store.Leads().CountByOwner(ctx, broker.TenantID, broker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = f.inquiries.CreatePropertyInquiry(ctx, InquiryInput{ListingID: broker.ID, Name: "A", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
