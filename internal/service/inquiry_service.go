package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
	"github.com/andressep95/realty-core/pkg/email"
	"github.com/andressep95/realty-core/pkg/metrics"
)

const notifyTimeout = 10 * time.Second

type InquiryInput struct {
	ListingID uuid.UUID `json:"-"`
	Name      string    `json:"name" validate:"required,max=200"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"omitempty,phone"`
	Message   string    `json:"message" validate:"max=5000"`
}

type InquiryResult struct {
	Inquiry     *domain.Inquiry `json:"inquiry"`
	LeadCreated bool            `json:"-"`
}

// InquiryService turns public inquiries into leads for the listing owner
type InquiryService struct {
	listings  repository.ListingRepository
	inquiries repository.InquiryRepository
	accounts  repository.AccountRepository
	quota     *QuotaService
	notifier  email.EmailService
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// notifier may be nil, in which case brokers are not emailed
func NewInquiryService(
	listings repository.ListingRepository,
	inquiries repository.InquiryRepository,
	accounts repository.AccountRepository,
	quota *QuotaService,
	notifier email.EmailService,
	m *metrics.Metrics,
	log *zap.Logger,
) *InquiryService {
	return &InquiryService{
		listings:  listings,
		inquiries: inquiries,
		accounts:  accounts,
		quota:     quota,
		notifier:  notifier,
		metrics:   m,
		log:       log,
	}
}

// CreatePropertyInquiry records an inquiry and, when the owner's customer
// quota allows, one lead linked to it. Any existing listing accepts
// inquiries whatever its status or visibility. Only a missing listing or a
// failed inquiry insert fail the call; the counter bump, the lead and the
// email are best-effort.
func (s *InquiryService) CreatePropertyInquiry(ctx context.Context, in InquiryInput) (*InquiryResult, error) {
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}

	inquiry := &domain.Inquiry{
		ID:        uuid.New(),
		ListingID: listing.ID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("inquiry_id", inquiry.ID.String()),
		zap.String("listing_id", listing.ID.String()),
	)

	if err := s.listings.IncrementInquiryCount(ctx, listing.ID); err != nil {
		log.Warn("failed to increment inquiry count", zap.Error(err))
	}

	leadCreated := s.convertToLead(ctx, log, listing, inquiry)
	s.notifyOwner(ctx, log, listing, inquiry, leadCreated)

	return &InquiryResult{Inquiry: inquiry, LeadCreated: leadCreated}, nil
}

func (s *InquiryService) convertToLead(ctx context.Context, log *zap.Logger, listing *domain.Listing, inquiry *domain.Inquiry) bool {
	first, last := domain.SplitName(inquiry.Name)
	listingID, inquiryID := listing.ID, inquiry.ID

	lead := &domain.Lead{
		ListingID:  &listingID,
		InquiryID:  &inquiryID,
		FirstName:  first,
		LastName:   last,
		Email:      inquiry.Email,
		Phone:      inquiry.Phone,
		LeadSource: domain.LeadSourceWebsite,
		Status:     domain.LeadStatusNew,
		Notes:      fmt.Sprintf("Inquiry about listing %q (%s): %s", listing.Title, listing.ID, inquiry.Message),
	}

	_, err := s.quota.CreateLead(ctx, listing.OwnerID, lead)
	switch {
	case err == nil:
		s.metrics.Inquiry("created")
		log.Info("lead created from inquiry", zap.String("lead_id", lead.ID.String()))
		return true
	case errors.Is(err, domain.ErrQuotaExceeded):
		s.metrics.Inquiry("skipped")
		log.Info("lead skipped, owner at customer limit", zap.String("reason", err.Error()))
	default:
		s.metrics.Inquiry("failed")
		log.Error("failed to create lead from inquiry", zap.Error(err))
	}
	return false
}

func (s *InquiryService) notifyOwner(ctx context.Context, log *zap.Logger, listing *domain.Listing, inquiry *domain.Inquiry, leadCreated bool) {
	if s.notifier == nil {
		return
	}

	owner, err := s.accounts.GetByID(ctx, listing.OwnerID)
	if err != nil {
		log.Warn("failed to load listing owner for notification", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err = s.notifier.SendNewInquiryEmail(ctx, owner.Email, owner.FullName(), email.InquiryNotification{
		ListingID:     listing.ID.String(),
		ListingTitle:  listing.Title,
		ProspectName:  inquiry.Name,
		ProspectEmail: inquiry.Email,
		ProspectPhone: inquiry.Phone,
		Message:       inquiry.Message,
		LeadCreated:   leadCreated,
	})
	if err != nil {
		log.Warn("failed to notify listing owner", zap.Error(err))
	}
}
