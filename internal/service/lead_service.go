package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
)

type LeadService struct {
	leads    repository.LeadRepository
	quota    *QuotaService
	resolver *authz.Resolver
}

type CreateLeadRequest struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Phone     string     `json:"phone" validate:"omitempty,phone"`
	ListingID *uuid.UUID `json:"listing_id"`
	Notes     string     `json:"notes" validate:"max=2000"`
}

func NewLeadService(leads repository.LeadRepository, quota *QuotaService, resolver *authz.Resolver) *LeadService {
	return &LeadService{leads: leads, quota: quota, resolver: resolver}
}

func (s *LeadService) ListLeads(ctx context.Context, p domain.Principal, limit, offset int) ([]*domain.Lead, int, error) {
	v := visibilityFor(s.resolver, p)
	limit, offset = clampPage(limit, offset)

	return s.leads.List(ctx, domain.LeadQuery{
		TenantID: v.tenantID,
		OwnerID:  v.ownerID,
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *LeadService) GetLead(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Lead, error) {
	v := visibilityFor(s.resolver, p)

	var (
		lead *domain.Lead
		err  error
	)
	if v.tenantID != nil {
		lead, err = s.leads.GetByIDInTenant(ctx, *v.tenantID, id)
	} else {
		lead, err = s.leads.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !v.allows(lead.TenantID, lead.OwnerID) {
		return nil, domain.NotFoundError("lead")
	}
	return lead, nil
}

// CreateLead records a manually entered customer for the caller
func (s *LeadService) CreateLead(ctx context.Context, p domain.Principal, req CreateLeadRequest) (*domain.Lead, error) {
	return s.quota.CreateLead(ctx, p.AccountID, &domain.Lead{
		ListingID:  req.ListingID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		LeadSource: domain.LeadSourceManual,
		Notes:      req.Notes,
	})
}

func (s *LeadService) DeleteLead(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	lead, err := s.GetLead(ctx, p, id)
	if err != nil {
		return err
	}
	return s.quota.DeleteLead(ctx, lead)
}
