package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus tracks how far a customer relationship has progressed
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
)

const (
	LeadSourceWebsite = "website"
	LeadSourceManual  = "manual"
)

// Lead is a customer relationship owned by one account. It counts toward the
// owner's customer quota from creation until explicit deletion, regardless of
// status.
type Lead struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	OwnerID    uuid.UUID  `json:"owner_id" db:"owner_id"`
	ListingID  *uuid.UUID `json:"listing_id,omitempty" db:"listing_id"`
	InquiryID  *uuid.UUID `json:"inquiry_id,omitempty" db:"inquiry_id"`
	FirstName  string     `json:"first_name" db:"first_name"`
	LastName   string     `json:"last_name" db:"last_name"`
	Email      string     `json:"email" db:"email"`
	Phone      string     `json:"phone" db:"phone"`
	LeadSource string     `json:"lead_source" db:"lead_source"`
	Status     LeadStatus `json:"status" db:"status"`
	Notes      string     `json:"notes" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// LeadQuery narrows an authenticated lead search; see ListingQuery.
type LeadQuery struct {
	TenantID *uuid.UUID
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}
