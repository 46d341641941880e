package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the lifecycle state of a property listing
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusWithdrawn ListingStatus = "withdrawn"
)

// IsValid reports whether s is a known status
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPending, ListingStatusSold, ListingStatusWithdrawn:
		return true
	}
	return false
}

// Listing is a property owned by exactly one account. It counts toward the
// owner's active listing quota only while Status is active.
type Listing struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	TenantID          uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	OwnerID           uuid.UUID     `json:"owner_id" db:"owner_id"`
	Title             string        `json:"title" db:"title"`
	Description       string        `json:"description" db:"description"`
	PropertyType      string        `json:"property_type" db:"property_type"`
	Price             float64       `json:"price" db:"price"`
	City              string        `json:"city" db:"city"`
	Address           string        `json:"address" db:"address"`
	Bedrooms          int           `json:"bedrooms" db:"bedrooms"`
	Bathrooms         int           `json:"bathrooms" db:"bathrooms"`
	AreaSqFt          float64       `json:"area_sq_ft" db:"area_sq_ft"`
	Status            ListingStatus `json:"status" db:"status"`
	IsPubliclyVisible bool          `json:"is_publicly_visible" db:"is_publicly_visible"`
	IsFeatured        bool          `json:"is_featured" db:"is_featured"`
	InquiryCount      int           `json:"inquiry_count" db:"inquiry_count"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// ListingQuery narrows an authenticated listing search. TenantID and OwnerID
// are set from the caller's visibility scope, never from user input.
type ListingQuery struct {
	TenantID *uuid.UUID
	OwnerID  *uuid.UUID
	Status   *ListingStatus
	Limit    int
	Offset   int
}

// PublicListingFilter narrows the public catalog
type PublicListingFilter struct {
	TenantID     *uuid.UUID // broker microsites only
	City         string
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	Limit        int
	Offset       int
}

// BrokerContact is the minimal broker data exposed on public listings
type BrokerContact struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name,omitempty"`
}

// ProjectedListing is the customer-facing listing view. It must never carry
// tenant, owner, or quota fields.
type ProjectedListing struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	PropertyType string        `json:"property_type"`
	Price        float64       `json:"price"`
	City         string        `json:"city"`
	Address      string        `json:"address"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    int           `json:"bathrooms"`
	AreaSqFt     float64       `json:"area_sq_ft"`
	IsFeatured   bool          `json:"is_featured"`
	CreatedAt    time.Time     `json:"created_at"`
	Broker       BrokerContact `json:"broker"`
}
