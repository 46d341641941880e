package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Inquiry is a prospective customer's interest in a listing. It is not owned
// by any account.
type Inquiry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ListingID uuid.UUID `json:"listing_id" db:"listing_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SplitName splits a free-form name into first name and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
