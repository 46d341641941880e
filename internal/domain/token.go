package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

type Claims struct {
	jwt.RegisteredClaims
	AccountID   uuid.UUID   `json:"aid"`
	TenantID    uuid.UUID   `json:"tid"`
	AccountType AccountType `json:"atype"`
	Email       string      `json:"email"`
	Roles       []string    `json:"roles,omitempty"`
	TokenType   string      `json:"type"`
}

// Principal is the authenticated caller as seen by the core: who they are,
// which partition they live in, and which roles they hold.
type Principal struct {
	AccountID uuid.UUID
	TenantID  uuid.UUID
	Roles     RoleList
}

// PrincipalFromClaims builds the caller identity from verified token claims
func PrincipalFromClaims(c *Claims) Principal {
	return Principal{
		AccountID: c.AccountID,
		TenantID:  c.TenantID,
		Roles:     RolesFromStrings(c.Roles),
	}
}
