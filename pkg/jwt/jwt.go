package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/andressep95/realty-core/internal/domain"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
)

const accessTokenType = "access"

// TokenService issues and verifies RS256 access tokens that carry the
// account's tenant and roles.
type TokenService struct {
	privateKey   *rsa.PrivateKey
	publicKey    *rsa.PublicKey
	accessExpiry time.Duration
	issuer       string
}

func NewTokenService(privateKeyPEM, publicKeyPEM []byte, accessExpiry time.Duration, issuer string) (*TokenService, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, accessExpiry, issuer), nil
}

// NewTokenServiceFromKeys builds a service from already parsed keys
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessExpiry time.Duration, issuer string) *TokenService {
	return &TokenService{
		privateKey:   privateKey,
		publicKey:    publicKey,
		accessExpiry: accessExpiry,
		issuer:       issuer,
	}
}

func (s *TokenService) GenerateAccessToken(account *domain.Account) (*domain.TokenPair, error) {
	now := time.Now()
	exp := now.Add(s.accessExpiry)

	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   account.ID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		AccountID:   account.ID,
		TenantID:    account.TenantID,
		AccountType: account.AccountType,
		Email:       account.Email,
		Roles:       account.Roles.Strings(),
		TokenType:   accessTokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken: signed,
		ExpiresAt:   exp,
		TokenType:   "Bearer",
	}, nil
}

func (s *TokenService) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.publicKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid || claims.TokenType != accessTokenType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
