package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/repository"
	"github.com/andressep95/realty-core/pkg/hash"
	"github.com/andressep95/realty-core/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is deactivated")
)

// AccessTokenRevoker revokes a single access token by its id
type AccessTokenRevoker interface {
	AddAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
}

type AuthService struct {
	accounts     repository.AccountRepository
	tokenService *jwt.TokenService
	revoker      AccessTokenRevoker
	hasher       *hash.Hasher
	log          *zap.Logger
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Tokens  *domain.TokenPair `json:"tokens"`
	Account *domain.Account   `json:"account"`
}

// revoker may be nil when Redis is disabled
func NewAuthService(
	accounts repository.AccountRepository,
	tokenService *jwt.TokenService,
	revoker AccessTokenRevoker,
	hasher *hash.Hasher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts:     accounts,
		tokenService: tokenService,
		revoker:      revoker,
		hasher:       hasher,
		log:          log,
	}
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	valid, stale, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		s.log.Warn("stored password hash is unreadable", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	if stale {
		s.rehash(ctx, account, req.Password)
	}

	tokens, err := s.tokenService.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResponse{Tokens: tokens, Account: account}, nil
}

// rehash upgrades a hash made with older cost settings. Login proceeds
// either way.
func (s *AuthService) rehash(ctx context.Context, account *domain.Account, password string) {
	upgraded, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, account.ID, upgraded)
	}
	if err != nil {
		s.log.Warn("failed to upgrade password hash", zap.String("account_id", account.ID.String()), zap.Error(err))
		return
	}
	account.PasswordHash = upgraded
}

// Logout revokes the presented access token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *domain.Claims) error {
	if s.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.AddAccessToken(ctx, claims.ID, claims.ExpiresAt.Time)
}
