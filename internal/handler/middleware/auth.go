package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/pkg/blacklist"
	"github.com/andressep95/realty-core/pkg/jwt"
	"github.com/andressep95/realty-core/pkg/logger"
)

const (
	localClaims    = "claims"
	localPrincipal = "principal"
)

// AuthMiddleware validates access tokens and stores the caller in
// fiber.Locals. tokenBlacklist may be nil when Redis is disabled, in which
// case revocation is not checked.
func AuthMiddleware(tokenService *jwt.TokenService, tokenBlacklist *blacklist.TokenBlacklist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header format",
			})
		}

		claims, err := tokenService.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		if tokenBlacklist != nil {
			if status, msg := checkRevoked(c, tokenBlacklist, claims); status != 0 {
				return c.Status(status).JSON(fiber.Map{"error": msg})
			}
		}

		c.Locals(localClaims, claims)
		c.Locals(localPrincipal, domain.PrincipalFromClaims(claims))

		return c.Next()
	}
}

func checkRevoked(c *fiber.Ctx, bl *blacklist.TokenBlacklist, claims *domain.Claims) (int, string) {
	log := logger.FromContext(c.UserContext())

	revoked, err := bl.IsBlacklisted(c.Context(), claims.ID)
	if err != nil {
		log.Error("failed to check token blacklist", zap.Error(err))
		return fiber.StatusInternalServerError, "failed to verify token status"
	}
	if revoked {
		return fiber.StatusUnauthorized, "token has been revoked"
	}

	if claims.IssuedAt == nil {
		return 0, ""
	}
	revoked, err = bl.IsAccountRevoked(c.Context(), claims.AccountID.String(), claims.IssuedAt.Time)
	if err != nil {
		log.Error("failed to check account revocation", zap.Error(err))
		return fiber.StatusInternalServerError, "failed to verify token status"
	}
	if revoked {
		return fiber.StatusUnauthorized, "account has been deactivated"
	}
	return 0, ""
}

// GetPrincipal returns the caller set by AuthMiddleware
func GetPrincipal(c *fiber.Ctx) (domain.Principal, bool) {
	p, ok := c.Locals(localPrincipal).(domain.Principal)
	return p, ok
}

// GetClaims returns the verified token claims set by AuthMiddleware
func GetClaims(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(localClaims).(*domain.Claims)
	return claims, ok
}
