package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
)

// RequirePermission allows the request only if the caller's roles grant perm
func RequirePermission(resolver *authz.Resolver, perm domain.Permission) fiber.Handler {
	return RequireAnyPermission(resolver, perm)
}

// RequireAnyPermission allows the request if the caller's roles grant at
// least one of perms. Resolution is against the static catalog.
func RequireAnyPermission(resolver *authz.Resolver, perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !resolver.HasAnyPermission(p.Roles, perms...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":                "Forbidden: insufficient permissions",
				"required_permissions": perms,
			})
		}

		return c.Next()
	}
}
