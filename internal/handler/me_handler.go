package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/service"
)

// MeHandler serves the caller's own account, permissions and usage
type MeHandler struct {
	accountService *service.AccountService
	quotaService   *service.QuotaService
	resolver       *authz.Resolver
}

func NewMeHandler(accountService *service.AccountService, quotaService *service.QuotaService, resolver *authz.Resolver) *MeHandler {
	return &MeHandler{
		accountService: accountService,
		quotaService:   quotaService,
		resolver:       resolver,
	}
}

// GetMe returns the caller's account
// GET /api/v1/me
func (h *MeHandler) GetMe(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	account, err := h.accountService.GetAccount(c.Context(), p.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// GetMyPermissions returns the caller's effective permissions and scope
// GET /api/v1/me/permissions
func (h *MeHandler) GetMyPermissions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"roles":           p.Roles,
		"permissions":     h.resolver.ResolvePermissions(p.Roles).Sorted(),
		"scope":           h.resolver.ResolveScope(p.Roles),
		"catalog_version": h.resolver.Catalog().Version(),
	})
}

// GetMyQuota returns live usage against the caller's ceilings
// GET /api/v1/me/quota
func (h *MeHandler) GetMyQuota(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	report, err := h.quotaService.GetUsage(c.Context(), p.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
