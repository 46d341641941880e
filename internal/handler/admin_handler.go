package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

// AdminHandler is the platform administration surface
type AdminHandler struct {
	accountService *service.AccountService
	quotaService   *service.QuotaService
	validator      *validator.Validator
}

func NewAdminHandler(accountService *service.AccountService, quotaService *service.QuotaService, validator *validator.Validator) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		quotaService:   quotaService,
		validator:      validator,
	}
}

// CreateAccount onboards a top-level account
// POST /api/v1/admin/accounts
func (h *AdminHandler) CreateAccount(c *fiber.Ctx) error {
	var req service.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	account, err := h.accountService.CreateAccount(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

// GetAccountUsage
// GET /api/v1/admin/accounts/:id/quota
func (h *AdminHandler) GetAccountUsage(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := h.quotaService.GetUsage(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// UpgradeQuota changes an account's ceilings
// PATCH /api/v1/admin/accounts/:id/quota
func (h *AdminHandler) UpgradeQuota(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req service.UpgradeQuotaRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	account, err := h.accountService.UpgradeQuota(c.Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// DeactivateAccount
// POST /api/v1/admin/accounts/:id/deactivate
func (h *AdminHandler) DeactivateAccount(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.accountService.DeactivateAccount(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Account deactivated",
	})
}
