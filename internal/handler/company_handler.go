package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

// CompanyHandler lets a company owner manage its employees
type CompanyHandler struct {
	accountService *service.AccountService
	validator      *validator.Validator
}

func NewCompanyHandler(accountService *service.AccountService, validator *validator.Validator) *CompanyHandler {
	return &CompanyHandler{
		accountService: accountService,
		validator:      validator,
	}
}

// AddEmployee
// POST /api/v1/company/employees
func (h *CompanyHandler) AddEmployee(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req service.AddEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	employee, err := h.accountService.AddEmployee(c.Context(), p.AccountID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(employee)
}

// ListEmployees
// GET /api/v1/company/employees
func (h *CompanyHandler) ListEmployees(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	employees, err := h.accountService.ListEmployees(c.Context(), p.AccountID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"employees": employees})
}
