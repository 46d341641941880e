package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/handler/middleware"
	"github.com/andressep95/realty-core/internal/service"
	"github.com/andressep95/realty-core/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Login handles account login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return invalidRequest(c, err)
	}

	resp, err := h.authService.Login(c.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.authService.Logout(c.Context(), claims); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}
