package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/handler/middleware"
	"github.com/andressep95/realty-core/pkg/logger"
	"github.com/andressep95/realty-core/pkg/validator"
)

// respondError maps domain errors onto HTTP statuses
func respondError(c *fiber.Ctx, err error) error {
	var qe *domain.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    "quota exceeded",
			"message":  qe.Error(),
			"resource": qe.Resource,
			"limit":    qe.Limit,
			"current":  qe.Current,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.FromContext(c.UserContext()).Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// invalidRequest reports a failed validation with per-field messages
func invalidRequest(c *fiber.Ctx, err error) error {
	var verrs validator.Errors
	if !errors.As(err, &verrs) {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  err.Error(),
		"fields": verrs.Fields(),
	})
}

func principal(c *fiber.Ctx) (domain.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return domain.Principal{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return p, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}
