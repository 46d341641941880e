package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	service string
	checks  map[string]HealthCheck
}

func NewHealthHandler(service string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, checks: checks}
}

// Health returns basic health status
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"service": h.service,
	})
}

// Ready pings every dependency
// GET /ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := fiber.StatusOK
	results := fiber.Map{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != fiber.StatusOK {
		state = "not ready"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"checks": results,
	})
}
