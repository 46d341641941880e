package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/pkg/metrics"
)

// MetricsMiddleware records request count and latency labelled by the
// matched route template, not the raw path.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		m.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
