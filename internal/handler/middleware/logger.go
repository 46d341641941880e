package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/pkg/logger"
)

const headerRequestID = "X-Request-ID"

// LoggerMiddleware attaches a request-scoped logger to the user context and
// logs every completed request.
func LoggerMiddleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(headerRequestID, requestID)

		reqLog := log.With(zap.String("request_id", requestID))
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

		err := c.Next()
		if err != nil {
			// let the app error handler write the response before we read the status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		reqLog.Info("request completed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		)

		return nil
	}
}
