package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/andressep95/realty-core/pkg/logger"
)

// RecoveryMiddleware recovers from panics and returns 500 error
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.UserContext()).Error("panic recovered",
					zap.String("panic", fmt.Sprint(r)),
					zap.ByteString("stack", debug.Stack()),
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "internal server error",
				})
			}
		}()

		return c.Next()
	}
}
