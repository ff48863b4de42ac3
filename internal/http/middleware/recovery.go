package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery converts panics into a generic 500 so one bad request can never
// take the process down.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic recovered: %v", r)

				fields := []zap.Field{
					zap.Error(err),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
				}
				if requestID := c.Locals("request_id"); requestID != nil {
					fields = append(fields, zap.String("request_id", requestID.(string)))
				}
				logger.Error("panic recovered", fields...)

				// Overwrite whatever the handler had staged: the response
				// for a failed request must be the generic 500.
				c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Server error",
				})
			}
		}()

		return c.Next()
	}
}
