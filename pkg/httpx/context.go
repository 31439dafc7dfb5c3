package httpx

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// requestIDLocal is the Locals key used by Fiber's requestid middleware.
const requestIDLocal = "requestid"

// RequestID returns the id assigned by the requestid middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

// Deadline bounds every request with timeout and exposes the request id
// through the user context so adapters and logs inherit both.
func Deadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := kernel.WithRequestID(c.UserContext(), RequestID(c))
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
