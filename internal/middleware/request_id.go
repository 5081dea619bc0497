package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nornweave/nornweave/internal/pkg/id"
)

// RequestIDConfig configures the request ID middleware
type RequestIDConfig struct {
	// Header is the header key for the request ID
	Header string
	// Generator generates a new request ID
	Generator func() string
}

// DefaultRequestIDConfig returns default request ID config
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		Header:    "X-Request-ID",
		Generator: id.NewTraceID,
	}
}

// RequestID creates a request ID middleware. The same identifier doubles as
// the trace id propagated to downstream agents, so an inbound value that is
// not a well-formed trace id is replaced rather than forwarded.
func RequestID(config ...RequestIDConfig) fiber.Handler {
	cfg := DefaultRequestIDConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(cfg.Header)
		if !id.ValidateTraceID(requestID) {
			requestID = cfg.Generator()
		}

		c.Set(cfg.Header, requestID)
		c.Locals("requestID", requestID)

		return c.Next()
	}
}

// GetRequestID returns the request ID stored by the middleware
func GetRequestID(c *fiber.Ctx) string {
	if v, ok := c.Locals("requestID").(string); ok {
		return v
	}
	return ""
}
