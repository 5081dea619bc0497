package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornweave/nornweave/internal/pkg/id"
)

func requestIDApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})
	return app
}

func TestRequestID(t *testing.T) {
	t.Run("generates a trace id when none is sent", func(t *testing.T) {
		app := requestIDApp()

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)

		assert.True(t, id.ValidateTraceID(resp.Header.Get("X-Request-ID")))
	})

	t.Run("echoes a well-formed inbound trace id", func(t *testing.T) {
		app := requestIDApp()

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "0af7651916cd43dd8448eb211c80319c")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", resp.Header.Get("X-Request-ID"))
	})

	t.Run("replaces a malformed inbound value", func(t *testing.T) {
		app := requestIDApp()

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "not-a-trace-id")

		resp, err := app.Test(req)
		require.NoError(t, err)

		got := resp.Header.Get("X-Request-ID")
		assert.NotEqual(t, "not-a-trace-id", got)
		assert.True(t, id.ValidateTraceID(got))
	})
}
