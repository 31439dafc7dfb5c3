package metricx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New("monarch")
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error { return errx.Forbidden("no") })
	app.Get("/metrics", m.Handler())

	for _, path := range []string{"/items/1", "/items/2", "/denied"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("monarch", "GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("monarch", "GET", "/denied", "403")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestAuthEvent(t *testing.T) {
	m := New("monarch")
	m.AuthEvent("login", true)
	m.AuthEvent("login", false)
	m.AuthEvent("login", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")))
}
