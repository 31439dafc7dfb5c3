package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func newTestApp(h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Deadline(time.Second))
	app.Post("/t", h)
	app.Use(NotFound)
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestBind(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		var body registerBody
		if err := Bind(c, &body); err != nil {
			return err
		}
		return c.JSON(body)
	})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"valid", `{"email":"a@x.io","password":"secret1"}`, 200, ""},
		{"malformed", `{"email":`, 400, "REQUEST_BAD_REQUEST"},
		{"empty", ``, 400, "REQUEST_BAD_REQUEST"},
		{"wrong type", `{"email":5}`, 400, "REQUEST_BAD_REQUEST"},
		{"invalid fields", `{"email":"nope","password":"1"}`, 400, "REQUEST_VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/t", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, resp)["code"])
			}
		})
	}
}

func TestBind_FieldNamesUseJSONTags(t *testing.T) {
	err := Validate(&registerBody{Email: "bad"})
	var xe *errx.Error
	require.ErrorAs(t, err, &xe)
	fields := xe.Details["fields"].(map[string]string)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestErrorHandler_HidesInternalCause(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error {
		return errors.New("pq: password authentication failed")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/t", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "STORE_UNAVAILABLE", body["code"])
	assert.NotContains(t, body["error"], "password")
}

func TestErrorHandler_DeadlineIsTimeout(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Deadline(time.Millisecond))
	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return c.UserContext().Err()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/slow", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	app := newTestApp(func(c *fiber.Ctx) error { return nil })
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "REQUEST_ROUTE_NOT_FOUND", decode(t, resp)["code"])
}

func TestDeadline_SetsContextDeadline(t *testing.T) {
	var hasDeadline bool
	app := fiber.New()
	app.Use(Deadline(time.Minute))
	app.Get("/", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(http.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}
