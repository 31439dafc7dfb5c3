package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/httpx"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProjects map[string]kernel.ProjectID

func (s staticProjects) Authenticate(_ context.Context, rawKey string) (*project.Project, error) {
	id, ok := s[rawKey]
	if !ok {
		return nil, project.ErrInvalidAPIKey()
	}
	return &project.Project{ID: id, IsActive: true}, nil
}

func newGateApp(t *testing.T) (*fiber.App, *JWTService) {
	t.Helper()
	jwtSvc := newTestJWT()
	mw := NewAuthMiddleware(staticProjects{"key-1": "p1", "key-2": "p2"}, jwtSvc)

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Use(mw.RequireProject())
	app.Get("/public", func(c *fiber.Ctx) error {
		ac, _ := GetAuthContext(c)
		return c.SendString(ac.ProjectID.String())
	})
	app.Get("/private", mw.RequireUser(), func(c *fiber.Ctx) error {
		ac, ok := kernel.AuthFromContext(c.UserContext())
		require.True(t, ok)
		return c.SendString(ac.UserID.String())
	})
	app.Get("/optional", mw.OptionalUser(), func(c *fiber.Ctx) error {
		ac, _ := GetAuthContext(c)
		if ac.IsAuthenticated() {
			return c.SendString("user")
		}
		return c.SendString("anon")
	})
	return app, jwtSvc
}

func doGet(t *testing.T, app *fiber.App, path, apiKey, bearer string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if apiKey != "" {
		req.Header.Set(HeaderAPIKey, apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGate_APIKey(t *testing.T) {
	app, _ := newGateApp(t)

	status, _ := doGet(t, app, "/public", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := doGet(t, app, "/public", "wrong", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "PROJECT_INVALID_API_KEY")

	status, body = doGet(t, app, "/public", "key-1", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "p1", body)
}

func TestGate_Bearer(t *testing.T) {
	app, jwtSvc := newGateApp(t)

	token, err := jwtSvc.IssueAccessToken("u1", "p1")
	require.NoError(t, err)

	status, body := doGet(t, app, "/private", "key-1", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "IAM_UNAUTHENTICATED")

	status, body = doGet(t, app, "/private", "key-1", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u1", body)

	// a valid token never crosses projects
	status, body = doGet(t, app, "/private", "key-2", token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "IAM_INVALID_TOKEN")

	status, body = doGet(t, app, "/private", "key-1", "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "IAM_MALFORMED_TOKEN")
}

func TestGate_OptionalUser(t *testing.T) {
	app, jwtSvc := newGateApp(t)
	token, err := jwtSvc.IssueAccessToken("u1", "p1")
	require.NoError(t, err)

	_, body := doGet(t, app, "/optional", "key-1", "")
	assert.Equal(t, "anon", body)

	_, body = doGet(t, app, "/optional", "key-1", "junk")
	assert.Equal(t, "anon", body)

	_, body = doGet(t, app, "/optional", "key-1", token)
	assert.Equal(t, "user", body)
}
