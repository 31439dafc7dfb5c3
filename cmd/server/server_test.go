package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "mk_live_e2e_key"

var otpCode = regexp.MustCompile(`\b\d{6}\b`)

type googleStub struct{}

func (googleStub) Verify(_ context.Context, idToken string) (*auth.FederatedIdentity, error) {
	if idToken != "good-token" {
		return nil, auth.ErrInvalidAssertion()
	}
	return &auth.FederatedIdentity{
		Provider:      iam.FederatedProviderGoogle,
		Subject:       "google-sub-1",
		Email:         "gina@example.com",
		EmailVerified: true,
	}, nil
}

func newTestServer(t *testing.T) (*fiber.App, *Container) {
	t.Helper()
	t.Setenv("STORE_DRIVER", config.StoreDriverMemory)
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("NOTIFX_PROVIDER", "console")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("BOOTSTRAP_PROJECT_ID", "e2e")
	t.Setenv("BOOTSTRAP_API_KEY", testAPIKey)

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	container, err := NewContainer(ctx, cfg, withIdentityVerifier(googleStub{}))
	require.NoError(t, err)
	t.Cleanup(container.Cleanup)
	require.NoError(t, container.Bootstrap(ctx))

	return NewApp(container), container
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderAPIKey, testAPIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestServer_Health(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.StoreDriverMemory, body["store"])
}

func TestServer_HealthHidesFailureCause(t *testing.T) {
	app, container := newTestServer(t)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	container.Redis = redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["redis"])
	assert.NotContains(t, body, "redis_error")
	assert.NotContains(t, string(raw), addr)
}

func TestServer_Metrics(t *testing.T) {
	app, _ := newTestServer(t)
	call(t, app, http.MethodGet, "/health", "", nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestServer_UnknownRoute(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := call(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["code"])
	assert.NotEmpty(t, body["request_id"])
}

func TestServer_PasswordFlowAndDocuments(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := call(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "Ana@Example.com", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, status, body)
	access := body["accessToken"].(string)
	refresh := body["refreshToken"].(string)
	assert.Equal(t, "ana@example.com", body["user"].(map[string]any)["email"])

	status, body = call(t, app, http.MethodPost, "/db/create", access, map[string]any{
		"collection": "todos", "data": map[string]any{"title": "write", "completed": false},
	})
	require.Equal(t, http.StatusCreated, status, body)
	docID := body["document"].(map[string]any)["id"].(string)

	status, body = call(t, app, http.MethodPut, "/api/project-db/update", access, map[string]any{
		"documentId": docID, "patch": map[string]any{"completed": true}, "expectedVersion": 1,
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, app, http.MethodGet, "/db/stats", access, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["totalDocuments"])

	// rotación: el refresh viejo deja de servir
	status, body = call(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status, body)
	status, _ = call(t, app, http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_OTPFlowThroughConsoleMailer(t *testing.T) {
	app, container := newTestServer(t)

	status, _ := call(t, app, http.MethodPost, "/auth/otp/send", "", map[string]any{"email": "otto@example.com"})
	require.Equal(t, http.StatusOK, status)

	msg, ok := container.Console.LastTo("otto@example.com")
	require.True(t, ok)
	code := otpCode.FindString(msg.TextBody)
	require.NotEmpty(t, code)

	status, body := call(t, app, http.MethodPost, "/api/project-auth/otp/verify", "", map[string]any{
		"email": "otto@example.com", "code": code,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["user"].(map[string]any)["emailVerified"])

	status, body = call(t, app, http.MethodGet, "/auth/me", body["accessToken"].(string), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "otto@example.com", body["user"].(map[string]any)["email"])
}

func TestServer_GoogleLogin(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := call(t, app, http.MethodPost, "/auth/google-login", "", map[string]any{"idToken": "good-token"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "gina@example.com", body["user"].(map[string]any)["email"])

	status, body = call(t, app, http.MethodPost, "/auth/google-login", "", map[string]any{"idToken": "forged"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_INVALID_ASSERTION", body["code"])
}

func TestServer_RejectsWrongAPIKey(t *testing.T) {
	app, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@b.io","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderAPIKey, "mk_live_wrong")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewContainer_UnknownMailProvider(t *testing.T) {
	t.Setenv("STORE_DRIVER", config.StoreDriverMemory)
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("NOTIFX_PROVIDER", "carrier-pigeon")

	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
