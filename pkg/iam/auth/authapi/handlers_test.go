package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/httpx"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/auth/authinfra"
	"github.com/hypeframe/monarch/pkg/iam/auth/authsrv"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpinfra"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpsrv"
	"github.com/hypeframe/monarch/pkg/iam/project/projectinfra"
	"github.com/hypeframe/monarch/pkg/iam/project/projectsrv"
	"github.com/hypeframe/monarch/pkg/iam/user/userinfra"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopNotifier struct{}

func (nopNotifier) SendOTP(context.Context, kernel.ProjectID, string, string) error { return nil }

type rejectVerifier struct{}

func (rejectVerifier) Verify(context.Context, string) (*auth.FederatedIdentity, error) {
	return nil, auth.ErrInvalidAssertion()
}

func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	ctx := context.Background()

	projects := projectsrv.NewProjectService(projectinfra.NewMemoryProjectRepository(), "mk_")
	_, key, err := projects.Create(ctx, "demo", "Demo")
	require.NoError(t, err)

	jwtService := auth.NewJWTService("handler-test-secret-handler-test-secret", 15*time.Minute, 24*time.Hour, "monarch", 0)
	service := authsrv.NewAuthService(
		userinfra.NewMemoryUserRepository(),
		authinfra.NewMemoryTokenRepository(),
		jwtService,
		authinfra.NewBcryptPasswordService(bcrypt.MinCost),
		rejectVerifier{},
		otpsrv.NewOTPService(otpinfra.NewMemoryChallengeRepository(), nopNotifier{}, 10*time.Minute, 5),
		authinfra.NewLogxAuditService(),
		8,
	)

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	mw := auth.NewAuthMiddleware(projects, jwtService)
	h := NewAuthHandlers(service)
	h.RegisterRoutes(app, mw)
	h.RegisterLegacyRoutes(app, mw)
	return app, key
}

func do(t *testing.T, app *fiber.App, method, path, apiKey, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(auth.HeaderAPIKey, apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestRegisterLoginMe(t *testing.T) {
	app, key := newTestApp(t)
	creds := map[string]string{"email": "pat@example.com", "password": "password123"}

	status, body := do(t, app, http.MethodPost, "/auth/register", key, "", creds)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Bearer", body["tokenType"])
	assert.NotEmpty(t, body["refreshToken"])

	status, body = do(t, app, http.MethodPost, "/auth/register", key, "", creds)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USER_DUPLICATE_USER", body["code"])

	status, body = do(t, app, http.MethodPost, "/api/project-auth/login", key, "", creds)
	require.Equal(t, http.StatusOK, status, body)
	access := body["accessToken"].(string)

	status, body = do(t, app, http.MethodGet, "/auth/me", key, access, nil)
	require.Equal(t, http.StatusOK, status, body)
	me := body["user"].(map[string]any)
	assert.Equal(t, "pat@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")
}

func TestAPIKeyGate(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/auth/login", "", "", map[string]string{"email": "a@b.co", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "PROJECT_INVALID_API_KEY", body["code"])

	status, _ = do(t, app, http.MethodPost, "/auth/login", "mk_wrong", "", map[string]string{"email": "a@b.co", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequestValidation(t *testing.T) {
	app, key := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/auth/login", key, "", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "REQUEST_BAD_REQUEST", body["code"])

	status, body = do(t, app, http.MethodPost, "/auth/register", key, "", map[string]string{"email": "nope", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "REQUEST_VALIDATION_FAILED", body["code"])
}

func TestMeRequiresBearer(t *testing.T) {
	app, key := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/auth/me", key, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "IAM_UNAUTHENTICATED", body["code"])

	status, _ = do(t, app, http.MethodGet, "/auth/me", key, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshAndLogout(t *testing.T) {
	app, key := newTestApp(t)

	_, reg := do(t, app, http.MethodPost, "/auth/register", key, "", map[string]string{"email": "quin@example.com", "password": "password123"})
	refresh := reg["refreshToken"].(string)

	status, body := do(t, app, http.MethodPost, "/auth/refresh", key, "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status, body)
	rotated := body["refreshToken"].(string)

	status, body = do(t, app, http.MethodPost, "/auth/refresh", key, "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_INVALID_REFRESH_TOKEN", body["code"])

	status, _ = do(t, app, http.MethodPost, "/auth/logout", key, "", map[string]string{"refreshToken": rotated})
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodPost, "/auth/logout", key, "", map[string]string{"refreshToken": rotated})
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodPost, "/auth/logout", key, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/auth/refresh", key, "", map[string]string{"refreshToken": rotated})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOTPSendIsGeneric(t *testing.T) {
	app, key := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/auth/otp/send", key, "", map[string]string{"email": "ray@example.com"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, otpSentMessage, body["message"])

	status, body = do(t, app, http.MethodPost, "/auth/otp/verify", key, "", map[string]string{"email": "nobody@example.com", "code": "123456"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "OTP_NO_ACTIVE_CHALLENGE", body["code"])
}

func TestGoogleLoginRejected(t *testing.T) {
	app, key := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/auth/google-login", key, "", map[string]string{"idToken": "forged"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_INVALID_ASSERTION", body["code"])
}
