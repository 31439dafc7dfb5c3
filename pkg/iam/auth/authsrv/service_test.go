package authsrv

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/auth/authinfra"
	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpinfra"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpsrv"
	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/hypeframe/monarch/pkg/iam/user/userinfra"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	projectA kernel.ProjectID = "proj-a"
	projectB kernel.ProjectID = "proj-b"
)

type stubVerifier struct {
	identity *auth.FederatedIdentity
	err      error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*auth.FederatedIdentity, error) {
	return v.identity, v.err
}

type codeCapture struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCapture) SendOTP(_ context.Context, _ kernel.ProjectID, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[email] = code
	return nil
}

func (c *codeCapture) last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type fixture struct {
	svc      *AuthService
	users    *userinfra.MemoryUserRepository
	tokens   *authinfra.MemoryTokenRepository
	jwt      *auth.JWTService
	verifier *stubVerifier
	codes    *codeCapture
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    userinfra.NewMemoryUserRepository(),
		tokens:   authinfra.NewMemoryTokenRepository(),
		jwt:      auth.NewJWTService("test-secret-test-secret-test-secret", 15*time.Minute, 7*24*time.Hour, "monarch", 0),
		verifier: &stubVerifier{},
		codes:    &codeCapture{},
	}
	otps := otpsrv.NewOTPService(otpinfra.NewMemoryChallengeRepository(), f.codes, 10*time.Minute, 5)
	f.svc = NewAuthService(
		f.users,
		f.tokens,
		f.jwt,
		authinfra.NewBcryptPasswordService(bcrypt.MinCost),
		f.verifier,
		otps,
		authinfra.NewLogxAuditService(),
		8,
	)
	return f
}

func TestRegister_IssuesVerifiableTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Register(ctx, projectA, "  Alice@Example.com ", "password123", RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.NotEmpty(t, res.RefreshToken)

	claims, err := f.jwt.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, projectA, claims.ProjectID)

	stored, err := f.tokens.FindRefreshToken(ctx, auth.HashRefreshToken(res.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.UserID)
}

func TestRegister_DuplicateEmailInSameProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Register(ctx, projectA, "bob@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, projectA, "BOB@example.com", "another-pass", RequestMeta{})
	assert.True(t, user.CodeDuplicateUser.Is(err))

	// mismo email en otro proyecto es otra identidad
	_, err = f.svc.Register(ctx, projectB, "bob@example.com", "password123", RequestMeta{})
	assert.NoError(t, err)
}

func TestRegister_PasswordLength(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), projectA, "c@example.com", "short", RequestMeta{})
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeValidation))

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.svc.Register(context.Background(), projectA, "c@example.com", string(long), RequestMeta{})
	assert.True(t, errx.IsType(err, errx.TypeValidation))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Register(ctx, projectA, "dana@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		res, err := f.svc.Login(ctx, projectA, "Dana@Example.com", "password123", RequestMeta{IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", res.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, projectA, "dana@example.com", "nope-nope", RequestMeta{})
		assert.True(t, auth.CodeInvalidCredentials.Is(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, projectA, "ghost@example.com", "password123", RequestMeta{})
		assert.True(t, auth.CodeInvalidCredentials.Is(err))
	})

	t.Run("other project", func(t *testing.T) {
		_, err := f.svc.Login(ctx, projectB, "dana@example.com", "password123", RequestMeta{})
		assert.True(t, auth.CodeInvalidCredentials.Is(err))
	})
}

func TestLogin_FederatedOnlyUserHasNoPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.verifier.identity = &auth.FederatedIdentity{
		Provider: iam.FederatedProviderGoogle, Subject: "g-1", Email: "erin@example.com", EmailVerified: true,
	}

	_, err := f.svc.GoogleLogin(ctx, projectA, "id-token", RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, projectA, "erin@example.com", "", RequestMeta{})
	assert.True(t, auth.CodeInvalidCredentials.Is(err))
}

func TestGoogleLogin_CreatesThenLinksExisting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "finn@example.com", "password123", RequestMeta{})
	require.NoError(t, err)
	assert.False(t, reg.User.EmailVerified)

	f.verifier.identity = &auth.FederatedIdentity{
		Provider: iam.FederatedProviderGoogle, Subject: "g-42", Email: "finn@example.com", EmailVerified: true,
	}
	res, err := f.svc.GoogleLogin(ctx, projectA, "id-token", RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.True(t, res.User.EmailVerified)
	assert.Equal(t, "google", res.User.Provider)

	// la contraseña sigue funcionando tras vincular
	_, err = f.svc.Login(ctx, projectA, "finn@example.com", "password123", RequestMeta{})
	assert.NoError(t, err)
}

func TestGoogleLogin_InvalidAssertion(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = auth.ErrInvalidAssertion()

	_, err := f.svc.GoogleLogin(context.Background(), projectA, "bad", RequestMeta{})
	assert.True(t, auth.CodeInvalidAssertion.Is(err))
}

func TestGoogleLogin_VerifierOutage(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = errors.New("dial tcp: connection refused")

	_, err := f.svc.GoogleLogin(context.Background(), projectA, "token", RequestMeta{})
	assert.True(t, errx.CodeStorage.Is(err))
}

func TestOTP_SendVerifyCreatesVerifiedUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SendOTP(ctx, projectA, "Gus@Example.com"))
	code := f.codes.last("gus@example.com")
	require.Len(t, code, otp.CodeLength)

	res, err := f.svc.VerifyOTP(ctx, projectA, "gus@example.com", code, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, res.User.EmailVerified)

	// el código es de un solo uso
	_, err = f.svc.VerifyOTP(ctx, projectA, "gus@example.com", code, RequestMeta{})
	assert.True(t, otp.CodeNoActiveChallenge.Is(err))
}

func TestOTP_VerifyMarksExistingUserVerified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "hal@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.SendOTP(ctx, projectA, "hal@example.com"))
	res, err := f.svc.VerifyOTP(ctx, projectA, "hal@example.com", f.codes.last("hal@example.com"), RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.True(t, res.User.EmailVerified)
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "ivy@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, next.RefreshToken)
	assert.Equal(t, reg.User.ID, next.User.ID)

	_, err = f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{})
	assert.True(t, auth.CodeInvalidRefreshToken.Is(err))

	_, err = f.svc.Refresh(ctx, projectA, next.RefreshToken, RequestMeta{})
	assert.NoError(t, err)
}

func TestRefresh_WrongProjectOrUnknown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "jo@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, projectB, reg.RefreshToken, RequestMeta{})
	assert.True(t, auth.CodeInvalidRefreshToken.Is(err))

	_, err = f.svc.Refresh(ctx, projectA, "not-a-token", RequestMeta{})
	assert.True(t, auth.CodeInvalidRefreshToken.Is(err))

	_, err = f.svc.Refresh(ctx, projectA, "", RequestMeta{})
	assert.True(t, auth.CodeInvalidRefreshToken.Is(err))

	// el intento desde otro proyecto no quemó el token
	_, err = f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{})
	assert.NoError(t, err)
}

func TestRefresh_Expired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "kai@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
	_, err = f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{})
	assert.True(t, auth.CodeInvalidRefreshToken.Is(err))
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "lee@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Register(ctx, projectA, "max@example.com", "password123", RequestMeta{})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, projectA, "max@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	t.Run("single device", func(t *testing.T) {
		require.NoError(t, f.svc.Logout(ctx, projectA, LogoutInput{RefreshToken: first.RefreshToken}, RequestMeta{}))

		_, err := f.svc.Refresh(ctx, projectA, first.RefreshToken, RequestMeta{})
		assert.True(t, auth.CodeInvalidRefreshToken.Is(err))
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.NoError(t, f.svc.Logout(ctx, projectA, LogoutInput{RefreshToken: first.RefreshToken}, RequestMeta{}))
		assert.NoError(t, f.svc.Logout(ctx, projectA, LogoutInput{RefreshToken: "unknown"}, RequestMeta{}))
		assert.NoError(t, f.svc.Logout(ctx, projectA, LogoutInput{}, RequestMeta{}))
	})

	t.Run("all devices", func(t *testing.T) {
		third, err := f.svc.Login(ctx, projectA, "max@example.com", "password123", RequestMeta{})
		require.NoError(t, err)

		uid := second.User.ID
		require.NoError(t, f.svc.Logout(ctx, projectA, LogoutInput{AllDevices: true, UserID: &uid}, RequestMeta{}))

		_, err = f.svc.Refresh(ctx, projectA, second.RefreshToken, RequestMeta{})
		assert.True(t, auth.CodeInvalidRefreshToken.Is(err))
		_, err = f.svc.Refresh(ctx, projectA, third.RefreshToken, RequestMeta{})
		assert.True(t, auth.CodeInvalidRefreshToken.Is(err))
	})
}

func TestLogout_OtherProjectTokenUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "ned@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, projectB, LogoutInput{RefreshToken: reg.RefreshToken}, RequestMeta{}))

	_, err = f.svc.Refresh(ctx, projectA, reg.RefreshToken, RequestMeta{})
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.svc.Register(ctx, projectA, "ola@example.com", "password123", RequestMeta{})
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, projectA, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ola@example.com", me.Email)

	_, err = f.svc.Me(ctx, projectB, reg.User.ID)
	assert.True(t, iam.CodeUnauthenticated.Is(err))
}
