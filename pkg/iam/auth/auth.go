package auth

import (
	"net/http"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// RefreshToken es el registro persistido de un refresh token.
// Solo se guarda el hash SHA-256; el token en claro nunca toca el storage.
type RefreshToken struct {
	ID        string           `db:"id"`
	TokenHash string           `db:"token_hash"`
	UserID    kernel.UserID    `db:"user_id"`
	ProjectID kernel.ProjectID `db:"project_id"`
	IssuedAt  time.Time        `db:"issued_at"`
	ExpiresAt time.Time        `db:"expires_at"`
	Revoked   bool             `db:"revoked"`
	RevokedAt *time.Time       `db:"revoked_at"`
}

// TokenClaims represents verified access token claims
type TokenClaims struct {
	UserID    kernel.UserID
	ProjectID kernel.ProjectID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair es la respuesta de cualquier login exitoso.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// FederatedIdentity es una aserción externa ya verificada.
type FederatedIdentity struct {
	Provider      iam.FederatedProvider
	Subject       string
	Email         string
	EmailVerified bool
}

// ============================================================================
// Domain Methods
// ============================================================================

// IsExpired checks if the refresh token has expired
func (r *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// IsValid checks if the refresh token is usable
func (r *RefreshToken) IsValid(now time.Time) bool {
	return !r.Revoked && !r.IsExpired(now)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid refresh token")
	CodeInvalidAssertion      = ErrRegistry.Register("INVALID_ASSERTION", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid identity assertion")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
)

// Helper functions
func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrInvalidAssertion() *errx.Error {
	return ErrRegistry.New(CodeInvalidAssertion)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}
