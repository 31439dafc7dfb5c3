package auth

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// TokenRepository defines the contract for refresh token persistence.
// Every lookup is by SHA-256 hash.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token RefreshToken) error
	// FindRefreshToken returns ErrInvalidRefreshToken when the hash is unknown.
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeIfActive revokes the token only if it is neither revoked nor expired at now.
	// It reports whether this call performed the revocation.
	RevokeIfActive(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	// RevokeRefreshToken is idempotent; unknown hashes are not an error.
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID) error
	// CleanExpiredTokens deletes records that expired before the cutoff.
	CleanExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// TokenService defines the contract for access token management
type TokenService interface {
	IssueAccessToken(userID kernel.UserID, projectID kernel.ProjectID) (string, error)
	VerifyAccessToken(token string) (*TokenClaims, error)
}

// PasswordService hashes and checks passwords.
type PasswordService interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// IdentityVerifier valida una aserción federada (ID token de Google).
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*FederatedIdentity, error)
}

// ProjectAuthenticator resuelve la API key al proyecto activo.
type ProjectAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*project.Project, error)
}

// AuditService defines the contract for authentication audit logging
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, success bool, ip string, userAgent string)
	LogLogout(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string)
	LogOTPVerification(ctx context.Context, projectID kernel.ProjectID, contact string, success bool, ip string)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string)
	LogAccountLinked(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string)
}
