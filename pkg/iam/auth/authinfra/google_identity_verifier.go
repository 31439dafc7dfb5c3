package authinfra

import (
	"context"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
)

// validateFunc matches idtoken.Validate.
type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleIdentityVerifier valida ID tokens de Google contra el client ID configurado.
type GoogleIdentityVerifier struct {
	clientID string
	validate validateFunc
}

func NewGoogleIdentityVerifier(clientID string) *GoogleIdentityVerifier {
	return &GoogleIdentityVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify devuelve la identidad solo si la firma, la audiencia y el email verificado son válidos.
func (v *GoogleIdentityVerifier) Verify(ctx context.Context, assertion string) (*auth.FederatedIdentity, error) {
	if v.clientID == "" {
		return nil, auth.ErrInvalidAssertion().WithDetail("reason", "google login is not configured")
	}
	if strings.TrimSpace(assertion) == "" {
		return nil, auth.ErrInvalidAssertion().WithDetail("reason", "empty id token")
	}

	payload, err := v.validate(ctx, assertion, v.clientID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, auth.ErrInvalidAssertion().WithCause(err)
	}

	email, _ := payload.Claims["email"].(string)
	verified := claimBool(payload.Claims["email_verified"])
	if email == "" || !verified {
		return nil, auth.ErrInvalidAssertion().WithDetail("reason", "email is missing or not verified")
	}

	return &auth.FederatedIdentity{
		Provider:      iam.FederatedProviderGoogle,
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: verified,
	}, nil
}

// Google envía email_verified como bool, pero algunos tokens antiguos lo envían como string.
func claimBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
