package iam

import (
	"net/http"

	"github.com/hypeframe/monarch/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthenticated = ErrRegistry.Register("UNAUTHENTICATED", errx.TypeAuthorization, http.StatusUnauthorized, "Authentication required")
	CodeInvalidToken    = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid access token")
	CodeExpiredToken    = ErrRegistry.Register("EXPIRED_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Access token has expired")
	CodeMalformedToken  = ErrRegistry.Register("MALFORMED_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Malformed access token")
)

// Helper functions
func ErrUnauthenticated() *errx.Error {
	return ErrRegistry.New(CodeUnauthenticated)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrExpiredToken() *errx.Error {
	return ErrRegistry.New(CodeExpiredToken)
}

func ErrMalformedToken() *errx.Error {
	return ErrRegistry.New(CodeMalformedToken)
}

// FederatedProvider represents supported identity providers
type FederatedProvider string

const (
	FederatedProviderGoogle FederatedProvider = "GOOGLE"
)

// GetProviderName returns the human-readable provider name
func (p FederatedProvider) GetProviderName() string {
	switch p {
	case FederatedProviderGoogle:
		return "Google"
	default:
		return "Unknown"
	}
}
