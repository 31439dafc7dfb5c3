package otp

import (
	"net/http"

	"github.com/hypeframe/monarch/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeNoActiveChallenge = ErrRegistry.Register("NO_ACTIVE_CHALLENGE", errx.TypeAuthorization, http.StatusUnauthorized, "No active verification code for this email")
	CodeExpiredChallenge  = ErrRegistry.Register("EXPIRED_CHALLENGE", errx.TypeAuthorization, http.StatusUnauthorized, "Verification code has expired")
	CodeCodeMismatch      = ErrRegistry.Register("CODE_MISMATCH", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid verification code")
	CodeTooManyAttempts   = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeRateLimit, http.StatusTooManyRequests, "Too many verification attempts")
)

func ErrNoActiveChallenge() *errx.Error { return ErrRegistry.New(CodeNoActiveChallenge) }
func ErrExpiredChallenge() *errx.Error  { return ErrRegistry.New(CodeExpiredChallenge) }
func ErrCodeMismatch() *errx.Error      { return ErrRegistry.New(CodeCodeMismatch) }
func ErrTooManyAttempts() *errx.Error   { return ErrRegistry.New(CodeTooManyAttempts) }
