package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/hypeframe/monarch/pkg/kernel"
)

// CodeLength is the number of digits of every issued code.
const CodeLength = 6

// Challenge es el código de un solo uso pendiente para (proyecto, email).
// Solo hay un challenge activo por par; emitir uno nuevo reemplaza al anterior.
type Challenge struct {
	ID          string
	ProjectID   kernel.ProjectID
	Email       string
	Code        string
	ExpiresAt   time.Time
	Consumed    bool
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
}

// NewChallenge crea un challenge emitido en now que vence en ttl.
func NewChallenge(projectID kernel.ProjectID, email, code string, now time.Time, ttl time.Duration, maxAttempts int) *Challenge {
	now = now.UTC()
	return &Challenge{
		ID:          kernel.NewID(),
		ProjectID:   projectID,
		Email:       email,
		Code:        code,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
	}
}

// IsExpired reports whether now is past the expiry.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsLocked reports whether the attempt budget is exhausted.
func (c *Challenge) IsLocked() bool {
	return c.MaxAttempts > 0 && c.Attempts >= c.MaxAttempts
}

// AttemptsRemaining devuelve los intentos que quedan.
func (c *Challenge) AttemptsRemaining() int {
	if left := c.MaxAttempts - c.Attempts; left > 0 {
		return left
	}
	return 0
}

// Matches compara el código en tiempo constante.
func (c *Challenge) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1
}

// GenerateCode returns a uniformly random zero-padded CodeLength-digit code.
func GenerateCode() (string, error) {
	return GenerateOTPCode(CodeLength)
}

// GenerateOTPCode generates a cryptographically secure random code of length digits.
func GenerateOTPCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", length, n), nil
}
