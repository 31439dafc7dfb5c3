package otp

import (
	"context"

	"github.com/hypeframe/monarch/pkg/kernel"
)

// Repository guarda el challenge activo de cada (proyecto, email).
type Repository interface {
	// Save replaces any previous challenge for the same project and email.
	Save(ctx context.Context, c *Challenge) error
	// Get returns ErrNoActiveChallenge when nothing was issued.
	Get(ctx context.Context, projectID kernel.ProjectID, email string) (*Challenge, error)
	// ReserveAttempt atomically spends one attempt before the code is compared and
	// returns the new count. It returns ErrTooManyAttempts once the budget is spent
	// and ErrNoActiveChallenge when challengeID is no longer the current challenge.
	ReserveAttempt(ctx context.Context, projectID kernel.ProjectID, email, challengeID string) (int, error)
	// MarkConsumed is a compare-and-set: it succeeds only for the current,
	// not yet consumed challenge.
	MarkConsumed(ctx context.Context, projectID kernel.ProjectID, email, challengeID string) (bool, error)
}

// NotificationService entrega el código al usuario final.
type NotificationService interface {
	SendOTP(ctx context.Context, projectID kernel.ProjectID, email string, code string) error
}
