package otpinfra

import (
	"context"
	"sync"

	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// MemoryChallengeRepository es la versión en memoria, usada sin Redis y en tests.
type MemoryChallengeRepository struct {
	mu         sync.Mutex
	challenges map[string]otp.Challenge
}

func NewMemoryChallengeRepository() *MemoryChallengeRepository {
	return &MemoryChallengeRepository{challenges: make(map[string]otp.Challenge)}
}

func (r *MemoryChallengeRepository) Save(_ context.Context, c *otp.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[challengeKey(c.ProjectID, c.Email)] = *c
	return nil
}

func (r *MemoryChallengeRepository) Get(_ context.Context, projectID kernel.ProjectID, email string) (*otp.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeKey(projectID, email)]
	if !ok {
		return nil, otp.ErrNoActiveChallenge()
	}
	return &c, nil
}

func (r *MemoryChallengeRepository) ReserveAttempt(_ context.Context, projectID kernel.ProjectID, email, challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := challengeKey(projectID, email)
	c, ok := r.challenges[key]
	if !ok || c.ID != challengeID {
		return 0, otp.ErrNoActiveChallenge()
	}
	if c.IsLocked() {
		return c.Attempts, otp.ErrTooManyAttempts()
	}
	c.Attempts++
	r.challenges[key] = c
	return c.Attempts, nil
}

func (r *MemoryChallengeRepository) MarkConsumed(_ context.Context, projectID kernel.ProjectID, email, challengeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := challengeKey(projectID, email)
	c, ok := r.challenges[key]
	if !ok || c.ID != challengeID || c.Consumed {
		return false, nil
	}
	c.Consumed = true
	r.challenges[key] = c
	return true, nil
}
