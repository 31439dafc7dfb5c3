package otpinfra

import (
	"context"
	"strconv"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// consumeScript marca el challenge como consumido solo si sigue siendo el actual y no fue usado.
var consumeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then return 0 end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then return 0 end
redis.call('HSET', KEYS[1], 'consumed', '1')
return 1
`)

// attemptScript reserva un intento sobre el challenge actual; -2 cuando ya no quedan.
var attemptScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then return -1 end
local attempts = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0') or 0
local max = tonumber(redis.call('HGET', KEYS[1], 'max_attempts') or '0') or 0
if max > 0 and attempts >= max then return -2 end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// RedisChallengeRepository guarda un hash por (proyecto, email).
// La key vive ttl+retention para que un challenge vencido siga siendo distinguible de uno inexistente.
type RedisChallengeRepository struct {
	client    redis.UniversalClient
	retention time.Duration
}

func NewRedisChallengeRepository(client redis.UniversalClient, retention time.Duration) *RedisChallengeRepository {
	return &RedisChallengeRepository{client: client, retention: retention}
}

func challengeKey(projectID kernel.ProjectID, email string) string {
	return keyPrefix + projectID.String() + ":" + email
}

func (r *RedisChallengeRepository) Save(ctx context.Context, c *otp.Challenge) error {
	key := challengeKey(c.ProjectID, c.Email)
	ttl := time.Until(c.ExpiresAt) + r.retention

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"id":           c.ID,
			"code":         c.Code,
			"expires_at":   c.ExpiresAt.UnixMilli(),
			"created_at":   c.CreatedAt.UnixMilli(),
			"consumed":     boolToFlag(c.Consumed),
			"attempts":     c.Attempts,
			"max_attempts": c.MaxAttempts,
		})
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return errx.Wrap(err, "failed to save otp challenge", errx.TypeInternal)
	}
	return nil
}

func (r *RedisChallengeRepository) Get(ctx context.Context, projectID kernel.ProjectID, email string) (*otp.Challenge, error) {
	fields, err := r.client.HGetAll(ctx, challengeKey(projectID, email)).Result()
	if err != nil {
		return nil, errx.Wrap(err, "failed to load otp challenge", errx.TypeInternal)
	}
	if len(fields) == 0 || fields["id"] == "" {
		return nil, otp.ErrNoActiveChallenge()
	}

	c := &otp.Challenge{
		ID:        fields["id"],
		ProjectID: projectID,
		Email:     email,
		Code:      fields["code"],
		Consumed:  fields["consumed"] == "1",
	}
	c.Attempts, _ = strconv.Atoi(fields["attempts"])
	c.MaxAttempts, _ = strconv.Atoi(fields["max_attempts"])
	c.ExpiresAt = parseMillis(fields["expires_at"])
	c.CreatedAt = parseMillis(fields["created_at"])
	return c, nil
}

func (r *RedisChallengeRepository) ReserveAttempt(ctx context.Context, projectID kernel.ProjectID, email, challengeID string) (int, error) {
	n, err := attemptScript.Run(ctx, r.client, []string{challengeKey(projectID, email)}, challengeID).Int()
	if err != nil {
		return 0, errx.Wrap(err, "failed to record otp attempt", errx.TypeInternal)
	}
	switch n {
	case -1:
		return 0, otp.ErrNoActiveChallenge()
	case -2:
		return 0, otp.ErrTooManyAttempts()
	}
	return n, nil
}

func (r *RedisChallengeRepository) MarkConsumed(ctx context.Context, projectID kernel.ProjectID, email, challengeID string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{challengeKey(projectID, email)}, challengeID).Int()
	if err != nil {
		return false, errx.Wrap(err, "failed to consume otp challenge", errx.TypeInternal)
	}
	return n == 1, nil
}

func boolToFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
