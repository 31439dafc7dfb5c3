package otpsrv

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
)

type OTPService struct {
	repo                otp.Repository
	notificationService otp.NotificationService
	ttl                 time.Duration
	maxAttempts         int
	now                 func() time.Time
}

func NewOTPService(repo otp.Repository, notificationService otp.NotificationService, ttl time.Duration, maxAttempts int) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPService{
		repo:                repo,
		notificationService: notificationService,
		ttl:                 ttl,
		maxAttempts:         maxAttempts,
		now:                 time.Now,
	}
}

// GenerateOTP reemplaza el challenge anterior y entrega el código nuevo.
// Un fallo de entrega se registra pero no se propaga: la respuesta al cliente
// no debe revelar si el email existe o si el envío funcionó.
func (s *OTPService) GenerateOTP(ctx context.Context, projectID kernel.ProjectID, email string) (*otp.Challenge, error) {
	code, err := otp.GenerateCode()
	if err != nil {
		return nil, errx.Wrap(err, "failed to generate OTP code", errx.TypeInternal)
	}

	challenge := otp.NewChallenge(projectID, email, code, s.now(), s.ttl, s.maxAttempts)
	if err := s.repo.Save(ctx, challenge); err != nil {
		return nil, errx.Storage(err)
	}

	if err := s.notificationService.SendOTP(ctx, projectID, email, code); err != nil {
		logx.WithContext(ctx).
			WithError(err).
			WithField("email", email).
			Error("Failed to deliver OTP code")
	}

	return challenge, nil
}

// VerifyOTP valida el código y consume el challenge.
// Solo un verificador concurrente gana el consumo; el resto recibe NoActiveChallenge.
func (s *OTPService) VerifyOTP(ctx context.Context, projectID kernel.ProjectID, email string, code string) (*otp.Challenge, error) {
	challenge, err := s.repo.Get(ctx, projectID, email)
	if err != nil {
		return nil, errx.Storage(err)
	}

	if challenge.Consumed {
		return nil, otp.ErrNoActiveChallenge()
	}
	if challenge.IsExpired(s.now()) {
		return nil, otp.ErrExpiredChallenge()
	}
	if challenge.IsLocked() {
		return nil, otp.ErrTooManyAttempts()
	}

	// el intento se reserva antes de comparar: verificadores concurrentes no
	// pueden comparar más códigos que MaxAttempts
	attempts, err := s.repo.ReserveAttempt(ctx, projectID, email, challenge.ID)
	if err != nil {
		return nil, errx.Storage(err)
	}
	challenge.Attempts = attempts

	if !challenge.Matches(code) {
		return nil, otp.ErrCodeMismatch().WithDetail("attempts_remaining", challenge.AttemptsRemaining())
	}

	consumed, err := s.repo.MarkConsumed(ctx, projectID, email, challenge.ID)
	if err != nil {
		return nil, errx.Storage(err)
	}
	if !consumed {
		return nil, otp.ErrNoActiveChallenge()
	}

	challenge.Consumed = true
	return challenge, nil
}
