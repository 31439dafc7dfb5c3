package authinfra

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/logx"
)

// CleanupService purga periódicamente refresh tokens vencidos.
type CleanupService struct {
	tokens   auth.TokenRepository
	interval time.Duration
}

func NewCleanupService(tokens auth.TokenRepository, interval time.Duration) *CleanupService {
	return &CleanupService{tokens: tokens, interval: interval}
}

// Start corre hasta que ctx se cancele. interval <= 0 lo desactiva.
func (s *CleanupService) Start(ctx context.Context) {
	if s.interval <= 0 {
		logx.Info("Refresh token cleanup disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce borra los tokens vencidos antes de ahora.
func (s *CleanupService) RunOnce(ctx context.Context) int64 {
	removed, err := s.tokens.CleanExpiredTokens(ctx, time.Now().UTC())
	if err != nil {
		logx.WithError(err).Warn("Failed to clean expired refresh tokens")
		return 0
	}
	if removed > 0 {
		logx.WithField("removed", removed).Info("Expired refresh tokens cleaned")
	}
	return removed
}
