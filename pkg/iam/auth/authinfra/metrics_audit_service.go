package authinfra

import (
	"context"

	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// AuthEventRecorder counts auth outcomes (metricx.Metrics).
type AuthEventRecorder interface {
	AuthEvent(event string, success bool)
}

// MetricsAuditService decora otro AuditService contando cada evento en Prometheus.
type MetricsAuditService struct {
	next    auth.AuditService
	metrics AuthEventRecorder
}

func NewMetricsAuditService(next auth.AuditService, metrics AuthEventRecorder) *MetricsAuditService {
	return &MetricsAuditService{next: next, metrics: metrics}
}

func (s *MetricsAuditService) LogLoginAttempt(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, success bool, ip string, userAgent string) {
	s.metrics.AuthEvent("login_"+method, success)
	s.next.LogLoginAttempt(ctx, userID, projectID, method, success, ip, userAgent)
}

func (s *MetricsAuditService) LogLogout(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string) {
	s.metrics.AuthEvent("logout", true)
	s.next.LogLogout(ctx, userID, projectID, ip)
}

func (s *MetricsAuditService) LogTokenRefresh(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string) {
	s.metrics.AuthEvent("token_refresh", true)
	s.next.LogTokenRefresh(ctx, userID, projectID, ip)
}

func (s *MetricsAuditService) LogOTPVerification(ctx context.Context, projectID kernel.ProjectID, contact string, success bool, ip string) {
	s.metrics.AuthEvent("otp_verification", success)
	s.next.LogOTPVerification(ctx, projectID, contact, success, ip)
}

func (s *MetricsAuditService) LogAccountCreated(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string) {
	s.metrics.AuthEvent("account_created", true)
	s.next.LogAccountCreated(ctx, userID, projectID, method, ip)
}

func (s *MetricsAuditService) LogAccountLinked(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string) {
	s.metrics.AuthEvent("account_linked", true)
	s.next.LogAccountLinked(ctx, userID, projectID, method, ip)
}
