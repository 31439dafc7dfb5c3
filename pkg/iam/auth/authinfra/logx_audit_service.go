package authinfra

import (
	"context"

	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, success bool, ip string, userAgent string) {
	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"user_id":     userID,
		"project_id":  projectID,
		"method":      method,
		"success":     success,
		"ip":          ip,
		"user_agent":  userAgent,
	})
	if success {
		entry.Info("Audit: login attempt")
		return
	}
	entry.Warn("Audit: login attempt")
}

func (s *LogxAuditService) LogLogout(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "logout",
		"user_id":     userID,
		"project_id":  projectID,
		"ip":          ip,
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"project_id":  projectID,
		"ip":          ip,
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogOTPVerification(ctx context.Context, projectID kernel.ProjectID, contact string, success bool, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "otp_verification",
		"project_id":  projectID,
		"contact":     contact,
		"success":     success,
		"ip":          ip,
	}).Info("Audit: OTP verification")
}

func (s *LogxAuditService) LogAccountCreated(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"project_id":  projectID,
		"method":      method,
		"ip":          ip,
	}).Info("Audit: account created")
}

func (s *LogxAuditService) LogAccountLinked(ctx context.Context, userID kernel.UserID, projectID kernel.ProjectID, method string, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "account_linked",
		"user_id":     userID,
		"project_id":  projectID,
		"method":      method,
		"ip":          ip,
	}).Info("Audit: account linked")
}
