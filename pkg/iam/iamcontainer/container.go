package iamcontainer

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/auth/authapi"
	"github.com/hypeframe/monarch/pkg/iam/auth/authinfra"
	"github.com/hypeframe/monarch/pkg/iam/auth/authsrv"
	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpinfra"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpsrv"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/iam/project/projectinfra"
	"github.com/hypeframe/monarch/pkg/iam/project/projectsrv"
	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/hypeframe/monarch/pkg/iam/user/userinfra"
	"github.com/hypeframe/monarch/pkg/jobx"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/hypeframe/monarch/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// otpRetention mantiene un challenge vencido visible en Redis para reportar OTP_EXPIRED.
const otpRetention = time.Hour

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	Cfg *config.Config

	// DB nil means in-memory repositories (STORE_DRIVER=memory).
	DB *sqlx.DB
	// Redis nil disables the project cache and keeps OTP challenges in memory.
	Redis redis.UniversalClient

	// Mailer delivers OTP codes (console or SES provider).
	Mailer *notifx.Client
	// Jobs is required when OTP_DELIVERY=queue.
	Jobs jobx.JobEnqueuer

	// Metrics is optional; when set every audit event is also counted.
	Metrics authinfra.AuthEventRecorder

	// IdentityVerifier overrides the Google verifier (tests).
	IdentityVerifier auth.IdentityVerifier
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	ProjectService *projectsrv.ProjectService
	OTPService     *otpsrv.OTPService
	AuthService    *authsrv.AuthService
	TokenService   *auth.JWTService

	// OTPDelivery sends codes inline; the jobx worker uses it for queued delivery.
	OTPDelivery otp.NotificationService

	AuthHandlers   *authapi.AuthHandlers
	AuthMiddleware *auth.TokenMiddleware

	// Background services
	CleanupService *authinfra.CleanupService
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	cfg := deps.Cfg
	c := &Container{}

	// ── Repositories ─────────────────────────────────────────────────────

	var (
		projectRepo project.Repository
		userRepo    user.Repository
		tokenRepo   auth.TokenRepository
		otpRepo     otp.Repository
	)

	if deps.DB != nil {
		projectRepo = projectinfra.NewPostgresProjectRepository(deps.DB)
		userRepo = userinfra.NewPostgresUserRepository(deps.DB)
		tokenRepo = authinfra.NewPostgresTokenRepository(deps.DB)
		logx.Info("  ✅ Using Postgres repositories")
	} else {
		projectRepo = projectinfra.NewMemoryProjectRepository()
		userRepo = userinfra.NewMemoryUserRepository()
		tokenRepo = authinfra.NewMemoryTokenRepository()
		logx.Warn("  ⚠️  Using in-memory repositories (data is lost on restart)")
	}

	if deps.Redis != nil {
		projectRepo = projectinfra.NewCachedProjectRepository(projectRepo, deps.Redis, cfg.Auth.APIKey.CacheTTL)
		otpRepo = otpinfra.NewRedisChallengeRepository(deps.Redis, otpRetention)
		logx.Info("  ✅ Using Redis for project cache and OTP challenges")
	} else {
		otpRepo = otpinfra.NewMemoryChallengeRepository()
		logx.Warn("  ⚠️  Using in-memory OTP challenges (single instance only)")
	}

	// ── Infrastructure services ──────────────────────────────────────────

	passwordSvc := authinfra.NewBcryptPasswordService(cfg.Auth.Password.BcryptCost)

	c.TokenService = auth.NewJWTService(
		cfg.Auth.JWT.SecretKey,
		cfg.Auth.JWT.AccessTokenTTL,
		cfg.Auth.JWT.RefreshTokenTTL,
		cfg.Auth.JWT.Issuer,
		cfg.Auth.JWT.ClockSkew,
	)

	identity := deps.IdentityVerifier
	if identity == nil {
		identity = authinfra.NewGoogleIdentityVerifier(cfg.Auth.Google.ClientID)
		if cfg.Auth.Google.ClientID == "" {
			logx.Warn("  ⚠️  GOOGLE_CLIENT_ID not set, Google login rejects every assertion")
		}
	}

	c.OTPDelivery = otpinfra.NewEmailOTPNotifier(deps.Mailer, cfg.Auth.OTP.TTL)
	notifier := c.OTPDelivery
	if cfg.Auth.OTP.Delivery == config.OTPDeliveryQueue && deps.Jobs != nil {
		notifier = otpinfra.NewQueuedOTPNotifier(deps.Jobs)
		logx.Info("  ✅ OTP codes delivered through the job queue")
	}

	// ── Audit service ────────────────────────────────────────────────────

	var auditService auth.AuditService = authinfra.NewLogxAuditService()
	if deps.Metrics != nil {
		auditService = authinfra.NewMetricsAuditService(auditService, deps.Metrics)
	}

	// ── Domain services ──────────────────────────────────────────────────

	c.ProjectService = projectsrv.NewProjectService(projectRepo, cfg.Auth.APIKey.Prefix)

	c.OTPService = otpsrv.NewOTPService(otpRepo, notifier, cfg.Auth.OTP.TTL, cfg.Auth.OTP.MaxAttempts)

	c.AuthService = authsrv.NewAuthService(
		userRepo,
		tokenRepo,
		c.TokenService,
		passwordSvc,
		identity,
		c.OTPService,
		auditService,
		cfg.Auth.Password.MinLength,
	)

	// ── Handlers & middleware ────────────────────────────────────────────

	c.AuthHandlers = authapi.NewAuthHandlers(c.AuthService)
	c.AuthMiddleware = auth.NewAuthMiddleware(c.ProjectService, c.TokenService)

	// ── Background services ──────────────────────────────────────────────

	c.CleanupService = authinfra.NewCleanupService(tokenRepo, cfg.Auth.CleanupInterval)

	logx.Info("✅ IAM container initialized")
	return c
}

// StartBackgroundServices starts IAM-specific background workers.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	go c.CleanupService.Start(ctx)
	logx.Info("  ✅ IAM cleanup service started")
}
