// Root composition root. Owns infrastructure (DB, Redis, mailer, job queue) and
// composes the bounded-context containers. This is the only place that knows about ALL modules.
package main

import (
	"context"
	"fmt"

	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/dbx"
	"github.com/hypeframe/monarch/pkg/document/documentcontainer"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/iam/iamcontainer"
	"github.com/hypeframe/monarch/pkg/iam/otp/otpinfra"
	"github.com/hypeframe/monarch/pkg/jobx"
	"github.com/hypeframe/monarch/pkg/jobx/jobxredis"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/hypeframe/monarch/pkg/metricx"
	"github.com/hypeframe/monarch/pkg/notifx"
	"github.com/hypeframe/monarch/pkg/notifx/notifxconsole"
	"github.com/hypeframe/monarch/pkg/notifx/notifxses"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const serviceName = "monarch"

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB      *sqlx.DB
	Redis   redis.UniversalClient
	Mailer  *notifx.Client
	Console *notifxconsole.ConsoleProvider
	Jobs    *jobx.Client
	Metrics *metricx.Metrics

	// Bounded-context containers
	IAM       *iamcontainer.Container
	Documents *documentcontainer.Container
}

// containerOption ajusta el grafo antes de componer los módulos (tests).
type containerOption func(*iamcontainer.Deps)

func withIdentityVerifier(v auth.IdentityVerifier) containerOption {
	return func(d *iamcontainer.Deps) { d.IdentityVerifier = v }
}

func NewContainer(ctx context.Context, cfg *config.Config, opts ...containerOption) (*Container, error) {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg, Metrics: metricx.New(serviceName)}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initModules(opts)

	logx.Info("✅ Application container initialized")
	return c, nil
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, mail, jobs
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) error {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	if c.Config.StoreDriver == config.StoreDriverPostgres {
		db, err := dbx.Connect(ctx, c.Config.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		c.DB = db
		logx.Info("  ✅ Database connected")

		if c.Config.Database.AutoMigrate {
			if err := dbx.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			logx.Info("  ✅ Database migrated")
		}
	}

	// 2. Redis
	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logx.Info("  ✅ Redis connected")
	}

	// 3. Mail
	if err := c.initMailer(ctx); err != nil {
		return err
	}

	// 4. Job queue
	if c.Config.Auth.OTP.Delivery == config.OTPDeliveryQueue && c.Redis != nil {
		c.Jobs = jobx.NewClient(jobxredis.NewRedisQueue(c.Redis), jobx.FromConfig(c.Config.Jobx))
		logx.Info("  ✅ Job queue configured")
	}

	logx.Info("✅ Infrastructure initialized")
	return nil
}

func (c *Container) initMailer(ctx context.Context) error {
	switch c.Config.Notifx.Provider {
	case "ses":
		provider, err := notifxses.NewSESProviderFromRegion(ctx, c.Config.Notifx.AWSRegion, c.Config.Notifx.FromAddress)
		if err != nil {
			return fmt.Errorf("configure ses: %w", err)
		}
		c.Mailer = notifx.NewClient(provider)
		logx.Infof("  ✅ SES mailer configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console":
		c.Console = notifxconsole.NewConsoleProvider()
		c.Mailer = notifx.NewClient(c.Console)
		logx.Info("  ✅ Console mailer configured")

	default:
		return notifx.UnknownProviderError(c.Config.Notifx.Provider)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules(opts []containerOption) {
	logx.Info("📦 Initializing modules...")

	iamDeps := iamcontainer.Deps{
		Cfg:     c.Config,
		DB:      c.DB,
		Redis:   c.Redis,
		Mailer:  c.Mailer,
		Metrics: c.Metrics,
	}
	if c.Jobs != nil {
		iamDeps.Jobs = c.Jobs
	}
	for _, opt := range opts {
		opt(&iamDeps)
	}
	c.IAM = iamcontainer.New(iamDeps)

	c.Documents = documentcontainer.New(documentcontainer.Deps{Cfg: c.Config, DB: c.DB})

	if c.Jobs != nil {
		c.Jobs.Register(otpinfra.JobTypeDeliverOTP, otpinfra.DeliverOTPHandler(c.IAM.OTPDelivery))
	}
}

// Bootstrap crea el proyecto configurado por BOOTSTRAP_* si todavía no existe.
func (c *Container) Bootstrap(ctx context.Context) error {
	b := c.Config.Bootstrap
	if !b.Enabled() {
		return nil
	}
	p, err := c.IAM.ProjectService.EnsureProject(ctx, kernel.ProjectID(b.ProjectID), b.ProjectName, b.APIKey)
	if err != nil {
		return fmt.Errorf("bootstrap project: %w", err)
	}
	logx.Infof("  ✅ Bootstrap project ready (%s)", p.ID)
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	c.IAM.StartBackgroundServices(ctx)

	if c.Jobs != nil {
		go func() {
			if err := c.Jobs.Start(ctx); err != nil {
				logx.WithError(err).Error("jobx worker stopped")
			}
		}()
		logx.Info("  ✅ OTP delivery workers started")
	}
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}
