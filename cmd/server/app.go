package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/hypeframe/monarch/pkg/asyncx"
	"github.com/hypeframe/monarch/pkg/httpx"
	"github.com/hypeframe/monarch/pkg/logx"
)

const healthCheckTimeout = 2 * time.Second

// NewApp arma la app Fiber con middleware global y todas las rutas.
func NewApp(container *Container) *fiber.App {
	cfg := container.Config

	app := fiber.New(fiber.Config{
		AppName:               "Monarch API",
		DisableStartupMessage: true,
		ErrorHandler:          httpx.ErrorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           cfg.Server.IdleTimeout,
	})

	// ── Global middleware ────────────────────────────────────────────────

	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	if cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(container.Metrics.Middleware())
	app.Use(httpx.Deadline(cfg.Server.RequestTimeout))

	// ── Health & metrics ─────────────────────────────────────────────────

	app.Get("/health", healthCheckHandler(container))
	app.Get("/metrics", container.Metrics.Handler())

	// ── Routes ───────────────────────────────────────────────────────────

	mw := container.IAM.AuthMiddleware

	// /auth/*, /api/project-auth/*
	container.IAM.AuthHandlers.RegisterRoutes(app, mw)
	container.IAM.AuthHandlers.RegisterLegacyRoutes(app, mw)
	logx.Info("✓ Auth routes registered")

	// /db/*, /api/project-db/*
	container.Documents.DocumentHandlers.RegisterRoutes(app, mw)
	container.Documents.DocumentHandlers.RegisterLegacyRoutes(app, mw)
	logx.Info("✓ Document routes registered")

	app.Use(httpx.NotFound)

	return app
}

// healthCheckHandler pinguea Postgres y Redis en paralelo; cualquiera caído da 503.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		type check struct {
			name string
			ping func(context.Context) error
		}

		var checks []check
		if container.DB != nil {
			checks = append(checks, check{"db", container.DB.PingContext})
		}
		if container.Redis != nil {
			checks = append(checks, check{"redis", func(ctx context.Context) error {
				return container.Redis.Ping(ctx).Err()
			}})
		}

		fns := make([]func(context.Context) (string, error), len(checks))
		for i, ch := range checks {
			fns[i] = func(ctx context.Context) (string, error) {
				return ch.name, ch.ping(ctx)
			}
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		health := fiber.Map{
			"status":  "healthy",
			"service": serviceName,
			"version": container.Config.AppVersion,
			"store":   container.Config.StoreDriver,
		}
		for i, res := range asyncx.AllSettled(ctx, fns...) {
			name := checks[i].name
			if res.OK() {
				health[name] = "healthy"
				continue
			}
			// la causa queda en el log, no en la respuesta pública
			logx.WithContext(ctx).WithError(res.Err).WithField("check", name).Warn("Health check failed")
			health[name] = "unhealthy"
			health["status"] = "degraded"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}
