package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/logx"
)

func main() {
	// 1. Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))

	logx.Info("🚀 Starting Monarch API Server...")

	// 2. Config
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Dependency container
	container, err := NewContainer(ctx, cfg)
	if err != nil {
		logx.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Cleanup()

	if err := container.Bootstrap(ctx); err != nil {
		logx.Fatalf("%v", err)
	}

	// 4. App & background workers
	app := NewApp(container)
	container.StartBackgroundServices(ctx)

	// 5. Serve until a signal arrives
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		logx.Infof("🌐 Listening on %s (env: %s, store: %s)", addr, cfg.Environment, cfg.StoreDriver)
		serverErr <- app.Listen(addr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logx.Errorf("Server error: %v", err)
		}
	case <-ctx.Done():
		logx.Info("🛑 Shutting down server...")
	}

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownGrace); err != nil {
		logx.Errorf("Graceful shutdown failed: %v", err)
	}
	logx.Info("👋 Server stopped")
}
