package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/shortlink-go/internal/container"
	"github.com/serroba/shortlink-go/internal/messaging"
	"go.uber.org/zap"
)

// The worker binary consumes usage events and keeps the per-link
// counters in Redis. Configured through the environment since it has
// no HTTP surface of its own.
func main() {
	opts := &container.Options{
		RedisAddr: envOr("REDIS_ADDR", "localhost:6379"),
		LogFormat: envOr("LOG_FORMAT", "console"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumers", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
