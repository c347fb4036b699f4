package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/availability-scheduling/internal/app"
	"github.com/hackgods/availability-scheduling/internal/availability"
	"github.com/hackgods/availability-scheduling/internal/config"
	"github.com/hackgods/availability-scheduling/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.CacheEnabled {
		logger.Fatal("cache-warmer requires CACHE_ENABLED=true")
	}

	logger.Info("cache-warmer starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Int("warm_days", cfg.WarmDays),
		zap.Int("default_days", cfg.DefaultDays),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Connect(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer deps.Close(logger)

	// Run once at startup
	runOnce(rootCtx, deps.Service, cfg, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping cache-warmer")
			return
		case <-ticker.C:
			runOnce(rootCtx, deps.Service, cfg, logger)
		}
	}
}

// runOnce warms the default window for every start day clients are likely
// to ask for: each of the next WarmDays days.
func runOnce(ctx context.Context, svc *availability.Service, cfg config.Config, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	today := availability.DayOf(start, cfg.Location())

	warmed := 0
	for i := 0; i < cfg.WarmDays; i++ {
		day := today.AddDays(i)
		if err := svc.Warm(runCtx, day, cfg.DefaultDays); err != nil {
			logger.Error("warm run error", zap.String("start", day.String()), zap.Error(err))
			return
		}
		warmed++
	}

	logger.Info("warm run complete", zap.Int("windows", warmed), zap.Duration("took", time.Since(start)))
}
