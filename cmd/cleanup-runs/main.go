package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/geoscribe/report-backend/internal/builder"
	"go.uber.org/zap"
)

func main() {
	coordinator, cfg, logger, err := builder.BuildCleanup()
	if err != nil {
		log.Fatal("Failed to build cleanup command:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("Sweeping stuck runs",
		zap.Duration("max_age", cfg.AssistantCfg.RunMaxAge))

	report, err := coordinator.CleanupStuckRuns(ctx, cfg.AssistantCfg.RunMaxAge)
	if err != nil {
		logger.Error("Cleanup sweep failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Cleanup sweep finished",
		zap.Int("runs_checked", report.Checked),
		zap.Int("stuck_runs_found", report.Stuck),
		zap.Int("runs_cancelled", report.Cancelled),
		zap.Strings("errors", report.Errors),
	)

	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
