package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/dashboard"
	"chimbori.dev/squeeze/db"
	"chimbori.dev/squeeze/images"
	"github.com/lmittmann/tint"
)

const maintenanceInterval = 2 * time.Hour

// runMaintenance performs one cleanup right away, then one per interval until ctx is done.
func runMaintenance(ctx context.Context) {
	performMaintenance(ctx)
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performMaintenance(ctx)
		}
	}
}

func performMaintenance(ctx context.Context) {
	if n := dashboard.CleanupExpiredSessions(); n > 0 {
		slog.Info(fmt.Sprintf("%d expired sessions deleted", n))
	}

	if db.Enabled() {
		queries := db.New(db.Pool)

		deletedCompressions, err := queries.DeleteOldCompressions(ctx, db.Interval(conf.Config.History.Retention))
		if err != nil {
			slog.Error("failed to delete old compressions", tint.Err(err))
		} else {
			slog.Info(fmt.Sprintf("%d compressions deleted", deletedCompressions))
		}

		deletedLogs, err := queries.DeleteOldLogs(ctx, db.Interval(conf.Config.Logs.Retention))
		if err != nil {
			slog.Error("failed to delete old logs", tint.Err(err))
		} else {
			slog.Info(fmt.Sprintf("%d logs deleted", deletedLogs))
		}
	}

	if images.Cache != nil {
		if err := images.Cache.Prune(); err != nil {
			slog.Error("failed to prune compressed image cache", tint.Err(err))
		}
	}
	slog.Info("Maintenance completed successfully")
}
