package archive

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"
)

// StartArchiveJob runs archival cycles on a cron schedule until ctx is done.
// Cycles never overlap: if one is still running when the next fires, the new
// one is skipped, which keeps the single-writer assumption on the watermark
// store and the document.
//
// Env knobs:
//
//	ARCHIVE_CRON          cron spec or @every duration (default "@every 5m")
//	ARCHIVE_RUN_AT_START  "0" disables the immediate run at boot
func StartArchiveJob(ctx context.Context, dbc *sql.DB) {
	spec := os.Getenv("ARCHIVE_CRON")
	if spec == "" {
		spec = "@every 5m"
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		status := Run(ctx, dbc)
		slog.Info("archive cycle finished", slog.String("status", status))
	})
	if err != nil {
		slog.Error("archive job not started: bad ARCHIVE_CRON", slog.String("spec", spec), slog.Any("err", err))
		return
	}

	slog.Info("archive job starting", slog.String("schedule", spec))
	if os.Getenv("ARCHIVE_RUN_AT_START") != "0" {
		status := Run(ctx, dbc)
		slog.Info("archive cycle finished", slog.String("status", status))
	}
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	slog.Info("archive job stopped")
}
