package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Parse validates a standard five-field cron spec or a descriptor such as @hourly.
func Parse(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}

// Run executes job at every tick of expr until ctx is cancelled. Ticks that
// arrive while a previous run is still going are skipped. A failing job is
// logged and the schedule continues.
func Run(ctx context.Context, expr string, job Job) error {
	if _, err := Parse(expr); err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(expr, func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("scheduler: audit run starting", "cron", expr)
		if err := job(ctx); err != nil {
			slog.Error("scheduler: audit run failed", "cron", expr, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}

	c.Start()
	slog.Info("scheduler: started", "cron", expr)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	slog.Info("scheduler: stopped")
	return nil
}
