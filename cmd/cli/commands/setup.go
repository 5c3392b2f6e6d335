package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/crucial707/asset-audit/internal/auditor"
	"github.com/crucial707/asset-audit/internal/config"
	"github.com/crucial707/asset-audit/internal/db"
	"github.com/crucial707/asset-audit/internal/inventory"
	"github.com/crucial707/asset-audit/internal/logging"
	"github.com/crucial707/asset-audit/internal/report"
	"github.com/crucial707/asset-audit/internal/repo"
	"github.com/crucial707/asset-audit/internal/telemetry"
)

// session holds what one command invocation opened.
type session struct {
	auditor *auditor.Auditor
	runs    *repo.AuditRunRepo
	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openHistory connects and migrates the history database.
func openHistory(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if err := db.Migrate(databaseURL); err != nil {
		return nil, err
	}
	return db.Connect(ctx, databaseURL)
}

// newSession sets up logging, optional tracing and history, and the auditor
// that prints to out.
func newSession(ctx context.Context, cfg config.Config, out io.Writer) (*session, error) {
	logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	s := &session{}

	formats, err := report.ParseFormats(cfg.Formats)
	if err != nil {
		return nil, err
	}

	if cfg.Trace {
		shutdown, err := telemetry.InitTracer(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		s.closers = append(s.closers, func() { shutdown(context.Background()) })
	}

	var store auditor.HistoryStore
	if cfg.DatabaseURL != "" {
		database, err := openHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { database.Close() })
		s.runs = repo.NewAuditRunRepo(database)
		store = s.runs
		slog.Debug("audit history enabled")
	}

	client := inventory.NewClient(cfg.APIURL, cfg.APIKey, cfg.Timeout)
	s.auditor = auditor.New(client, store, auditor.Options{
		OutputPath:  cfg.OutputPath,
		Formats:     formats,
		Table:       cfg.Table,
		MetricsFile: cfg.MetricsFile,
	}, out)
	return s, nil
}
