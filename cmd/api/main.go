package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crucial707/asset-audit/internal/auditor"
	"github.com/crucial707/asset-audit/internal/config"
	"github.com/crucial707/asset-audit/internal/db"
	"github.com/crucial707/asset-audit/internal/handlers"
	"github.com/crucial707/asset-audit/internal/inventory"
	"github.com/crucial707/asset-audit/internal/logging"
	"github.com/crucial707/asset-audit/internal/metrics"
	"github.com/crucial707/asset-audit/internal/middleware"
	"github.com/crucial707/asset-audit/internal/report"
	"github.com/crucial707/asset-audit/internal/repo"
	"github.com/crucial707/asset-audit/internal/scheduler"
	"github.com/crucial707/asset-audit/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace {
		shutdown, err := telemetry.InitTracer(os.Stderr)
		if err != nil {
			slog.Error("tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	// History database is optional
	var database *sql.DB
	var runs *repo.AuditRunRepo
	if cfg.DatabaseURL != "" {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		var err error
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		runs = repo.NewAuditRunRepo(database)
		slog.Info("audit history enabled")
	}

	formats, err := report.ParseFormats(cfg.Formats)
	if err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(1)
	}

	client := inventory.NewClient(cfg.APIURL, cfg.APIKey, cfg.Timeout)
	opts := auditor.Options{
		OutputPath:  cfg.OutputPath,
		Formats:     formats,
		MetricsFile: cfg.MetricsFile,
	}
	var a *auditor.Auditor
	if runs != nil {
		a = auditor.New(client, runs, opts, nil)
	} else {
		a = auditor.New(client, nil, opts, nil)
	}

	// First audit before serving so /v1/summary has data; a failure is logged only.
	if _, err := a.Run(ctx); err != nil {
		slog.Warn("initial audit failed", "error", err)
	}
	if cfg.Cron != "" {
		go func() {
			if err := scheduler.Run(ctx, cfg.Cron, func(ctx context.Context) error {
				_, err := a.Run(ctx)
				return err
			}); err != nil {
				slog.Error("scheduler", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, &handlers.AuditHandler{Runner: a, Runs: runStore(runs)}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Timeout + 30*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "port", cfg.Port, "inventory", cfg.APIURL, "cron", cfg.Cron)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runStore keeps a nil repo from becoming a non-nil interface.
func runStore(r *repo.AuditRunRepo) handlers.RunStore {
	if r == nil {
		return nil
	}
	return r
}

// newRouter wires probes, metrics and the /v1 audit API. database may be nil.
func newRouter(database *sql.DB, cfg config.Config, audits *handlers.AuditHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.HSTS))
	r.Use(middleware.CORS(cfg.Origins()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := database.PingContext(ctx); err != nil {
				handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{Registry: metrics.Registry}))

	r.Route("/v1", func(r chi.Router) {
		if lim := middleware.PerMinute(cfg.RateLimitPerMinute); lim != nil {
			lim.TrustProxy = cfg.TrustProxy
			r.Use(lim.Middleware)
		}
		if cfg.JWTSecret != "" {
			r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))
		}
		r.Get("/summary", audits.GetSummary)
		r.Get("/runs", audits.ListRuns)
		r.Post("/runs", audits.StartRun)
		r.Get("/runs/latest", audits.LatestRun)
	})

	return otelhttp.NewHandler(r, "asset-audit-api")
}
