package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/crucial707/asset-audit/internal/audit"
	"github.com/crucial707/asset-audit/internal/inventory"
	"github.com/crucial707/asset-audit/internal/metrics"
	"github.com/crucial707/asset-audit/internal/models"
	"github.com/crucial707/asset-audit/internal/report"
	"github.com/crucial707/asset-audit/internal/telemetry"
)

// Fetcher returns validated inventory records.
type Fetcher interface {
	URL() string
	FetchAssets(ctx context.Context) (*inventory.Response, error)
}

// HistoryStore records finished runs.
type HistoryStore interface {
	Save(ctx context.Context, run models.AuditRun) error
}

// Options controls where and how a run reports.
type Options struct {
	OutputPath  string
	Formats     []report.Format
	Table       bool
	MetricsFile string
}

// Auditor runs the fetch, classify, aggregate and report pipeline. Runs on
// one Auditor never overlap.
type Auditor struct {
	fetcher Fetcher
	store   HistoryStore
	opts    Options
	console io.Writer

	now   func() time.Time
	newID func() string

	runMu    sync.Mutex
	latestMu sync.RWMutex
	latest   *audit.Summary
}

// New returns an Auditor that prints to console. store may be nil.
func New(fetcher Fetcher, store HistoryStore, opts Options, console io.Writer) *Auditor {
	if len(opts.Formats) == 0 {
		opts.Formats = []report.Format{report.FormatText}
	}
	if console == nil {
		console = io.Discard
	}
	return &Auditor{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		console: console,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Latest returns the summary of the last successful run.
func (a *Auditor) Latest() (audit.Summary, bool) {
	a.latestMu.RLock()
	defer a.latestMu.RUnlock()
	if a.latest == nil {
		return audit.Summary{}, false
	}
	return *a.latest, true
}

// Run performs one audit. When the fetch fails nothing is written and the
// *inventory.FetchError is returned. A history store failure is returned
// after the report files exist.
func (a *Auditor) Run(ctx context.Context) (audit.Summary, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "audit.run")
	defer span.End()

	runID := a.newID()
	log := slog.With("run_id", runID, "url", a.fetcher.URL())

	start := time.Now()
	resp, err := a.fetcher.FetchAssets(ctx)
	metrics.RecordFetch(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		metrics.RecordFailure(FailureLabel(err))
		a.writeMetricsFile(log)
		printFailure(a.console, err)
		log.Error("inventory fetch failed", "kind", FailureLabel(err), "error", err)
		return audit.Summary{}, err
	}
	log.Info("inventory fetched", "status", resp.StatusCode, "records", len(resp.Records), "duration_ms", time.Since(start).Milliseconds())

	printDiagnostics(a.console, resp)

	s := audit.Summarize(models.NewAssets(resp.Records))
	s.RunID = runID
	s.GeneratedAt = a.now().UTC()
	s.SourceURL = a.fetcher.URL()
	s.StatusCode = resp.StatusCode
	span.SetAttributes(
		attribute.Int("audit.total_assets", s.TotalAssets),
		attribute.Int("audit.high", s.RiskLevels[models.RiskHigh]),
		attribute.Int("audit.exposed", len(s.Exposed)),
	)

	fmt.Fprintln(a.console)
	if a.opts.Table {
		err = report.WriteTables(a.console, s)
	} else {
		err = report.WriteText(a.console, s)
	}
	if err != nil {
		return s, fmt.Errorf("print report: %w", err)
	}

	paths, err := report.WriteFiles(a.opts.OutputPath, a.opts.Formats, s)
	if err != nil {
		span.RecordError(err)
		return s, fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintln(a.console)
	for _, p := range paths {
		fmt.Fprintf(a.console, "Report written to %s\n", p)
	}
	log.Info("audit complete",
		"total", s.TotalAssets,
		"high", s.RiskLevels[models.RiskHigh],
		"medium", s.RiskLevels[models.RiskMedium],
		"low", s.RiskLevels[models.RiskLow],
		"exposed", len(s.Exposed),
		"high_priority", len(s.HighPriority))

	metrics.RecordSummary(s)
	a.writeMetricsFile(log)

	a.latestMu.Lock()
	a.latest = &s
	a.latestMu.Unlock()

	if a.store != nil {
		if err := a.store.Save(ctx, s.Run()); err != nil {
			log.Error("saving audit run failed", "error", err)
			return s, fmt.Errorf("save audit run: %w", err)
		}
	}
	return s, nil
}

func (a *Auditor) writeMetricsFile(log *slog.Logger) {
	if a.opts.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.opts.MetricsFile); err != nil {
		log.Warn("writing metrics file failed", "path", a.opts.MetricsFile, "error", err)
	}
}

// FailureLabel names a fetch failure kind for metrics and logs.
func FailureLabel(err error) string {
	switch {
	case errors.Is(err, inventory.ErrConnection):
		return "connection"
	case errors.Is(err, inventory.ErrTimeout):
		return "timeout"
	case errors.Is(err, inventory.ErrStatus):
		return "status"
	case errors.Is(err, inventory.ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, inventory.ErrUnexpectedShape):
		return "unexpected_shape"
	default:
		return "request"
	}
}

func printFailure(w io.Writer, err error) {
	var fe *inventory.FetchError
	if !errors.As(err, &fe) {
		fmt.Fprintf(w, "Request failed: %v\n", err)
		return
	}
	switch {
	case errors.Is(err, inventory.ErrStatus):
		fmt.Fprintf(w, "Status code: %d\n", fe.StatusCode)
		fmt.Fprintf(w, "Request failed: %d\n", fe.StatusCode)
		fmt.Fprintf(w, "Response preview: %s\n", fe.Preview)
	case errors.Is(err, inventory.ErrMalformedJSON):
		fmt.Fprintf(w, "Status code: %d\n", fe.StatusCode)
		fmt.Fprintf(w, "Failed to parse JSON response: %v\n", fe.Err)
		fmt.Fprintf(w, "Response preview: %s\n", fe.Preview)
	case errors.Is(err, inventory.ErrUnexpectedShape):
		fmt.Fprintf(w, "Status code: %d\n", fe.StatusCode)
		fmt.Fprintf(w, "Unexpected JSON structure. Expected a list of assets. (%v)\n", fe.Err)
	case errors.Is(err, inventory.ErrTimeout):
		fmt.Fprintf(w, "Request timed out: %v\n", fe.Err)
	case errors.Is(err, inventory.ErrConnection):
		fmt.Fprintf(w, "Connection error: %v\n", fe.Err)
	default:
		fmt.Fprintf(w, "Request failed: %v\n", fe.Err)
	}
}

func printDiagnostics(w io.Writer, resp *inventory.Response) {
	fmt.Fprintf(w, "Status code: %d\n", resp.StatusCode)
	fmt.Fprintln(w, "Type of data: array of objects")
	fmt.Fprintf(w, "Number of assets: %d\n", len(resp.Records))
	if len(resp.Records) == 0 {
		return
	}

	first := resp.Records[0]
	fields := make([]string, 0, len(first))
	for k := range first {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	fmt.Fprintf(w, "Fields available: %v\n", fields)

	preview, err := json.Marshal(first)
	if err != nil {
		preview = []byte(fmt.Sprint(first))
	}
	fmt.Fprintf(w, "First asset preview: %s\n", preview)
}
