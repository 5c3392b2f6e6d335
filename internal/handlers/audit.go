package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/asset-audit/internal/audit"
	"github.com/crucial707/asset-audit/internal/auditor"
	"github.com/crucial707/asset-audit/internal/inventory"
	"github.com/crucial707/asset-audit/internal/models"
	"github.com/crucial707/asset-audit/internal/repo"
)

// Runner runs audits and remembers the last successful summary.
type Runner interface {
	Run(ctx context.Context) (audit.Summary, error)
	Latest() (audit.Summary, bool)
}

// RunStore reads audit run history.
type RunStore interface {
	List(ctx context.Context, limit, offset int) ([]models.AuditRun, error)
	Latest(ctx context.Context) (models.AuditRun, error)
}

type AuditHandler struct {
	Runner Runner
	// Runs is nil when no history database is configured.
	Runs RunStore
}

//
// ==========================
// Latest Summary
// ==========================
//

func (h *AuditHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Runner.Latest()
	if !ok {
		JSONError(w, "no audit has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

//
// ==========================
// Trigger Run
// ==========================
//

func (h *AuditHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	s, err := h.Runner.Run(r.Context())
	if err != nil {
		var fe *inventory.FetchError
		if errors.As(err, &fe) {
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: fe.Error(), Kind: auditor.FailureLabel(err)})
			return
		}
		slog.Error("audit run failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, s.Run())
}

//
// ==========================
// Run History
// ==========================
//

func (h *AuditHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		JSONError(w, "run history is not configured", http.StatusServiceUnavailable)
		return
	}

	// Default pagination
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 500 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	runs, err := h.Runs.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list audit runs", "error", err)
		JSONError(w, "failed to fetch audit runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *AuditHandler) LatestRun(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		JSONError(w, "run history is not configured", http.StatusServiceUnavailable)
		return
	}

	run, err := h.Runs.Latest(r.Context())
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "no audit runs recorded", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("latest audit run", "error", err)
		JSONError(w, "failed to fetch audit run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
