package auditor

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/asset-audit/internal/inventory"
	"github.com/crucial707/asset-audit/internal/models"
	"github.com/crucial707/asset-audit/internal/report"
)

const exampleBody = `[
  {"hostname":"h1","environment":"prod","internet_exposed":true,"criticality":"high","owner_team":"A"},
  {"hostname":"h2","environment":"dev","internet_exposed":false,"criticality":"low","owner_team":"B"}
]`

type fakeStore struct {
	runs []models.AuditRun
	err  error
}

func (f *fakeStore) Save(_ context.Context, run models.AuditRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

func inventoryServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuditor(t *testing.T, srvURL string, store HistoryStore, opts Options) (*Auditor, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	client := inventory.NewClient(srvURL, "k", time.Second)
	a := New(client, store, opts, &console)
	a.newID = func() string { return "run-fixed" }
	a.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return a, &console
}

func TestRun_EndToEnd(t *testing.T) {
	srv := inventoryServer(t, http.StatusOK, exampleBody)
	out := filepath.Join(t.TempDir(), "cmdb_summary.txt")
	store := &fakeStore{}
	a, console := newAuditor(t, srv.URL, store, Options{
		OutputPath: out,
		Formats:    []report.Format{report.FormatText, report.FormatJSON},
	})

	s, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-fixed", s.RunID)
	assert.Equal(t, srv.URL, s.SourceURL)
	assert.Equal(t, 200, s.StatusCode)
	assert.Equal(t, 1, s.RiskLevels[models.RiskHigh])
	assert.Equal(t, 0, s.RiskLevels[models.RiskMedium])
	assert.Equal(t, 1, s.RiskLevels[models.RiskLow])

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Total Assets: 2")
	assert.Contains(t, string(text), "A | 1")
	_, err = os.Stat(report.PathFor(out, report.FormatJSON))
	assert.NoError(t, err)

	c := console.String()
	assert.Contains(t, c, "Status code: 200")
	assert.Contains(t, c, "Number of assets: 2")
	assert.Contains(t, c, "Fields available: [criticality environment hostname internet_exposed owner_team]")
	assert.Contains(t, c, "First asset preview:")
	assert.Contains(t, c, string(text), "console mirrors the report file")
	assert.Contains(t, c, "Report written to "+out)

	require.Len(t, store.runs, 1)
	assert.Equal(t, "run-fixed", store.runs[0].ID)
	assert.Equal(t, 2, store.runs[0].TotalAssets)

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, "run-fixed", latest.RunID)
}

func TestRun_NonSuccessStatusWritesNoReport(t *testing.T) {
	srv := inventoryServer(t, http.StatusServiceUnavailable, "maintenance window")
	out := filepath.Join(t.TempDir(), "cmdb_summary.txt")
	store := &fakeStore{}
	a, console := newAuditor(t, srv.URL, store, Options{OutputPath: out})

	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrStatus))
	assert.Equal(t, "status", FailureLabel(err))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "report must not exist")
	assert.Contains(t, console.String(), "Request failed: 503")
	assert.Contains(t, console.String(), "maintenance window")
	assert.Empty(t, store.runs)

	_, ok := a.Latest()
	assert.False(t, ok)
}

func TestRun_MalformedJSONWritesNoReport(t *testing.T) {
	srv := inventoryServer(t, http.StatusOK, `[{"hostname": "h1",`)
	out := filepath.Join(t.TempDir(), "cmdb_summary.txt")
	a, console := newAuditor(t, srv.URL, nil, Options{OutputPath: out})

	_, err := a.Run(context.Background())
	require.ErrorIs(t, err, inventory.ErrMalformedJSON)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
	assert.Contains(t, console.String(), "Failed to parse JSON response")
}

func TestRun_UnexpectedShape(t *testing.T) {
	srv := inventoryServer(t, http.StatusOK, `{"assets":[]}`)
	a, console := newAuditor(t, srv.URL, nil, Options{OutputPath: filepath.Join(t.TempDir(), "r.txt")})

	_, err := a.Run(context.Background())
	require.ErrorIs(t, err, inventory.ErrUnexpectedShape)
	assert.Contains(t, console.String(), "Unexpected JSON structure")
}

func TestRun_StoreFailureKeepsReport(t *testing.T) {
	srv := inventoryServer(t, http.StatusOK, exampleBody)
	out := filepath.Join(t.TempDir(), "cmdb_summary.txt")
	a, _ := newAuditor(t, srv.URL, &fakeStore{err: errors.New("db down")}, Options{OutputPath: out})

	s, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save audit run")
	assert.Equal(t, 2, s.TotalAssets)

	_, statErr := os.Stat(out)
	assert.NoError(t, statErr)
}

func TestRun_TableConsoleAndMetricsFile(t *testing.T) {
	srv := inventoryServer(t, http.StatusOK, exampleBody)
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "audit.prom")
	a, console := newAuditor(t, srv.URL, nil, Options{
		OutputPath:  filepath.Join(dir, "cmdb_summary.txt"),
		Table:       true,
		MetricsFile: metricsFile,
	})

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, console.String(), "h1")
	b, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "asset_audit_assets{risk=\"HIGH\"} 1"), string(b))
}

func TestFailureLabel(t *testing.T) {
	cases := map[error]string{
		&inventory.FetchError{Kind: inventory.ErrConnection}:      "connection",
		&inventory.FetchError{Kind: inventory.ErrTimeout}:         "timeout",
		&inventory.FetchError{Kind: inventory.ErrRequest}:         "request",
		&inventory.FetchError{Kind: inventory.ErrStatus}:          "status",
		&inventory.FetchError{Kind: inventory.ErrMalformedJSON}:   "malformed_json",
		&inventory.FetchError{Kind: inventory.ErrUnexpectedShape}: "unexpected_shape",
		errors.New("boom"): "request",
	}
	for err, want := range cases {
		assert.Equal(t, want, FailureLabel(err), err.Error())
	}
}
