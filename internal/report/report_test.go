package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/crucial707/asset-audit/internal/audit"
	"github.com/crucial707/asset-audit/internal/models"
)

func sampleSummary() audit.Summary {
	s := audit.Summarize(models.NewAssets([]map[string]any{
		{"asset_id": "A-1", "hostname": "h1", "environment": "prod", "internet_exposed": true, "criticality": "high", "owner_team": "A"},
		{"asset_id": "A-2", "hostname": "h2", "environment": "dev", "internet_exposed": false, "criticality": "low", "owner_team": "B"},
	}))
	s.RunID = "3f1c2a9e-0000-4000-8000-000000000001"
	s.GeneratedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SourceURL = "https://cmdb.example/assets.json"
	s.StatusCode = 200
	return s
}

func TestWriteText_SectionsInOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSummary()))
	out := buf.String()

	markers := []string{
		Title,
		"API URL: https://cmdb.example/assets.json",
		"Status Code: 200",
		"Total Assets: 2",
		"Assets by Environment",
		"prod: 1\ndev: 1",
		"Assets by Risk Level",
		"HIGH: 1\nMEDIUM: 0\nLOW: 1",
		"Internet-Exposed Assets",
		"A-1 | h1 | prod | A | high | HIGH",
		"High-Priority Assets",
		"Top 3 Teams by High-Risk Assets",
		"A | 1",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(out, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", m, out)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
	assert.NotContains(t, out, "A-2 |")
}

func TestWriteText_EmptySections(t *testing.T) {
	s := audit.Summarize(models.NewAssets([]map[string]any{
		{"hostname": "h2", "environment": "dev", "criticality": "low"},
	}))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))
	out := buf.String()

	assert.Equal(t, 2, strings.Count(out, "None found."))
	assert.Contains(t, out, "No high risk assets found.")
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("json, PDF,json,")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatText, FormatJSON, FormatPDF}, got)

	got, err = ParseFormats("")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatText}, got)

	_, err = ParseFormats("xml")
	assert.Error(t, err)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "out/cmdb_summary.json", PathFor("out/cmdb_summary.txt", FormatJSON))
	assert.Equal(t, "report.yaml", PathFor("report", FormatYAML))
	assert.Equal(t, "out/summary.json.json", PathFor("out/summary.json", FormatJSON))
	assert.Equal(t, "out/summary.yaml", PathFor("out/summary.json", FormatYAML))
	assert.Equal(t, "out/summary.json", PathFor("out/summary.json", FormatText))
}

func TestEncode_JSONKeepsEnvironmentOrder(t *testing.T) {
	b, err := Encode(sampleSummary(), FormatJSON)
	require.NoError(t, err)

	var out struct {
		Environments []audit.Count `json:"environments"`
		RiskLevels   map[string]int `json:"risk_levels"`
		Exposed      []struct {
			Hostname string `json:"hostname"`
			Risk     string `json:"risk"`
		} `json:"exposed"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, []audit.Count{{Name: "prod", Count: 1}, {Name: "dev", Count: 1}}, out.Environments)
	assert.Equal(t, map[string]int{"HIGH": 1, "MEDIUM": 0, "LOW": 1}, out.RiskLevels)
	require.Len(t, out.Exposed, 1)
	assert.Equal(t, "h1", out.Exposed[0].Hostname)
	assert.Equal(t, "HIGH", out.Exposed[0].Risk)
}

func TestEncode_YAML(t *testing.T) {
	b, err := Encode(sampleSummary(), FormatYAML)
	require.NoError(t, err)

	var out struct {
		TotalAssets  int           `yaml:"total_assets"`
		Environments []audit.Count `yaml:"environments"`
		HighPriority []struct {
			AssetID string `yaml:"asset_id"`
		} `yaml:"high_priority"`
	}
	require.NoError(t, yaml.Unmarshal(b, &out))
	assert.Equal(t, 2, out.TotalAssets)
	assert.Equal(t, "prod", out.Environments[0].Name)
	require.Len(t, out.HighPriority, 1)
	assert.Equal(t, "A-1", out.HighPriority[0].AssetID)
}

func TestEncode_PDF(t *testing.T) {
	b, err := Encode(sampleSummary(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestWriteFiles_OverwritesAndWritesEachFormat(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "reports", "cmdb_summary.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(textPath), 0o755))
	require.NoError(t, os.WriteFile(textPath, []byte("stale content that is longer than nothing"), 0o644))

	paths, err := WriteFiles(textPath, []Format{FormatText, FormatJSON}, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, []string{textPath, filepath.Join(dir, "reports", "cmdb_summary.json")}, paths)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), Title))
	assert.NotContains(t, string(text), "stale")

	_, err = os.Stat(paths[1])
	assert.NoError(t, err)
}

func TestWriteFiles_TextPathWithSiblingExtension(t *testing.T) {
	textPath := filepath.Join(t.TempDir(), "summary.json")

	paths, err := WriteFiles(textPath, []Format{FormatText, FormatJSON}, sampleSummary())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0], paths[1])
	assert.Equal(t, textPath+".json", paths[1])

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), Title))

	var decoded map[string]any
	b, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.NoError(t, json.Unmarshal(b, &decoded))
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, sampleSummary()))
	out := buf.String()

	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "A-1")
	assert.Contains(t, out, "prod")
	assert.NotContains(t, out, "None found.")
}
