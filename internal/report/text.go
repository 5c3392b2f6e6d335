package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crucial707/asset-audit/internal/audit"
)

// Title heads every rendered report.
const Title = "CMDB Asset Risk Audit"

const (
	noneFound        = "None found."
	noHighRiskAssets = "No high risk assets found."
)

// WriteText renders the summary as the plain-text report. Section order is
// fixed: header, environments, risk levels, exposed, high priority, top teams.
func WriteText(w io.Writer, s audit.Summary) error {
	bw := bufio.NewWriter(w)

	heading(bw, Title, "=")
	if s.RunID != "" {
		fmt.Fprintf(bw, "Run ID: %s\n", s.RunID)
	}
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "Generated: %s\n", s.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(bw, "API URL: %s\n", s.SourceURL)
	fmt.Fprintf(bw, "Status Code: %d\n", s.StatusCode)
	fmt.Fprintf(bw, "Total Assets: %d\n", s.TotalAssets)

	section(bw, "Assets by Environment")
	if s.Environments.Len() == 0 {
		fmt.Fprintln(bw, noneFound)
	}
	for _, c := range s.Environments.Entries() {
		fmt.Fprintf(bw, "%s: %d\n", c.Name, c.Count)
	}

	section(bw, "Assets by Risk Level")
	for _, c := range s.RiskLevels.Entries() {
		fmt.Fprintf(bw, "%s: %d\n", c.Name, c.Count)
	}

	section(bw, "Internet-Exposed Assets")
	assetLines(bw, s.Exposed)

	section(bw, "High-Priority Assets (prod and exposed or high criticality)")
	assetLines(bw, s.HighPriority)

	section(bw, fmt.Sprintf("Top %d Teams by High-Risk Assets", audit.TopTeamsLimit))
	if len(s.TopTeams) == 0 {
		fmt.Fprintln(bw, noHighRiskAssets)
	}
	for _, c := range s.TopTeams {
		fmt.Fprintf(bw, "%s | %d\n", c.Name, c.Count)
	}

	return bw.Flush()
}

// AssetLine formats one asset as pipe-separated fields.
func AssetLine(a audit.ReportedAsset) string {
	return strings.Join([]string{
		a.AssetID,
		a.Hostname,
		a.Environment,
		a.OwnerTeam,
		a.Criticality,
		string(a.Risk),
	}, " | ")
}

func assetLines(w io.Writer, assets []audit.ReportedAsset) {
	if len(assets) == 0 {
		fmt.Fprintln(w, noneFound)
		return
	}
	for _, a := range assets {
		fmt.Fprintln(w, AssetLine(a))
	}
}

func heading(w io.Writer, title, rule string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat(rule, len(title)))
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	heading(w, title, "-")
}
