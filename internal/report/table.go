package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crucial707/asset-audit/internal/audit"
)

// WriteTables renders the summary as console tables. Sections and their order
// match WriteText.
func WriteTables(w io.Writer, s audit.Summary) error {
	header := table.NewWriter()
	header.SetOutputMirror(w)
	header.SetTitle(Title)
	header.AppendRows([]table.Row{
		{"Run ID", s.RunID},
		{"API URL", s.SourceURL},
		{"Status Code", s.StatusCode},
		{"Total Assets", s.TotalAssets},
	})
	header.Render()

	countTable(w, "Assets by Environment", "Environment", s.Environments.Entries(), noneFound)
	countTable(w, "Assets by Risk Level", "Risk", s.RiskLevels.Entries(), noneFound)
	assetTable(w, "Internet-Exposed Assets", s.Exposed)
	assetTable(w, "High-Priority Assets", s.HighPriority)
	countTable(w, fmt.Sprintf("Top %d Teams by High-Risk Assets", audit.TopTeamsLimit), "Team", s.TopTeams, noHighRiskAssets)
	return nil
}

func countTable(w io.Writer, title, keyHeader string, counts []audit.Count, empty string) {
	if len(counts) == 0 {
		fmt.Fprintf(w, "\n%s: %s\n", title, empty)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{keyHeader, "Count"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Name, c.Count})
	}
	fmt.Fprintln(w)
	t.Render()
}

func assetTable(w io.Writer, title string, assets []audit.ReportedAsset) {
	if len(assets) == 0 {
		fmt.Fprintf(w, "\n%s: %s\n", title, noneFound)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Asset ID", "Hostname", "Environment", "Owner Team", "Criticality", "Risk"})
	for _, a := range assets {
		t.AppendRow(table.Row{a.AssetID, a.Hostname, a.Environment, a.OwnerTeam, a.Criticality, a.Risk})
	}
	fmt.Fprintln(w)
	t.Render()
}
