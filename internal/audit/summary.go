package audit

import (
	"time"

	"github.com/crucial707/asset-audit/internal/models"
)

// TopTeamsLimit is how many teams the high-risk ranking keeps.
const TopTeamsLimit = 3

// ReportedAsset is an asset together with its classified risk.
type ReportedAsset struct {
	models.Asset `yaml:",inline"`
	Risk         models.RiskLevel `json:"risk" yaml:"risk"`
}

// Summary is everything an audit run computes from one inventory snapshot.
type Summary struct {
	RunID        string          `json:"run_id" yaml:"run_id"`
	GeneratedAt  time.Time       `json:"generated_at" yaml:"generated_at"`
	SourceURL    string          `json:"source_url" yaml:"source_url"`
	StatusCode   int             `json:"status_code" yaml:"status_code"`
	TotalAssets  int             `json:"total_assets" yaml:"total_assets"`
	Environments Counts          `json:"environments" yaml:"environments"`
	RiskLevels   RiskCounts      `json:"risk_levels" yaml:"risk_levels"`
	Exposed      []ReportedAsset `json:"exposed" yaml:"exposed"`
	HighPriority []ReportedAsset `json:"high_priority" yaml:"high_priority"`
	TopTeams     []Count         `json:"top_teams" yaml:"top_teams"`
}

// Summarize classifies and aggregates assets in arrival order.
func Summarize(assets []models.Asset) Summary {
	s := Summary{
		TotalAssets:  len(assets),
		RiskLevels:   NewRiskCounts(),
		Exposed:      []ReportedAsset{},
		HighPriority: []ReportedAsset{},
	}

	var teams Counts
	for _, a := range assets {
		risk := RiskLevelOf(a)
		ra := ReportedAsset{Asset: a, Risk: risk}

		s.Environments.Inc(a.Environment)
		s.RiskLevels[risk]++

		if a.InternetExposed {
			s.Exposed = append(s.Exposed, ra)
		}
		if IsHighPriority(a) {
			s.HighPriority = append(s.HighPriority, ra)
		}
		if risk == models.RiskHigh {
			teams.Inc(a.OwnerTeam)
		}
	}
	s.TopTeams = teams.Top(TopTeamsLimit)

	return s
}

// Run converts the summary headline into a persistable row.
func (s Summary) Run() models.AuditRun {
	return models.AuditRun{
		ID:           s.RunID,
		SourceURL:    s.SourceURL,
		StatusCode:   s.StatusCode,
		TotalAssets:  s.TotalAssets,
		High:         s.RiskLevels[models.RiskHigh],
		Medium:       s.RiskLevels[models.RiskMedium],
		Low:          s.RiskLevels[models.RiskLow],
		Exposed:      len(s.Exposed),
		HighPriority: len(s.HighPriority),
		CreatedAt:    s.GeneratedAt,
	}
}
