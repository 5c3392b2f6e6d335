package models

import "time"

// AuditRun is the persisted headline of one audit run.
type AuditRun struct {
	ID           string    `json:"id"`
	SourceURL    string    `json:"source_url"`
	StatusCode   int       `json:"status_code"`
	TotalAssets  int       `json:"total_assets"`
	High         int       `json:"high"`
	Medium       int       `json:"medium"`
	Low          int       `json:"low"`
	Exposed      int       `json:"exposed"`        // internet-exposed assets
	HighPriority int       `json:"high_priority"`  // prod and exposed or high criticality
	CreatedAt    time.Time `json:"created_at"`
}
