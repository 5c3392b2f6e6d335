package audit

import (
	"strings"

	"github.com/crucial707/asset-audit/internal/models"
)

// RiskLevelOf classifies an asset. Exposed and high criticality is HIGH,
// either one alone is MEDIUM, neither is LOW.
func RiskLevelOf(a models.Asset) models.RiskLevel {
	critHigh := isHighCriticality(a)
	switch {
	case a.InternetExposed && critHigh:
		return models.RiskHigh
	case a.InternetExposed || critHigh:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// IsHighPriority reports whether a production asset is exposed or high criticality.
func IsHighPriority(a models.Asset) bool {
	return strings.ToLower(a.Environment) == "prod" && (a.InternetExposed || isHighCriticality(a))
}

func isHighCriticality(a models.Asset) bool {
	return strings.ToLower(a.Criticality) == "high"
}
