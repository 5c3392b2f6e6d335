package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unknown is the placeholder for string fields missing from an inventory record.
const Unknown = "unknown"

// DefaultCriticality is used when a record carries no criticality.
const DefaultCriticality = "low"

// RiskLevel classifies an asset by exposure and criticality.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// RiskLevels lists every level in report order.
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow}

// Asset is a defaulted, read-only view over one CMDB record.
type Asset struct {
	AssetID         string `json:"asset_id" yaml:"asset_id"`
	Hostname        string `json:"hostname" yaml:"hostname"`
	AssetType       string `json:"asset_type" yaml:"asset_type"`
	OS              string `json:"os" yaml:"os"`
	Environment     string `json:"environment" yaml:"environment"`
	OwnerTeam       string `json:"owner_team" yaml:"owner_team"`
	InternetExposed bool   `json:"internet_exposed" yaml:"internet_exposed"`
	Criticality     string `json:"criticality" yaml:"criticality"`
	LastSeen        string `json:"last_seen" yaml:"last_seen"`
}

// NewAsset builds an Asset from a decoded JSON object. It never fails: absent,
// null or blank fields take their defaults and non-string values are coerced
// to their text form.
func NewAsset(record map[string]any) Asset {
	return Asset{
		AssetID:         stringField(record, "asset_id", Unknown),
		Hostname:        stringField(record, "hostname", Unknown),
		AssetType:       stringField(record, "asset_type", Unknown),
		OS:              stringField(record, "os", Unknown),
		Environment:     stringField(record, "environment", Unknown),
		OwnerTeam:       stringField(record, "owner_team", Unknown),
		InternetExposed: boolField(record, "internet_exposed"),
		Criticality:     stringField(record, "criticality", DefaultCriticality),
		LastSeen:        stringField(record, "last_seen", Unknown),
	}
}

// NewAssets maps records in order.
func NewAssets(records []map[string]any) []Asset {
	assets := make([]Asset, 0, len(records))
	for _, r := range records {
		assets = append(assets, NewAsset(r))
	}
	return assets
}

func stringField(record map[string]any, key, fallback string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return fallback
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func boolField(record map[string]any, key string) bool {
	switch t := record[key].(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "yes" || s == "y" {
			return true
		}
		b, err := strconv.ParseBool(s)
		return err == nil && b
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	default:
		return false
	}
}
