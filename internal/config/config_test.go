package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"AUDIT_API_URL", "AUDIT_API_KEY", "AUDIT_TIMEOUT", "AUDIT_OUTPUT", "LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL: got %q", cfg.APIURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout: got %v", cfg.Timeout)
	}
	if cfg.OutputPath != "cmdb_summary.txt" {
		t.Errorf("OutputPath: got %q", cfg.OutputPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUDIT_API_URL", "http://cmdb.internal/assets")
	t.Setenv("AUDIT_API_KEY", "secret")
	t.Setenv("AUDIT_TIMEOUT", "3")
	t.Setenv("AUDIT_TABLE", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	if cfg.APIURL != "http://cmdb.internal/assets" || cfg.APIKey != "secret" {
		t.Errorf("unexpected api settings: %+v", cfg)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout: got %v, want 3s", cfg.Timeout)
	}
	if !cfg.Table {
		t.Error("Table: got false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy: got false")
	}
}

func TestGetEnvDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":       DefaultTimeout,
		"1500ms": 1500 * time.Millisecond,
		"7":      7 * time.Second,
		"-2s":    DefaultTimeout,
		"soon":   DefaultTimeout,
	}
	for raw, want := range cases {
		t.Setenv("AUDIT_TEST_DURATION", raw)
		if got := getEnvDuration("AUDIT_TEST_DURATION", DefaultTimeout); got != want {
			t.Errorf("getEnvDuration(%q)=%v want %v", raw, got, want)
		}
	}
}

func TestValidate_Rejects(t *testing.T) {
	cfg := Load()
	cfg.APIURL = "not a url"
	cfg.Timeout = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"APIURL", "Timeout", "LogFormat"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{CORSOrigins: " https://a.example , ,https://b.example"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("Origins: got %q", got)
	}
	if o := (Config{}).Origins(); len(o) != 0 {
		t.Errorf("empty Origins: got %q", o)
	}
}
