package root

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
		viper.SetEnvPrefix("AUDIT")
		viper.AutomaticEnv()
	})
}

func TestLoadConfig_EnvAndDefaults(t *testing.T) {
	resetFlags(t)
	t.Setenv("AUDIT_API_URL", "http://cmdb.test/assets")
	t.Setenv("AUDIT_TIMEOUT", "3")
	t.Setenv("AUDIT_FORMATS", "json,pdf")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "http://cmdb.test/assets" {
		t.Errorf("APIURL: got %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout: got %v, want 3s", cfg.Timeout)
	}
	if cfg.Formats != "json,pdf" {
		t.Errorf("Formats: got %q", cfg.Formats)
	}
	if cfg.OutputPath != "cmdb_summary.txt" {
		t.Errorf("OutputPath: got %q", cfg.OutputPath)
	}
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	resetFlags(t)
	t.Setenv("AUDIT_OUTPUT", "from-env.txt")

	flags := RootCmd.PersistentFlags()
	t.Cleanup(func() {
		for name, def := range map[string]string{"output": "cmdb_summary.txt", "timeout": "10s"} {
			_ = flags.Set(name, def)
			flags.Lookup(name).Changed = false
		}
	})
	if err := flags.Set("output", "from-flag.txt"); err != nil {
		t.Fatal(err)
	}
	if err := flags.Set("timeout", "1500ms"); err != nil {
		t.Fatal(err)
	}
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OutputPath != "from-flag.txt" {
		t.Errorf("OutputPath: got %q, want flag value", cfg.OutputPath)
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout: got %v", cfg.Timeout)
	}
}

func TestLoadConfig_TimeoutFlagSeconds(t *testing.T) {
	resetFlags(t)

	flags := RootCmd.PersistentFlags()
	t.Cleanup(func() {
		_ = flags.Set("timeout", "10s")
		flags.Lookup("timeout").Changed = false
	})
	if err := flags.Parse([]string{"--timeout", "10"}); err != nil {
		t.Fatalf("parse --timeout 10: %v", err)
	}
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout: got %v, want 10s", cfg.Timeout)
	}
}

func TestLoadConfig_File(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "audit.yaml")
	content := "api_url: http://file.test/cmdb.json\ntable: true\ncron: \"*/15 * * * *\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgFile = path

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "http://file.test/cmdb.json" || !cfg.Table || cfg.Cron != "*/15 * * * *" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	resetFlags(t)
	t.Setenv("LOG_FORMAT", "xml")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}
