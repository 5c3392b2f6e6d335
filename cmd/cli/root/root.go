package root

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crucial707/asset-audit/internal/config"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "assetaudit",
	Short:         "CMDB asset risk auditor",
	Long:          "Fetch the CMDB inventory, classify every asset's risk and write a summary report.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var cfgFile string

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("api-url", "", "inventory API URL")
	pf.String("api-key", "", "inventory API key (X-API-Key)")
	pf.String("timeout", config.DefaultTimeout.String(), "inventory request timeout (duration or seconds)")
	pf.StringP("output", "o", config.DefaultOutputPath, "text report path")
	pf.String("formats", "text", "report formats: text,json,yaml,pdf")
	pf.Bool("table", false, "print tables instead of plain text")
	pf.String("db-url", "", "Postgres URL for run history")
	pf.String("metrics-file", "", "write Prometheus textfile metrics here")
	pf.Bool("trace", false, "print OpenTelemetry spans to stderr")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	for _, name := range []string{
		"api-url", "api-key", "timeout", "output", "formats", "table",
		"db-url", "metrics-file", "trace", "log-format", "log-level",
	} {
		_ = viper.BindPFlag(configKey(name), pf.Lookup(name))
	}

	// Environment variable support (AUDIT_API_URL, etc.)
	viper.SetEnvPrefix("AUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// configKey maps a flag name to its config key, e.g. api-url to api_url.
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// LoadConfig resolves flags, AUDIT_* variables, the optional config file and
// the environment defaults into one validated config.
func LoadConfig() (config.Config, error) {
	base := config.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	viper.SetDefault("api_url", base.APIURL)
	viper.SetDefault("api_key", base.APIKey)
	viper.SetDefault("timeout", base.Timeout)
	viper.SetDefault("output", base.OutputPath)
	viper.SetDefault("formats", base.Formats)
	viper.SetDefault("table", base.Table)
	viper.SetDefault("db_url", base.DatabaseURL)
	viper.SetDefault("metrics_file", base.MetricsFile)
	viper.SetDefault("cron", base.Cron)
	viper.SetDefault("trace", base.Trace)
	viper.SetDefault("log_format", base.LogFormat)
	viper.SetDefault("log_level", base.LogLevel)
	viper.SetDefault("port", base.Port)
	viper.SetDefault("jwt_secret", base.JWTSecret)
	viper.SetDefault("rate_limit_per_minute", base.RateLimitPerMinute)
	viper.SetDefault("trust_proxy", base.TrustProxy)
	viper.SetDefault("cors_origins", base.CORSOrigins)
	viper.SetDefault("hsts", base.HSTS)

	var cfg config.Config
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(durationHook)); err != nil {
		return config.Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// durationHook accepts Go durations ("1500ms") and plain seconds ("10").
var durationHook mapstructure.DecodeHookFuncType = func(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
