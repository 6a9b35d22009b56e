package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variable names.
const (
	EnvDataFile    = "CONTRACTS_DATA_FILE"
	EnvLogLevel    = "CONTRACTS_LOG_LEVEL"
	EnvLogFormat   = "CONTRACTS_LOG_FORMAT"
	EnvAuditFile   = "CONTRACTS_AUDIT_FILE"
	EnvMetricsFile = "CONTRACTS_METRICS_FILE"
)

// Defaults used when the environment leaves a setting blank.
const (
	DefaultDataFile  = "contratos.txt"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// App captures process level configuration.
type App struct {
	DataFile  string
	LogLevel  string
	LogFormat string
	// AuditFile enables the JSON lines audit trail when set.
	AuditFile string
	// MetricsFile enables the metrics textfile written on exit when set.
	MetricsFile string
}

// FromEnv builds an App config from environment variables so main stays lean.
func FromEnv() App {
	return App{
		DataFile:    envOr(EnvDataFile, DefaultDataFile),
		LogLevel:    envOr(EnvLogLevel, DefaultLogLevel),
		LogFormat:   envOr(EnvLogFormat, DefaultLogFormat),
		AuditFile:   strings.TrimSpace(os.Getenv(EnvAuditFile)),
		MetricsFile: strings.TrimSpace(os.Getenv(EnvMetricsFile)),
	}
}

// Validate rejects settings the process cannot start with.
func (c App) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.New("data file is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
