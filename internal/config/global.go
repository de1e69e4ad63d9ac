package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

// Global configuration defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultDryRun      = false
	DefaultTTL         = reconciler.DefaultTTL
	DefaultConcurrency = 1
	DefaultInterval    = 5 * time.Minute
	DefaultHealthPort  = 8080
	DefaultIPURL       = "https://api.ipify.org/?format=json"
)

// GlobalConfig holds application-wide settings.
// These are parsed from SILODDNS_* environment variables.
type GlobalConfig struct {
	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Behavior
	DryRun      bool                  // If true, don't make actual DNS changes
	TTL         int                   // TTL sent with updated and added records
	RecordType  reconciler.RecordType // Forced record type; empty infers from the address
	Concurrency int                   // Domains reconciled at once
	Interval    time.Duration         // How often serve mode reconciles
	HealthPort  int                   // Port for health/metrics endpoints

	// IPURL is the public IP discovery endpoint.
	IPURL string
}

// defaultGlobalConfig returns a GlobalConfig with every default applied.
func defaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		DryRun:      DefaultDryRun,
		TTL:         DefaultTTL,
		Concurrency: DefaultConcurrency,
		Interval:    DefaultInterval,
		HealthPort:  DefaultHealthPort,
		IPURL:       DefaultIPURL,
	}
}

// mergeGlobalConfig applies SILODDNS_* environment overrides on top of base.
// A nil base starts from defaults. Environment variables always take
// precedence over file config.
func mergeGlobalConfig(base *GlobalConfig) (*GlobalConfig, []string) {
	var errs []string

	cfg := defaultGlobalConfig()
	if base != nil {
		c := *base
		cfg = &c
	}

	if v := getEnv("SILODDNS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv("SILODDNS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getEnv("SILODDNS_DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}

	if v := getEnv("SILODDNS_TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SILODDNS_TTL: invalid integer %q", v))
		} else {
			cfg.TTL = ttl
		}
	}

	if v := getEnv("SILODDNS_RECORD_TYPE"); v != "" {
		rt, err := reconciler.ParseRecordType(v)
		if err != nil {
			errs = append(errs, "SILODDNS_RECORD_TYPE: "+err.Error())
		} else {
			cfg.RecordType = rt
		}
	}

	if v := getEnv("SILODDNS_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SILODDNS_CONCURRENCY: invalid integer %q", v))
		} else {
			cfg.Concurrency = n
		}
	}

	// Supports Go duration format: 60s, 5m, etc.
	if v := getEnv("SILODDNS_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SILODDNS_INTERVAL: invalid duration %q (use format like 60s, 5m)", v))
		} else {
			cfg.Interval = interval
		}
	}

	if v := getEnv("SILODDNS_HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SILODDNS_HEALTH_PORT: invalid integer %q", v))
		} else {
			cfg.HealthPort = port
		}
	}

	if v := getEnv("SILODDNS_IP_URL"); v != "" {
		cfg.IPURL = v
	}

	return cfg, errs
}

// validateGlobal checks ranges and enumerations of the merged settings.
func validateGlobal(cfg *GlobalConfig) []string {
	var errs []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log_format: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.TTL < 1 {
		errs = append(errs, "ttl: must be at least 1")
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, "concurrency: must be at least 1")
	}
	if cfg.Interval < time.Second {
		errs = append(errs, "interval: must be at least 1s")
	}
	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health_port: must be between 1 and 65535, got %d", cfg.HealthPort))
	}
	if cfg.IPURL == "" {
		errs = append(errs, "ip_url: must not be empty")
	}

	return errs
}
