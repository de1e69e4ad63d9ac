// Package config handles loading and validation of siloddns configuration
// from defaults, an optional YAML or TOML file, and environment variables.
package config

import (
	"log/slog"
	"os"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// EnvConfigFile names the environment variable holding the config file path.
const EnvConfigFile = "SILODDNS_CONFIG"

// Config holds the complete application configuration.
type Config struct {
	Global *GlobalConfig

	// NameSilo holds API connection settings.
	NameSilo namesilo.Config

	// Domains are reconciled in this order.
	Domains []reconciler.DomainConfig

	Notify NotifyConfig
}

// NotifyConfig holds e-mail notification settings.
type NotifyConfig struct {
	Enabled bool
	From    string
	To      string
	APIKey  string
}

// RunnerConfig returns the reconciler.RunnerConfig for this configuration.
func (c *Config) RunnerConfig() reconciler.RunnerConfig {
	return reconciler.RunnerConfig{
		Domains:     c.Domains,
		RecordType:  c.Global.RecordType,
		Concurrency: c.Global.Concurrency,
	}
}

// ReconcilerConfig returns the reconciler.Config for this configuration.
func (c *Config) ReconcilerConfig() reconciler.Config {
	return reconciler.Config{
		TTL:    c.Global.TTL,
		DryRun: c.Global.DryRun,
	}
}

// Load loads configuration using the file named by SILODDNS_CONFIG, if any.
func Load() (*Config, error) {
	return LoadWithPath(GetConfigFilePath())
}

// LoadWithPath loads configuration from defaults, the file at path (when
// non-empty), then environment variables. Every problem found is reported
// in a single *ValidationError.
func LoadWithPath(path string) (*Config, error) {
	var errs []string

	file, fileErrs := loadFromFile(path)
	errs = append(errs, fileErrs...)

	var base *GlobalConfig
	if file != nil {
		base = file.global
	}
	global, globalErrs := mergeGlobalConfig(base)
	errs = append(errs, globalErrs...)

	cfg := &Config{
		Global: global,
		NameSilo: namesilo.Config{
			URL:     namesilo.DefaultURL,
			Timeout: namesilo.DefaultTimeout,
		},
	}
	if file != nil {
		cfg.Domains = file.domains
		mergeNameSilo(&cfg.NameSilo, file.namesilo)
		cfg.Notify = file.notify
	}

	nsErrs := applyNameSiloEnv(&cfg.NameSilo)
	errs = append(errs, nsErrs...)

	if v := getEnv("SILODDNS_DOMAINS"); v != "" {
		domains, domErrs := parseDomains(v)
		errs = append(errs, domErrs...)
		cfg.Domains = domains
	}

	applyNotifyEnv(&cfg.Notify)

	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// GetConfigFilePath returns the config file path from SILODDNS_CONFIG.
// Returns empty string if no config file is specified.
func GetConfigFilePath() string {
	return os.Getenv(EnvConfigFile)
}

// LogValue summarizes the configuration for startup logs. Secrets are omitted.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("log_level", c.Global.LogLevel),
		slog.Bool("dry_run", c.Global.DryRun),
		slog.Int("ttl", c.Global.TTL),
		slog.String("record_type", string(c.Global.RecordType)),
		slog.Int("concurrency", c.Global.Concurrency),
		slog.Duration("interval", c.Global.Interval),
		slog.Int("domains", len(c.Domains)),
		slog.String("namesilo_url", c.NameSilo.URL),
		slog.Bool("notify", c.Notify.Enabled),
	)
}
