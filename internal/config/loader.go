package config

import (
	"fmt"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// fileSettings is a configuration file converted to runtime types.
type fileSettings struct {
	global   *GlobalConfig
	namesilo namesilo.Config
	domains  []reconciler.DomainConfig
	notify   NotifyConfig
}

// loadFromFile loads configuration from a file and converts it to runtime
// types. Returns nil if no file is configured.
func loadFromFile(path string) (*fileSettings, []string) {
	if path == "" {
		return nil, nil
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, []string{"config file: " + err.Error()}
	}

	slog.Info("loaded configuration from file", slog.String("path", path))

	global, errs := fileCfg.ToGlobalConfig()

	out := &fileSettings{
		global:  global,
		domains: convertFileDomains(fileCfg.Domains),
	}

	if ns := fileCfg.NameSilo; ns != nil {
		out.namesilo.URL = ns.URL
		out.namesilo.APIKey = ns.APIKey
		if ns.Timeout != "" {
			timeout, err := time.ParseDuration(ns.Timeout)
			if err != nil {
				errs = append(errs, fmt.Sprintf("namesilo.timeout: invalid duration %q", ns.Timeout))
			} else {
				out.namesilo.Timeout = timeout
			}
		}
	}

	if n := fileCfg.Notify; n != nil {
		out.notify = NotifyConfig{
			From:   n.From,
			To:     n.To,
			APIKey: n.APIKey,
		}
		if n.Enabled != nil {
			out.notify.Enabled = *n.Enabled
		}
	}

	return out, errs
}

// mergeNameSilo copies the non-zero fields of src into dst.
func mergeNameSilo(dst *namesilo.Config, src namesilo.Config) {
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
}

// applyNameSiloEnv overrides NameSilo settings from the environment. The API
// key supports the _FILE suffix.
func applyNameSiloEnv(cfg *namesilo.Config) []string {
	var errs []string

	if v := getEnv("SILODDNS_NAMESILO_URL"); v != "" {
		cfg.URL = v
	}
	if v := getEnvWithFileFallback("NAMESILO_", "API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := getEnv("SILODDNS_NAMESILO_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("SILODDNS_NAMESILO_TIMEOUT: invalid duration %q", v))
		} else {
			cfg.Timeout = timeout
		}
	}

	return errs
}

// applyNotifyEnv overrides notification settings from the environment. The
// SendGrid key supports the _FILE suffix.
func applyNotifyEnv(cfg *NotifyConfig) {
	if v := getEnv("SILODDNS_NOTIFY_ENABLED"); v != "" {
		cfg.Enabled = parseBool(v, cfg.Enabled)
	}
	if v := getEnv("SILODDNS_NOTIFY_FROM"); v != "" {
		cfg.From = v
	}
	if v := getEnv("SILODDNS_NOTIFY_TO"); v != "" {
		cfg.To = v
	}
	if v := getEnvWithFileFallback("SENDGRID_", "API_KEY"); v != "" {
		cfg.APIKey = v
	}
}
