package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

// FileConfig represents the configuration file structure. The same layout is
// accepted as YAML (.yaml, .yml) or TOML (.toml).
type FileConfig struct {
	// Logging configuration
	Logging *FileLoggingConfig `yaml:"logging,omitempty" toml:"logging,omitempty"`

	// Reconciler settings
	Reconciler *FileReconcilerConfig `yaml:"reconciler,omitempty" toml:"reconciler,omitempty"`

	// NameSilo API settings
	NameSilo *FileNameSiloConfig `yaml:"namesilo,omitempty" toml:"namesilo,omitempty"`

	// Domains and the hosts kept in sync
	Domains []FileDomainConfig `yaml:"domains,omitempty" toml:"domains,omitempty"`

	// Public IP discovery
	PublicIP *FilePublicIPConfig `yaml:"public_ip,omitempty" toml:"public_ip,omitempty"`

	// Change notification
	Notify *FileNotifyConfig `yaml:"notify,omitempty" toml:"notify,omitempty"`

	// Health and metrics server
	Server *FileServerConfig `yaml:"server,omitempty" toml:"server,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format,omitempty"` // json, text
}

// FileReconcilerConfig holds reconciliation settings.
type FileReconcilerConfig struct {
	TTL         int    `yaml:"ttl,omitempty" toml:"ttl,omitempty"`
	RecordType  string `yaml:"record_type,omitempty" toml:"record_type,omitempty"` // A, AAAA, CNAME, ...
	DryRun      *bool  `yaml:"dry_run,omitempty" toml:"dry_run,omitempty"`         // Pointer to distinguish unset from false
	Concurrency int    `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	Interval    string `yaml:"interval,omitempty" toml:"interval,omitempty"` // Go duration format (e.g., "60s", "5m")
}

// FileNameSiloConfig holds NameSilo API settings.
type FileNameSiloConfig struct {
	URL     string `yaml:"url,omitempty" toml:"url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// FileDomainConfig declares the hosts of one domain. "@" or "" is the bare
// domain.
type FileDomainConfig struct {
	Name  string   `yaml:"name" toml:"name"`
	Hosts []string `yaml:"hosts" toml:"hosts"`
}

// FilePublicIPConfig holds public IP discovery settings.
type FilePublicIPConfig struct {
	URL string `yaml:"url,omitempty" toml:"url,omitempty"`
}

// FileNotifyConfig holds e-mail notification settings.
type FileNotifyConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	From    string `yaml:"from,omitempty" toml:"from,omitempty"`
	To      string `yaml:"to,omitempty" toml:"to,omitempty"`
	APIKey  string `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port int `yaml:"port,omitempty" toml:"port,omitempty"` // Port for health/metrics endpoints
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}

// interpolateEnvVars interpolates environment variables in all string
// fields of the config structure.
func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Reconciler != nil {
		c.Reconciler.RecordType = InterpolateEnvVars(c.Reconciler.RecordType)
		c.Reconciler.Interval = InterpolateEnvVars(c.Reconciler.Interval)
	}

	if c.NameSilo != nil {
		c.NameSilo.URL = InterpolateEnvVars(c.NameSilo.URL)
		c.NameSilo.APIKey = InterpolateEnvVars(c.NameSilo.APIKey)
		c.NameSilo.Timeout = InterpolateEnvVars(c.NameSilo.Timeout)
	}

	for i := range c.Domains {
		d := &c.Domains[i]
		d.Name = InterpolateEnvVars(d.Name)
		for j := range d.Hosts {
			d.Hosts[j] = InterpolateEnvVars(d.Hosts[j])
		}
	}

	if c.PublicIP != nil {
		c.PublicIP.URL = InterpolateEnvVars(c.PublicIP.URL)
	}

	if c.Notify != nil {
		c.Notify.From = InterpolateEnvVars(c.Notify.From)
		c.Notify.To = InterpolateEnvVars(c.Notify.To)
		c.Notify.APIKey = InterpolateEnvVars(c.Notify.APIKey)
	}
}

// LoadFile reads and parses a configuration file. The format is chosen by
// extension; unknown keys are rejected. Environment variables in ${VAR}
// format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parsing TOML config: unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// ToGlobalConfig converts file config to GlobalConfig, applying defaults.
// Values from file take precedence over defaults; env vars override later.
func (c *FileConfig) ToGlobalConfig() (*GlobalConfig, []string) {
	var errs []string
	cfg := defaultGlobalConfig()

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if r := c.Reconciler; r != nil {
		if r.TTL != 0 {
			cfg.TTL = r.TTL
		}
		if r.RecordType != "" {
			rt, err := reconciler.ParseRecordType(r.RecordType)
			if err != nil {
				errs = append(errs, "reconciler.record_type: "+err.Error())
			}
			cfg.RecordType = rt
		}
		if r.DryRun != nil {
			cfg.DryRun = *r.DryRun
		}
		if r.Concurrency != 0 {
			cfg.Concurrency = r.Concurrency
		}
		if r.Interval != "" {
			interval, err := time.ParseDuration(r.Interval)
			if err != nil {
				errs = append(errs, fmt.Sprintf("reconciler.interval: invalid duration %q", r.Interval))
			} else {
				cfg.Interval = interval
			}
		}
	}

	if c.PublicIP != nil && c.PublicIP.URL != "" {
		cfg.IPURL = c.PublicIP.URL
	}

	if c.Server != nil && c.Server.Port != 0 {
		cfg.HealthPort = c.Server.Port
	}

	return cfg, errs
}
