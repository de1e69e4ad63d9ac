package config

import (
	"fmt"
	"net/mail"
	"strings"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig performs cross-field validation on the complete configuration.
// Returns a list of validation errors.
func validateConfig(cfg *Config) []string {
	var errs []string

	errs = append(errs, validateGlobal(cfg.Global)...)

	if err := cfg.NameSilo.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	errs = append(errs, validateDomains(cfg.Domains)...)
	errs = append(errs, validateNotify(cfg.Notify)...)

	return errs
}

// validateDomains checks every domain's hosts and that no domain is listed
// twice. An empty list is allowed here; commands that reconcile require it.
func validateDomains(domains []reconciler.DomainConfig) []string {
	var errs []string

	seen := make(map[string]bool)
	for _, dc := range domains {
		hosts, err := reconciler.NewHostSpec(dc.Name, dc.Hosts)
		if err != nil {
			errs = append(errs, "domains: "+err.Error())
			continue
		}
		if seen[hosts.Domain()] {
			errs = append(errs, fmt.Sprintf("domains: duplicate domain %q", hosts.Domain()))
		}
		seen[hosts.Domain()] = true
	}

	return errs
}

// validateNotify requires sender, recipient and key when notification is on.
func validateNotify(cfg NotifyConfig) []string {
	if !cfg.Enabled {
		return nil
	}

	var errs []string
	if cfg.APIKey == "" {
		errs = append(errs, "notify: SENDGRID_API_KEY or SENDGRID_API_KEY_FILE is required when notification is enabled")
	}
	for _, f := range []struct{ name, addr string }{{"from", cfg.From}, {"to", cfg.To}} {
		name, addr := f.name, f.addr
		if addr == "" {
			errs = append(errs, fmt.Sprintf("notify.%s: address is required", name))
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			errs = append(errs, fmt.Sprintf("notify.%s: invalid address %q", name, addr))
		}
	}
	return errs
}
