package namesilo

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultURL is the NameSilo API base URL.
const DefaultURL = "https://www.namesilo.com/api"

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Config holds NameSilo client configuration.
type Config struct {
	URL     string        // API base URL (defaults to DefaultURL)
	APIKey  string        // API key, sent as the "key" query parameter
	Timeout time.Duration // per-request timeout (defaults to DefaultTimeout)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.APIKey == "" {
		errs = append(errs, "API key is required")
	}
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("URL %q is not an absolute URL", c.URL))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("namesilo config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) baseURL() string {
	if c.URL == "" {
		return DefaultURL
	}
	return strings.TrimRight(c.URL, "/")
}
