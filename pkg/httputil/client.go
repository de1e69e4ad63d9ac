// Package httputil provides shared HTTP client utilities for siloddns.
package httputil

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "siloddns/1.0"
)

// redacted replaces sensitive query values in logged URLs.
const redacted = "REDACTED"

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout is the HTTP client timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	// Defaults to "siloddns/1.0" if not specified.
	UserAgent string

	// SensitiveParams lists query parameters whose values are masked in
	// debug logs (NameSilo passes its API key as "key").
	SensitiveParams []string

	// Logger enables debug logging for HTTP requests.
	// If nil, no debug logging is performed.
	Logger *slog.Logger
}

// loggingTransport wraps an http.RoundTripper to add the User-Agent header
// and optionally log requests at debug level.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	sensitive []string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP request",
			slog.String("method", req.Method),
			slog.String("url", RedactURL(req.URL, t.sensitive...)),
		)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil && resp != nil {
		t.logger.Debug("HTTP response",
			slog.String("method", req.Method),
			slog.String("url", RedactURL(req.URL, t.sensitive...)),
			slog.Int("status", resp.StatusCode),
		)
	}

	return resp, err
}

// RedactURL returns u as a string with the values of the named query
// parameters replaced.
func RedactURL(u *url.URL, params ...string) string {
	if u == nil {
		return ""
	}
	if len(params) == 0 || u.RawQuery == "" {
		return u.String()
	}

	query := u.Query()
	changed := false
	for _, p := range params {
		if query.Has(p) {
			query.Set(p, redacted)
			changed = true
		}
	}
	if !changed {
		return u.String()
	}

	clone := *u
	clone.RawQuery = query.Encode()
	return clone.String()
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
			sensitive: cfg.SensitiveParams,
			logger:    cfg.Logger,
		},
	}
}

// DefaultClient returns a new HTTP client with default settings.
// Equivalent to NewClient(nil).
func DefaultClient() *http.Client {
	return NewClient(nil)
}
