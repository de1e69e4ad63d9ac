package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"gitlab.bluewillows.net/root/siloddns/pkg/httputil"
)

const (
	// DefaultSendGridHost is the SendGrid v3 API host.
	DefaultSendGridHost = "https://api.sendgrid.com"

	sendEndpoint   = "/v3/mail/send"
	defaultTimeout = 30 * time.Second
)

// SendGridConfig holds SendGrid sink settings.
type SendGridConfig struct {
	APIKey string
	From   string
	To     string

	// Host overrides DefaultSendGridHost.
	Host string
}

// Validate checks that the key and both addresses are present.
func (c SendGridConfig) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("API key is required"))
	}
	if c.From == "" {
		errs = append(errs, errors.New("from address is required"))
	}
	if c.To == "" {
		errs = append(errs, errors.New("to address is required"))
	}
	return errors.Join(errs...)
}

// SendGrid delivers notifications as e-mail through the SendGrid v3 API.
type SendGrid struct {
	config SendGridConfig
	client *rest.Client
	logger *slog.Logger
}

// SendGridOption is a functional option for configuring the SendGrid sink.
type SendGridOption func(*SendGrid)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) SendGridOption {
	return func(s *SendGrid) {
		if hc != nil {
			s.client = &rest.Client{HTTPClient: hc}
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) SendGridOption {
	return func(s *SendGrid) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSendGrid creates a SendGrid sink.
func NewSendGrid(cfg SendGridConfig, opts ...SendGridOption) (*SendGrid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sendgrid config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultSendGridHost
	}

	s := &SendGrid{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = &rest.Client{HTTPClient: httputil.NewClient(&httputil.ClientConfig{
			Timeout: defaultTimeout,
			Logger:  s.logger,
		})}
	}

	return s, nil
}

// Send mails the lines to the configured recipient.
func (s *SendGrid) Send(ctx context.Context, subject string, lines []string) error {
	from := mail.NewEmail("", s.config.From)
	to := mail.NewEmail("", s.config.To)
	message := mail.NewSingleEmail(from, subject, to, PlainBody(lines), HTMLBody(lines))

	request := sendgrid.GetRequest(s.config.APIKey, sendEndpoint, s.config.Host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	s.logger.Debug("sending notification",
		slog.String("to", s.config.To),
		slog.Int("lines", len(lines)),
	)

	resp, err := s.client.SendWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sending mail: unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}

	s.logger.Info("notification mailed",
		slog.String("to", s.config.To),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

// HTMLBody renders lines as a bold block separated by <br>.
func HTMLBody(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = html.EscapeString(l)
	}
	return "<strong>" + strings.Join(escaped, "<br>") + "</strong>"
}

// PlainBody renders lines one per line.
func PlainBody(lines []string) string {
	return strings.Join(lines, "\n")
}
