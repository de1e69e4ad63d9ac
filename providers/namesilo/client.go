// Package namesilo implements a client for the NameSilo DNS API.
//
// NameSilo exposes every operation as an HTTP GET on {base}/{operation} with
// the API key, version, response format and domain as query parameters. The
// reply is an XML document whose reply/code element is "300" on success.
package namesilo

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/siloddns/pkg/httputil"
)

// Operation names a NameSilo API operation.
type Operation string

// Supported operations.
const (
	OpListRecords  Operation = "dnsListRecords"
	OpUpdateRecord Operation = "dnsUpdateRecord"
	OpAddRecord    Operation = "dnsAddRecord"
	OpDeleteRecord Operation = "dnsDeleteRecord"
)

// Fixed request parameters.
const (
	apiVersion   = "1"
	responseType = "xml"
	successCode  = "300"

	// maxResponseSize caps how much of a reply is read.
	maxResponseSize = 4 << 20
)

// Supported reports whether op is implemented by this client.
func (op Operation) Supported() bool {
	switch op {
	case OpListRecords, OpUpdateRecord, OpAddRecord, OpDeleteRecord:
		return true
	default:
		return false
	}
}

// Client is a NameSilo API client. It holds the credentials shared by every
// domain; use Domain to obtain a client bound to one domain.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new NameSilo API client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: cfg.baseURL(),
		apiKey:  cfg.APIKey,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httputil.NewClient(&httputil.ClientConfig{
			Timeout:         timeout,
			SensitiveParams: []string{"key"},
			Logger:          c.logger,
		})
	}

	return c, nil
}

// Domain returns a client whose requests are bound to the given domain.
func (c *Client) Domain(domain string) *DomainClient {
	return &DomainClient{client: c, domain: domain}
}

// DomainClient issues operations for a single domain.
type DomainClient struct {
	client *Client
	domain string
}

// Name returns the domain this client operates on.
func (d *DomainClient) Name() string {
	return d.domain
}

// Execute performs op with the given parameters and returns the validated
// reply. The fixed version, type, key and domain parameters always take
// precedence over entries in params.
func (d *DomainClient) Execute(ctx context.Context, op Operation, params map[string]string) (*Response, error) {
	return d.client.execute(ctx, d.domain, op, params)
}

func (c *Client) execute(ctx context.Context, domain string, op Operation, params map[string]string) (*Response, error) {
	if !op.Supported() {
		return nil, &UnsupportedOperationError{Operation: op}
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("version", apiVersion)
	query.Set("type", responseType)
	query.Set("key", c.apiKey)
	query.Set("domain", domain)

	reqURL := c.baseURL + "/" + string(op) + "?" + query.Encode()

	c.logger.Debug("making API request",
		slog.String("operation", string(op)),
		slog.String("domain", domain),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Operation: op, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, including the API key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &TransportError{Operation: op, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Operation: op, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	return parseResponse(op, body)
}

// parseResponse decodes and validates a reply envelope.
func parseResponse(op Operation, body []byte) (*Response, error) {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, &APIError{Operation: op, Payload: string(body), Err: err}
	}

	code := strings.TrimSpace(env.Reply.Code)
	if code == "" {
		return nil, &APIError{Operation: op, Payload: string(body)}
	}

	if code != successCode {
		return nil, &APIError{
			Operation: op,
			Code:      code,
			Detail:    strings.TrimSpace(env.Reply.Detail),
			Payload:   string(body),
		}
	}

	return &Response{
		Operation: op,
		Code:      code,
		Detail:    strings.TrimSpace(env.Reply.Detail),
		RecordID:  strings.TrimSpace(env.Reply.RecordID),
		Records:   env.Reply.toRecords(),
		Raw:       body,
	}, nil
}
