// Package publicip discovers the host's public address, either from an
// ipify-style HTTP endpoint or from a DNS query against a resolver that
// answers with the querying address (e.g. myip.opendns.com).
package publicip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
	"gitlab.bluewillows.net/root/siloddns/pkg/httputil"
)

// DefaultURL returns {"ip": "<address>"}.
const DefaultURL = "https://api.ipify.org/?format=json"

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 10 * time.Second

// ErrNoAddress is returned when the source answered without a usable address.
var ErrNoAddress = errors.New("no address in response")

// Client looks up the public address from one configured source.
//
// The source is an http(s) URL returning {"ip": "..."} or a DNS source of the
// form dns://server[:port]/name[?type=AAAA].
type Client struct {
	source string
	logger *slog.Logger

	httpClient *http.Client

	dnsClient *dns.Client
	dnsServer string
	dnsName   string
	dnsType   uint16
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for source. An empty source uses DefaultURL.
func New(source string, opts ...Option) (*Client, error) {
	if source == "" {
		source = DefaultURL
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing IP source %q: %w", source, err)
	}

	c := &Client{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("IP source %q has no host", source)
		}
		if c.httpClient == nil {
			c.httpClient = httputil.NewClient(&httputil.ClientConfig{
				Timeout: DefaultTimeout,
				Logger:  c.logger,
			})
		}

	case "dns":
		if err := c.configureDNS(u); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("IP source %q: unsupported scheme %q (use http, https or dns)", source, u.Scheme)
	}

	return c, nil
}

func (c *Client) configureDNS(u *url.URL) error {
	if u.Host == "" {
		return fmt.Errorf("IP source %q has no resolver", c.source)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if _, ok := dns.IsDomainName(name); !ok || name == "" {
		return fmt.Errorf("IP source %q: invalid query name %q", c.source, name)
	}

	qtype := dns.TypeA
	if t := u.Query().Get("type"); t != "" {
		switch strings.ToUpper(t) {
		case "A":
		case "AAAA":
			qtype = dns.TypeAAAA
		default:
			return fmt.Errorf("IP source %q: query type must be A or AAAA", c.source)
		}
	}

	server := u.Host
	if u.Port() == "" {
		server = net.JoinHostPort(u.Hostname(), "53")
	}

	c.dnsClient = &dns.Client{Net: "udp", Timeout: DefaultTimeout}
	c.dnsServer = server
	c.dnsName = dns.Fqdn(name)
	c.dnsType = qtype
	return nil
}

// Source returns the configured source.
func (c *Client) Source() string {
	return c.source
}

// Lookup returns the current public address.
func (c *Client) Lookup(ctx context.Context) (netip.Addr, error) {
	var (
		addr netip.Addr
		err  error
	)
	if c.dnsClient != nil {
		addr, err = c.lookupDNS(ctx)
	} else {
		addr, err = c.lookupHTTP(ctx)
	}

	if err != nil {
		metrics.PublicIPLookupsTotal.WithLabelValues("error").Inc()
		return netip.Addr{}, fmt.Errorf("public IP lookup via %s: %w", c.source, err)
	}

	metrics.PublicIPLookupsTotal.WithLabelValues("success").Inc()
	c.logger.Debug("public IP discovered", slog.String("ip", addr.String()))
	return addr, nil
}

// ipResponse is the ipify JSON reply.
type ipResponse struct {
	IP string `json:"ip"`
}

func (c *Client) lookupHTTP(ctx context.Context) (netip.Addr, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return netip.Addr{}, fmt.Errorf("parsing response JSON: %w", err)
	}
	if r.IP == "" {
		return netip.Addr{}, ErrNoAddress
	}

	return parseAddr(r.IP)
}

func (c *Client) lookupDNS(ctx context.Context) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(c.dnsName, c.dnsType)

	resp, _, err := c.dnsClient.ExchangeContext(ctx, msg, c.dnsServer)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying %s: %w", c.dnsServer, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("querying %s: server returned %s", c.dnsServer, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *dns.A:
			if c.dnsType == dns.TypeA {
				return parseAddr(v.A.String())
			}
		case *dns.AAAA:
			if c.dnsType == dns.TypeAAAA {
				return parseAddr(v.AAAA.String())
			}
		}
	}
	return netip.Addr{}, ErrNoAddress
}

// parseAddr validates an address literal. Zoned and unspecified addresses
// are rejected.
func parseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if addr.Zone() != "" || addr.IsUnspecified() {
		return netip.Addr{}, fmt.Errorf("invalid address %q", s)
	}
	return addr.Unmap(), nil
}
