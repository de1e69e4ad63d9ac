package reconciler

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// ApexLabel may be used in configuration in place of the empty label to
// refer to the bare domain.
const ApexLabel = "@"

// FQDN joins a bare label to its domain. The empty label is the domain itself.
func FQDN(label, domain string) string {
	if label == "" {
		return domain
	}
	return label + "." + domain
}

// NormalizeDomain lower-cases a domain name and strips a trailing dot.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// NormalizeLabel lower-cases a host label and maps ApexLabel to "".
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == ApexLabel {
		return ""
	}
	return label
}

// ValidateDomain checks that domain is a syntactically valid DNS name.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain is required")
	}
	if _, ok := dns.IsDomainName(domain); !ok {
		return fmt.Errorf("invalid domain name %q", domain)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid domain name %q: expected e.g. example.com", domain)
	}
	return nil
}

// HostSpec maps the fully-qualified names of a domain's declared hosts to
// their bare labels, preserving declaration order.
type HostSpec struct {
	domain string
	labels map[string]string
	order  []string
}

// NewHostSpec validates domain and labels and builds the mapping. Two labels
// resolving to the same fully-qualified name are rejected.
func NewHostSpec(domain string, labels []string) (*HostSpec, error) {
	domain = NormalizeDomain(domain)
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}

	h := &HostSpec{
		domain: domain,
		labels: make(map[string]string, len(labels)),
		order:  make([]string, 0, len(labels)),
	}

	for _, raw := range labels {
		label := NormalizeLabel(raw)
		if strings.HasPrefix(label, ".") || strings.HasSuffix(label, ".") {
			return nil, fmt.Errorf("invalid host label %q for %s", raw, domain)
		}
		fqdn := FQDN(label, domain)
		if _, ok := dns.IsDomainName(fqdn); !ok {
			return nil, fmt.Errorf("invalid host label %q for %s", raw, domain)
		}
		if _, dup := h.labels[fqdn]; dup {
			return nil, fmt.Errorf("duplicate host %q for %s", fqdn, domain)
		}
		h.labels[fqdn] = label
		h.order = append(h.order, fqdn)
	}

	return h, nil
}

// Domain returns the normalized domain name.
func (h *HostSpec) Domain() string {
	return h.domain
}

// Label returns the bare label for a fully-qualified host.
func (h *HostSpec) Label(fqdn string) (string, bool) {
	label, ok := h.labels[strings.ToLower(fqdn)]
	return label, ok
}

// Contains reports whether fqdn is one of the declared hosts.
func (h *HostSpec) Contains(fqdn string) bool {
	_, ok := h.Label(fqdn)
	return ok
}

// FQDNs returns the declared hosts in declaration order.
func (h *HostSpec) FQDNs() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Len returns the number of declared hosts.
func (h *HostSpec) Len() int {
	return len(h.order)
}
