package reconciler

import (
	"fmt"
	"strings"
)

// Filter selects records for bulk deletion. A nil component matches any
// value; a Filter with every component nil matches every record of the
// domain. Host is a bare label ("" is the bare domain).
type Filter struct {
	Host  *string
	Value *string
	Type  *RecordType
}

// WithHost returns a copy of f that also requires the given host label.
func (f Filter) WithHost(label string) Filter {
	label = NormalizeLabel(label)
	f.Host = &label
	return f
}

// WithValue returns a copy of f that also requires the given value.
func (f Filter) WithValue(value string) Filter {
	f.Value = &value
	return f
}

// WithType returns a copy of f that also requires the given record type.
func (f Filter) WithType(t RecordType) Filter {
	f.Type = &t
	return f
}

// IsEmpty reports whether no component is set.
func (f Filter) IsEmpty() bool {
	return f.Host == nil && f.Value == nil && f.Type == nil
}

// Matches reports whether rec satisfies every set component.
func (f Filter) Matches(rec ResourceRecord, domain string) bool {
	if f.Host != nil && !strings.EqualFold(rec.Host, FQDN(*f.Host, domain)) {
		return false
	}
	if f.Value != nil && rec.Value != *f.Value {
		return false
	}
	if f.Type != nil && rec.Type != *f.Type {
		return false
	}
	return true
}

// Select returns the records matching f, in input order.
func (f Filter) Select(records []ResourceRecord, domain string) []ResourceRecord {
	var selected []ResourceRecord
	for _, rec := range records {
		if f.Matches(rec, domain) {
			selected = append(selected, rec)
		}
	}
	return selected
}

// String describes the filter for logs.
func (f Filter) String() string {
	if f.IsEmpty() {
		return "all records"
	}
	var parts []string
	if f.Host != nil {
		host := *f.Host
		if host == "" {
			host = ApexLabel
		}
		parts = append(parts, "host="+host)
	}
	if f.Value != nil {
		parts = append(parts, "value="+*f.Value)
	}
	if f.Type != nil {
		parts = append(parts, fmt.Sprintf("type=%s", *f.Type))
	}
	return strings.Join(parts, " ")
}
