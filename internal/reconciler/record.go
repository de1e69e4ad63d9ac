package reconciler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// RecordType is a DNS resource record type such as A or AAAA.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeTXT   RecordType = "TXT"
)

// ParseRecordType validates s against the DNS type table and returns its
// canonical upper-case form. Meta types (ANY, AXFR, ...) are rejected.
func ParseRecordType(s string) (RecordType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	code, ok := dns.StringToType[upper]
	if !ok || upper == "" {
		return "", fmt.Errorf("unknown record type %q", s)
	}
	switch code {
	case dns.TypeANY, dns.TypeAXFR, dns.TypeIXFR, dns.TypeOPT, dns.TypeMAILA, dns.TypeMAILB:
		return "", fmt.Errorf("record type %q cannot be managed", s)
	}
	return RecordType(upper), nil
}

// ResourceRecord is one entry of a domain's record snapshot as reported by
// the provider. Snapshots are replaced wholesale and never mutated.
type ResourceRecord struct {
	RecordID string
	Host     string // fully-qualified host
	Type     RecordType
	Value    string
	TTL      int

	// Extra holds any additional fields the provider returned (e.g. distance).
	Extra map[string]string
}

// String returns a compact representation for logs.
func (r ResourceRecord) String() string {
	return fmt.Sprintf("%s %s %s (id %s, ttl %d)", r.Host, r.Type, r.Value, r.RecordID, r.TTL)
}

// required sub-elements of a resource_record.
var requiredFields = []string{"record_id", "host", "type", "value"}

// parseRecord converts a raw resource_record element into a ResourceRecord.
func parseRecord(raw namesilo.RawRecord) (ResourceRecord, error) {
	for _, name := range requiredFields {
		if _, ok := raw.Get(name); !ok {
			return ResourceRecord{}, fmt.Errorf("missing %s", name)
		}
	}

	id, _ := raw.Get("record_id")
	if id == "" {
		return ResourceRecord{}, fmt.Errorf("empty record_id")
	}
	host, _ := raw.Get("host")
	if host == "" {
		return ResourceRecord{}, fmt.Errorf("record %s: empty host", id)
	}
	typ, _ := raw.Get("type")
	value, _ := raw.Get("value")

	rec := ResourceRecord{
		RecordID: id,
		Host:     strings.ToLower(host),
		Type:     RecordType(strings.ToUpper(typ)),
		Value:    value,
	}

	if ttl, ok := raw.Get("ttl"); ok && ttl != "" {
		n, err := strconv.Atoi(ttl)
		if err != nil {
			return ResourceRecord{}, fmt.Errorf("record %s: invalid ttl %q", id, ttl)
		}
		rec.TTL = n
	}

	for _, f := range raw.Fields {
		switch f.Name {
		case "record_id", "host", "type", "value", "ttl":
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		if _, dup := rec.Extra[f.Name]; !dup {
			rec.Extra[f.Name] = f.Value
		}
	}

	return rec, nil
}

// parseRecords parses every record of a ListRecords reply. A single bad
// element fails the whole batch.
func parseRecords(resp *namesilo.Response) ([]ResourceRecord, error) {
	records := make([]ResourceRecord, 0, len(resp.Records))
	for i, raw := range resp.Records {
		rec, err := parseRecord(raw)
		if err != nil {
			return nil, &namesilo.APIError{
				Operation: namesilo.OpListRecords,
				Code:      resp.Code,
				Payload:   string(resp.Raw),
				Err:       fmt.Errorf("resource record %d: %w", i, err),
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
