package reconciler

import (
	"fmt"
	"net/netip"
)

// ClassificationError is returned when no record type was given and the
// target value is neither an IPv4 nor an IPv6 literal.
type ClassificationError struct {
	Value string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%q is not a valid IPv4/IPv6 address, record type must be given", e.Value)
}

// InferRecordType returns A for IPv4 literals and AAAA for IPv6 literals.
// IPv4-mapped IPv6 addresses are IPv6 literals and map to AAAA.
func InferRecordType(value string) (RecordType, error) {
	addr, err := netip.ParseAddr(value)
	if err != nil || addr.Zone() != "" {
		return "", &ClassificationError{Value: value}
	}
	if addr.Is4() {
		return RecordTypeA, nil
	}
	return RecordTypeAAAA, nil
}

// resolveTarget returns explicit when set, otherwise the type inferred from
// value. Address values of A and AAAA targets are returned in canonical form
// so that "2001:DB8::1" matches a stored "2001:db8::1".
func resolveTarget(value string, explicit RecordType) (RecordType, string, error) {
	recordType := explicit
	if recordType == "" {
		var err error
		if recordType, err = InferRecordType(value); err != nil {
			return "", value, err
		}
	}
	return recordType, CanonicalValue(value, recordType), nil
}

// CanonicalValue returns the canonical text of an IP literal targeted by an
// A or AAAA record. Other values are returned unchanged.
func CanonicalValue(value string, recordType RecordType) string {
	if recordType != RecordTypeA && recordType != RecordTypeAAAA {
		return value
	}
	addr, err := netip.ParseAddr(value)
	if err != nil || addr.Zone() != "" {
		return value
	}
	return addr.String()
}
