package reconciler

// Plan is the set of changes needed to point a domain's declared hosts at a
// value.
type Plan struct {
	RecordType RecordType
	Value      string

	// Updates are existing records of RecordType on declared hosts whose
	// value differs, in provider order.
	Updates []ResourceRecord

	// Adds are declared hosts with no record of any type, in declaration order.
	Adds []string
}

// ComputePlan diffs records against hosts. It performs no I/O.
func ComputePlan(records []ResourceRecord, hosts *HostSpec, value string, recordType RecordType) Plan {
	plan := Plan{RecordType: recordType, Value: value}

	present := make(map[string]struct{}, len(records))
	for _, rec := range records {
		present[rec.Host] = struct{}{}

		if !hosts.Contains(rec.Host) {
			continue
		}
		if rec.Type == recordType && rec.Value != value {
			plan.Updates = append(plan.Updates, rec)
		}
	}

	for _, fqdn := range hosts.FQDNs() {
		if _, ok := present[fqdn]; !ok {
			plan.Adds = append(plan.Adds, fqdn)
		}
	}

	return plan
}

// Empty reports whether the plan requires no changes.
func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Adds) == 0
}
