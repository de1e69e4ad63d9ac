package reconciler

import "sync"

// ChangeLog collects human-readable descriptions of applied changes. It is
// owned by a run and safe for concurrent use.
type ChangeLog struct {
	mu      sync.Mutex
	entries []string
}

// NewChangeLog returns an empty change log.
func NewChangeLog() *ChangeLog {
	return &ChangeLog{}
}

// Append adds entries in order.
func (l *ChangeLog) Append(entries ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entries...)
}

// Entries returns a copy of all entries.
func (l *ChangeLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ChangeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
