// Package reconciler compares a domain's declared hosts with the records
// NameSilo currently serves and applies the updates, additions and deletions
// needed to converge them.
package reconciler

import (
	"fmt"
	"strings"
	"time"
)

// ActionType represents the type of reconciliation action.
type ActionType string

const (
	// ActionUpdate indicates an existing record's value was changed.
	ActionUpdate ActionType = "update"
	// ActionAdd indicates a record was created for a host that had none.
	ActionAdd ActionType = "add"
	// ActionDelete indicates a record was removed.
	ActionDelete ActionType = "delete"
	// ActionRefresh indicates a snapshot reload following a change.
	ActionRefresh ActionType = "refresh"
)

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	// StatusSuccess indicates the action completed successfully.
	StatusSuccess ActionStatus = "success"
	// StatusFailed indicates the action failed.
	StatusFailed ActionStatus = "failed"
)

// Action represents a single operation against one record.
type Action struct {
	Type   ActionType
	Status ActionStatus

	// Hostname is the fully-qualified host affected.
	Hostname string

	// RecordID is the provider id of the record (empty for adds).
	RecordID string

	RecordType RecordType

	// Value is the new value for updates and adds, the removed value for deletes.
	Value string

	// Previous is the value replaced by an update.
	Previous string

	// Error contains the error message if Status is StatusFailed.
	Error string

	// ErrorKind classifies Error.
	ErrorKind ErrorKind

	// DryRun indicates this action was not actually executed.
	DryRun bool
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	status := string(a.Status)
	if a.DryRun && a.Status == StatusSuccess {
		status = "dry-run"
	}

	if a.Error != "" {
		return fmt.Sprintf("[%s] %s %s %s %s: %s (%s)",
			status, a.Type, a.Hostname, a.RecordType, a.Value, a.Error, a.ErrorKind)
	}

	return fmt.Sprintf("[%s] %s %s %s %s", status, a.Type, a.Hostname, a.RecordType, a.Value)
}

// Change returns the change-log line for a successful action.
func (a Action) Change() string {
	switch a.Type {
	case ActionUpdate:
		return fmt.Sprintf("Updated %s %s from %s to %s", a.Hostname, a.RecordType, a.Previous, a.Value)
	case ActionAdd:
		return fmt.Sprintf("Added %s %s %s", a.Hostname, a.RecordType, a.Value)
	case ActionDelete:
		return fmt.Sprintf("Deleted %s %s %s", a.Hostname, a.RecordType, a.Value)
	default:
		return ""
	}
}

// Operation names the reconciler entry point that produced a Result.
type Operation string

const (
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Result holds the outcome of one operation on one domain.
type Result struct {
	Domain    string
	Operation Operation

	StartTime time.Time
	EndTime   time.Time

	// RecordType is the type the update targeted.
	RecordType RecordType

	// UpdatesRequired, AddsRequired and DeletesRequired count the planned
	// changes, whether or not they succeeded.
	UpdatesRequired int
	AddsRequired    int
	DeletesRequired int

	// Actions contains all actions taken (or planned in dry-run).
	Actions []Action

	// Changes holds change-log lines for confirmed successes only.
	Changes []string

	// Err is set when the domain could not be processed at all.
	Err error

	// DryRun indicates if this was a dry-run (no changes applied).
	DryRun bool
}

// NewResult creates a new Result with the start time set to now.
func NewResult(domain string, op Operation, dryRun bool) *Result {
	return &Result{
		Domain:    domain,
		Operation: op,
		StartTime: time.Now(),
		Actions:   make([]Action, 0),
		DryRun:    dryRun,
	}
}

// Complete marks the result as complete with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddAction records an action. Successful, executed changes are added to
// the change log.
func (r *Result) AddAction(action Action) {
	action.DryRun = r.DryRun
	r.Actions = append(r.Actions, action)

	if action.Status == StatusSuccess && !action.DryRun {
		if line := action.Change(); line != "" {
			r.Changes = append(r.Changes, line)
		}
	}
}

// Updated returns all successful update actions.
func (r *Result) Updated() []Action {
	return r.filterActions(ActionUpdate, StatusSuccess)
}

// Added returns all successful add actions.
func (r *Result) Added() []Action {
	return r.filterActions(ActionAdd, StatusSuccess)
}

// Deleted returns all successful delete actions.
func (r *Result) Deleted() []Action {
	return r.filterActions(ActionDelete, StatusSuccess)
}

// Failed returns all failed actions.
func (r *Result) Failed() []Action {
	var failed []Action
	for _, a := range r.Actions {
		if a.Status == StatusFailed {
			failed = append(failed, a)
		}
	}
	return failed
}

func (r *Result) filterActions(actionType ActionType, status ActionStatus) []Action {
	var filtered []Action
	for _, a := range r.Actions {
		if a.Type == actionType && a.Status == status {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// FailedCount returns the number of failed actions.
func (r *Result) FailedCount() int {
	return len(r.Failed())
}

// HasErrors returns true if the domain failed or any action failed.
func (r *Result) HasErrors() bool {
	return r.Err != nil || r.FailedCount() > 0
}

// SummaryLine states how many records needed changes and how many failed.
func (r *Result) SummaryLine() string {
	if r.Err != nil {
		return fmt.Sprintf("%s failed for %s: %v", r.Operation, r.Domain, r.Err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s complete for %s", r.Operation, r.Domain)
	if r.DryRun {
		b.WriteString(" (dry-run)")
	}
	switch r.Operation {
	case OperationDelete:
		fmt.Fprintf(&b, ": %d records required deletion, %d errors", r.DeletesRequired, r.FailedCount())
	default:
		fmt.Fprintf(&b, ": %d records required updates, %d hosts required adds, %d errors",
			r.UpdatesRequired, r.AddsRequired, r.FailedCount())
	}
	return b.String()
}

// Summary returns a multi-line human-readable summary.
func (r *Result) Summary() string {
	var sb strings.Builder

	sb.WriteString(r.SummaryLine())
	sb.WriteString("\n")
	if r.Err != nil {
		return sb.String()
	}

	fmt.Fprintf(&sb, "  Records updated: %d\n", len(r.Updated()))
	fmt.Fprintf(&sb, "  Records added: %d\n", len(r.Added()))
	fmt.Fprintf(&sb, "  Records deleted: %d\n", len(r.Deleted()))

	if failed := r.Failed(); len(failed) > 0 {
		fmt.Fprintf(&sb, "  Failed: %d\n", len(failed))
		for _, a := range failed {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}

	return sb.String()
}
