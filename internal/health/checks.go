package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

// ErrNoRun is reported until the first reconciliation run completes.
var ErrNoRun = errors.New("no reconciliation run has completed yet")

// RunSource exposes the most recent reconciliation run.
type RunSource interface {
	LastResult() *reconciler.RunResult
}

// RunChecker is healthy once a run has completed and not every domain
// failed outright.
func RunChecker(src RunSource) HealthChecker {
	return func(context.Context) error {
		last := src.LastResult()
		if last == nil {
			return ErrNoRun
		}
		if last.Status() == reconciler.RunError {
			return fmt.Errorf("last run failed for every domain (%s)", last.End.Format(time.RFC3339))
		}
		return nil
	}
}

// RunDegradedChecker reports partial failures and undelivered notifications
// of the last run.
func RunDegradedChecker(src RunSource) DegradedChecker {
	return func(context.Context) (bool, string) {
		last := src.LastResult()
		if last == nil {
			return false, ""
		}

		if last.Status() == reconciler.RunPartial {
			var failed []string
			for _, res := range last.Results {
				if res.HasErrors() {
					failed = append(failed, res.Domain)
				}
			}
			return true, fmt.Sprintf("last run had failures for %v", failed)
		}
		if last.NotifyErr != nil {
			return true, "notification failed: " + last.NotifyErr.Error()
		}
		return false, ""
	}
}

// StalenessChecker is unhealthy when no run has completed within maxAge.
// It tolerates the startup window before the first run.
func StalenessChecker(src RunSource, maxAge time.Duration, now func() time.Time) HealthChecker {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) error {
		last := src.LastResult()
		if last == nil {
			return nil
		}
		if age := now().Sub(last.End); age > maxAge {
			return fmt.Errorf("last run completed %s ago", age.Round(time.Second))
		}
		return nil
	}
}
