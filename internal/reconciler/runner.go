package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
)

// SubjectPrefix starts the subject of every change notification.
const SubjectPrefix = "DNS update notification, timestamped: "

// subjectTimeLayout renders the locale date and a 24-hour clock.
const subjectTimeLayout = "01/02/06 15:04:05"

// DomainConfig declares the hosts kept in sync for one domain.
type DomainConfig struct {
	Name string
	// Hosts are bare labels; "" or "@" is the bare domain.
	Hosts []string
}

// RunnerConfig holds runner configuration options.
type RunnerConfig struct {
	Domains []DomainConfig

	// RecordType forces the record type; empty infers it from the value.
	RecordType RecordType

	// Concurrency bounds how many domains are reconciled at once.
	Concurrency int
}

// Notifier receives the change log of a run that changed something.
type Notifier interface {
	Send(ctx context.Context, subject string, lines []string) error
}

// RunStatus summarizes a run for health reporting.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)

// RunResult holds the outcome of one Run across all domains.
type RunResult struct {
	Value      string
	RecordType RecordType

	// Results are in configuration order.
	Results []*Result

	// Changes is the merged change log, in configuration order.
	Changes []string

	Start time.Time
	End   time.Time

	// NotifyErr is set when the notification could not be delivered.
	NotifyErr error
}

// Status returns success when nothing failed, error when every domain
// failed outright, and partial otherwise.
func (r *RunResult) Status() RunStatus {
	if len(r.Results) == 0 {
		return RunSuccess
	}

	aborted, failed := 0, 0
	for _, res := range r.Results {
		if res.Err != nil {
			aborted++
		}
		if res.HasErrors() {
			failed++
		}
	}

	switch {
	case aborted == len(r.Results):
		return RunError
	case failed > 0:
		return RunPartial
	default:
		return RunSuccess
	}
}

// Duration returns the run's wall time.
func (r *RunResult) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Runner reconciles every configured domain against one target value.
type Runner struct {
	factory    APIFactory
	reconciler *Reconciler
	config     RunnerConfig
	logger     *slog.Logger
	notifier   Notifier
	now        func() time.Time

	mu   sync.RWMutex
	last *RunResult
}

// RunnerOption is a functional option for configuring the Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier sets the sink for change notifications.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithClock overrides the time source used for notification subjects.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner. A nil reconciler uses New().
func NewRunner(factory APIFactory, rec *Reconciler, cfg RunnerConfig, opts ...RunnerOption) *Runner {
	if rec == nil {
		rec = New()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	r := &Runner{
		factory:    factory,
		reconciler: rec,
		config:     cfg,
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run reconciles all domains against value. It returns an error only when
// the run could not start; per-domain failures are reported on the result.
func (r *Runner) Run(ctx context.Context, value string) (*RunResult, error) {
	recordType, value, err := resolveTarget(value, r.config.RecordType)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(string(RunError)).Inc()
		r.logger.Error("cannot determine record type",
			slog.String("value", value),
			slog.String("kind", KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	run := &RunResult{
		Value:      value,
		RecordType: recordType,
		Results:    make([]*Result, len(r.config.Domains)),
		Start:      time.Now(),
	}

	r.logger.Info("run starting",
		slog.String("value", value),
		slog.String("type", string(recordType)),
		slog.Int("domains", len(r.config.Domains)),
		slog.Int("concurrency", r.config.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i, dc := range r.config.Domains {
		g.Go(func() error {
			run.Results[i] = r.runDomain(gctx, dc, value, recordType)
			return nil
		})
	}
	_ = g.Wait()

	log := NewChangeLog()
	for _, res := range run.Results {
		log.Append(res.Changes...)
	}
	run.Changes = log.Entries()
	run.End = time.Now()

	status := run.Status()
	metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	metrics.RunDuration.Observe(run.Duration().Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()

	if len(run.Changes) > 0 && r.notifier != nil {
		run.NotifyErr = r.notify(ctx, run.Changes)
	}

	r.mu.Lock()
	r.last = run
	r.mu.Unlock()

	r.logger.Info("run complete",
		slog.String("status", string(status)),
		slog.Int("changes", len(run.Changes)),
		slog.Duration("duration", run.Duration()),
	)

	return run, nil
}

func (r *Runner) runDomain(ctx context.Context, dc DomainConfig, value string, recordType RecordType) *Result {
	sess, err := NewSession(ctx, r.factory(NormalizeDomain(dc.Name)), dc.Name, dc.Hosts,
		WithSessionLogger(r.logger))
	if err != nil {
		r.logger.Error("skipping domain",
			slog.String("domain", dc.Name),
			slog.String("kind", KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		res := NewResult(NormalizeDomain(dc.Name), OperationUpdate, r.reconciler.Config().DryRun)
		res.RecordType = recordType
		res.Err = err
		res.Complete()
		return res
	}

	res, err := r.reconciler.Update(ctx, sess, value, recordType)
	if err != nil {
		// The type was resolved up front, so this is not expected.
		res = NewResult(sess.Domain(), OperationUpdate, r.reconciler.Config().DryRun)
		res.Err = err
		res.Complete()
	}
	return res
}

func (r *Runner) notify(ctx context.Context, lines []string) error {
	subject := SubjectPrefix + r.now().Format(subjectTimeLayout)

	err := r.notifier.Send(ctx, subject, lines)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		r.logger.Error("failed to send notification", slog.String("error", err.Error()))
		return err
	}

	metrics.NotificationsTotal.WithLabelValues("success").Inc()
	r.logger.Info("notification sent", slog.Int("lines", len(lines)))
	return nil
}

// LastResult returns the most recent completed run, or nil.
func (r *Runner) LastResult() *RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// ErrNoDomains is returned by Validate when no domain is configured.
var ErrNoDomains = errors.New("no domains configured")

// Validate checks the runner's domain declarations without calling the API.
func (r *Runner) Validate() error {
	if len(r.config.Domains) == 0 {
		return ErrNoDomains
	}
	var errs []error
	for _, dc := range r.config.Domains {
		if _, err := NewHostSpec(dc.Name, dc.Hosts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
