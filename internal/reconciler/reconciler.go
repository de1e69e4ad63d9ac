package reconciler

import (
	"context"
	"log/slog"
	"strconv"

	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// DefaultTTL is the TTL, in seconds, sent with updated and added records.
const DefaultTTL = 3600

// Config holds reconciler configuration options.
type Config struct {
	// TTL is sent as rrttl on every update and add.
	TTL int

	// DryRun if true, logs planned changes without applying them.
	DryRun bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TTL:    DefaultTTL,
		DryRun: false,
	}
}

// Reconciler applies plans to a Session. Each phase is best effort: a failed
// operation is logged and counted, and the phase moves on to the next record.
type Reconciler struct {
	config Config
	logger *slog.Logger
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig sets the reconciler configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.config = cfg
	}
}

// New creates a new Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		config: DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Config returns the current reconciler configuration.
func (r *Reconciler) Config() Config {
	return r.config
}

// Update points every declared host of sess at value. When recordType is
// empty it is inferred from value; a value that is not an IP literal yields
// a *ClassificationError before any API call.
//
// Existing records of the type whose value differs are updated in provider
// order. Hosts without any record are then added, refreshing the snapshot
// after each successful add.
func (r *Reconciler) Update(ctx context.Context, sess *Session, value string, recordType RecordType) (*Result, error) {
	recordType, value, err := resolveTarget(value, recordType)
	if err != nil {
		r.logger.Error("cannot determine record type",
			slog.String("domain", sess.Domain()),
			slog.String("value", value),
			slog.String("kind", KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger := r.logger.With(slog.String("domain", sess.Domain()))
	logger.Info("update starting",
		slog.String("type", string(recordType)),
		slog.String("value", value),
		slog.Bool("dry_run", r.config.DryRun),
	)

	result := NewResult(sess.Domain(), OperationUpdate, r.config.DryRun)
	result.RecordType = recordType

	plan := ComputePlan(sess.Records(), sess.Hosts(), value, recordType)
	result.UpdatesRequired = len(plan.Updates)
	result.AddsRequired = len(plan.Adds)

	for _, rec := range plan.Updates {
		r.updateRecord(ctx, logger, sess, rec, plan, result)
	}

	if len(plan.Adds) > 0 {
		logger.Info("add required", slog.Any("hosts", plan.Adds))
	}
	for _, fqdn := range plan.Adds {
		r.addRecord(ctx, logger, sess, fqdn, plan, result)
	}

	result.Complete()
	logger.Info(result.SummaryLine(),
		slog.Int("updates_required", result.UpdatesRequired),
		slog.Int("adds_required", result.AddsRequired),
		slog.Int("failed", result.FailedCount()),
		slog.Duration("duration", result.Duration()),
	)

	return result, nil
}

func (r *Reconciler) updateRecord(ctx context.Context, logger *slog.Logger, sess *Session, rec ResourceRecord, plan Plan, result *Result) {
	label, _ := sess.Hosts().Label(rec.Host)

	action := Action{
		Type:       ActionUpdate,
		Hostname:   rec.Host,
		RecordID:   rec.RecordID,
		RecordType: plan.RecordType,
		Value:      plan.Value,
		Previous:   rec.Value,
	}

	if r.config.DryRun {
		action.Status = StatusSuccess
		logger.Info("would update record (dry-run)",
			slog.String("host", rec.Host),
			slog.String("record_id", rec.RecordID),
			slog.String("from", rec.Value),
			slog.String("to", plan.Value),
		)
		result.AddAction(action)
		return
	}

	logger.Info("updating record",
		slog.String("host", rec.Host),
		slog.String("type", string(plan.RecordType)),
		slog.String("from", rec.Value),
		slog.String("to", plan.Value),
	)

	_, err := callAPI(ctx, sess.api, namesilo.OpUpdateRecord, map[string]string{
		"rrid":    rec.RecordID,
		"rrhost":  label,
		"rrvalue": plan.Value,
		"rrttl":   strconv.Itoa(r.config.TTL),
	})
	if err != nil {
		r.fail(logger, result, action, err)
		return
	}

	action.Status = StatusSuccess
	result.AddAction(action)
	metrics.RecordsUpdatedTotal.WithLabelValues(sess.Domain()).Inc()
	logger.Info("record updated", slog.String("host", rec.Host))
}

func (r *Reconciler) addRecord(ctx context.Context, logger *slog.Logger, sess *Session, fqdn string, plan Plan, result *Result) {
	label, _ := sess.Hosts().Label(fqdn)

	action := Action{
		Type:       ActionAdd,
		Hostname:   fqdn,
		RecordType: plan.RecordType,
		Value:      plan.Value,
	}

	if r.config.DryRun {
		action.Status = StatusSuccess
		logger.Info("would add record (dry-run)",
			slog.String("host", fqdn),
			slog.String("type", string(plan.RecordType)),
			slog.String("value", plan.Value),
		)
		result.AddAction(action)
		return
	}

	resp, err := callAPI(ctx, sess.api, namesilo.OpAddRecord, map[string]string{
		"rrtype":  string(plan.RecordType),
		"rrhost":  label,
		"rrvalue": plan.Value,
		"rrttl":   strconv.Itoa(r.config.TTL),
	})
	if err != nil {
		r.fail(logger, result, action, err)
		return
	}

	action.Status = StatusSuccess
	action.RecordID = resp.RecordID
	result.AddAction(action)
	metrics.RecordsAddedTotal.WithLabelValues(sess.Domain()).Inc()
	logger.Info("record added",
		slog.String("host", fqdn),
		slog.String("type", string(plan.RecordType)),
		slog.String("value", plan.Value),
	)

	// Later operations in this run must see the new record.
	if _, err := sess.Refresh(ctx); err != nil {
		r.fail(logger, result, Action{
			Type:     ActionRefresh,
			Hostname: sess.Domain(),
		}, err)
	}
}

// Delete removes every record of sess matching filter. An empty filter
// selects all records of the domain. The snapshot is refreshed once at the
// end unless running dry.
func (r *Reconciler) Delete(ctx context.Context, sess *Session, filter Filter) *Result {
	logger := r.logger.With(slog.String("domain", sess.Domain()))
	logger.Info("delete starting",
		slog.String("filter", filter.String()),
		slog.Bool("dry_run", r.config.DryRun),
	)

	result := NewResult(sess.Domain(), OperationDelete, r.config.DryRun)

	matches := filter.Select(sess.Records(), sess.Domain())
	result.DeletesRequired = len(matches)

	for _, rec := range matches {
		action := Action{
			Type:       ActionDelete,
			Hostname:   rec.Host,
			RecordID:   rec.RecordID,
			RecordType: rec.Type,
			Value:      rec.Value,
		}

		if r.config.DryRun {
			action.Status = StatusSuccess
			logger.Info("would delete record (dry-run)", slog.String("record", rec.String()))
			result.AddAction(action)
			continue
		}

		_, err := callAPI(ctx, sess.api, namesilo.OpDeleteRecord, map[string]string{
			"rrid": rec.RecordID,
		})
		if err != nil {
			r.fail(logger, result, action, err)
			continue
		}

		action.Status = StatusSuccess
		result.AddAction(action)
		metrics.RecordsDeletedTotal.WithLabelValues(sess.Domain()).Inc()
		logger.Info("record deleted", slog.String("record", rec.String()))
	}

	if !r.config.DryRun {
		if _, err := sess.Refresh(ctx); err != nil {
			r.fail(logger, result, Action{
				Type:     ActionRefresh,
				Hostname: sess.Domain(),
			}, err)
		}
	}

	result.Complete()
	logger.Info(result.SummaryLine(),
		slog.Int("deletes_required", result.DeletesRequired),
		slog.Int("failed", result.FailedCount()),
		slog.Duration("duration", result.Duration()),
	)

	return result
}

// fail records a failed action, logs it and counts it.
func (r *Reconciler) fail(logger *slog.Logger, result *Result, action Action, err error) {
	kind := KindOf(err)

	action.Status = StatusFailed
	action.Error = err.Error()
	action.ErrorKind = kind
	result.AddAction(action)

	metrics.RecordsFailedTotal.WithLabelValues(result.Domain, string(action.Type)).Inc()

	logger.Error("failed to "+string(action.Type)+" record",
		slog.String("host", action.Hostname),
		slog.String("record_id", action.RecordID),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
}
