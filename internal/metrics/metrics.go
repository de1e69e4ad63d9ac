// Package metrics provides Prometheus metrics for siloddns.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names use the siloddns_ prefix.
const (
	Namespace = "siloddns"
)

var (
	// BuildInfo exposes version information as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information for siloddns.",
	}, []string{"version", "go_version"})

	// RunsTotal counts reconciliation runs by outcome (success, partial, error).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total number of reconciliation runs by status.",
	}, []string{"status"})

	// RunDuration observes how long a full run over all domains took.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of reconciliation runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// LastRunTimestamp is the unix time of the last completed run.
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed reconciliation run.",
	})

	// RecordsUpdatedTotal counts successful record updates per domain.
	RecordsUpdatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_updated_total",
		Help:      "Total number of DNS records updated.",
	}, []string{"domain"})

	// RecordsAddedTotal counts successful record additions per domain.
	RecordsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_added_total",
		Help:      "Total number of DNS records added.",
	}, []string{"domain"})

	// RecordsDeletedTotal counts successful record deletions per domain.
	RecordsDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_deleted_total",
		Help:      "Total number of DNS records deleted.",
	}, []string{"domain"})

	// RecordsFailedTotal counts failed record operations per domain and operation.
	RecordsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "records_failed_total",
		Help:      "Total number of failed DNS record operations.",
	}, []string{"domain", "operation"})

	// Records is the size of the last refreshed snapshot per domain.
	Records = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "records",
		Help:      "Number of resource records in the last snapshot of a domain.",
	}, []string{"domain"})

	// APIRequestsTotal counts provider API calls by operation and result kind.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_requests_total",
		Help:      "Total number of NameSilo API requests.",
	}, []string{"operation", "result"})

	// APIDuration observes provider API latency per operation.
	APIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of NameSilo API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// PublicIPLookupsTotal counts public address lookups by result.
	PublicIPLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "public_ip_lookups_total",
		Help:      "Total number of public IP address lookups.",
	}, []string{"result"})

	// NotificationsTotal counts change notifications by result.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "notifications_total",
		Help:      "Total number of change notifications sent.",
	}, []string{"result"})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.Reset()
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
