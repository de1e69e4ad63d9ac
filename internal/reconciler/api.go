package reconciler

import (
	"context"
	"time"

	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// API is the provider surface the reconciler drives. It is satisfied by
// *namesilo.DomainClient.
type API interface {
	Execute(ctx context.Context, op namesilo.Operation, params map[string]string) (*namesilo.Response, error)
}

// APIFactory returns an API bound to the given domain.
type APIFactory func(domain string) API

// callAPI executes op and records request metrics.
func callAPI(ctx context.Context, api API, op namesilo.Operation, params map[string]string) (*namesilo.Response, error) {
	start := time.Now()
	resp, err := api.Execute(ctx, op, params)
	metrics.APIDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = KindOf(err).String()
	}
	metrics.APIRequestsTotal.WithLabelValues(string(op), result).Inc()

	return resp, err
}
