package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// Store holds the current record snapshot of one domain.
type Store struct {
	api    API
	domain string
	logger *slog.Logger

	mu      sync.RWMutex
	records []ResourceRecord
}

// NewStore creates an empty store. Call Refresh to load records.
func NewStore(api API, domain string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		domain: domain,
		logger: logger,
	}
}

// Refresh lists the domain's records and replaces the snapshot. On any
// error the previous snapshot is kept.
func (s *Store) Refresh(ctx context.Context) ([]ResourceRecord, error) {
	s.logger.Debug("retrieving records", slog.String("domain", s.domain))

	resp, err := callAPI(ctx, s.api, namesilo.OpListRecords, nil)
	if err != nil {
		return nil, fmt.Errorf("listing records for %s: %w", s.domain, err)
	}

	records, err := parseRecords(resp)
	if err != nil {
		return nil, fmt.Errorf("parsing records for %s: %w", s.domain, err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	metrics.Records.WithLabelValues(s.domain).Set(float64(len(records)))

	s.logger.Info("records retrieved",
		slog.String("domain", s.domain),
		slog.Int("count", len(records)),
	)

	return s.Records(), nil
}

// Records returns a copy of the current snapshot in provider order.
func (s *Store) Records() []ResourceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ResourceRecord, len(s.records))
	copy(out, s.records)
	return out
}
