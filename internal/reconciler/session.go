package reconciler

import (
	"context"
	"log/slog"
)

// Session binds one domain, its declared hosts and its record store for the
// duration of a reconciliation run.
type Session struct {
	hosts *HostSpec
	api   API
	store *Store
}

// SessionOption is a functional option for configuring a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	logger *slog.Logger
}

// WithSessionLogger sets the logger used by the session's store.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// NewSession validates the domain and host labels, then loads the current
// records. A failed load returns an error and no session.
func NewSession(ctx context.Context, api API, domain string, labels []string, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	hosts, err := NewHostSpec(domain, labels)
	if err != nil {
		return nil, err
	}

	s := &Session{
		hosts: hosts,
		api:   api,
		store: NewStore(api, hosts.Domain(), o.logger),
	}

	if _, err := s.store.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Domain returns the session's domain.
func (s *Session) Domain() string {
	return s.hosts.Domain()
}

// Hosts returns the declared hosts.
func (s *Session) Hosts() *HostSpec {
	return s.hosts
}

// Records returns the current snapshot.
func (s *Session) Records() []ResourceRecord {
	return s.store.Records()
}

// Refresh reloads the snapshot from the provider.
func (s *Session) Refresh(ctx context.Context) ([]ResourceRecord, error) {
	return s.store.Refresh(ctx)
}
