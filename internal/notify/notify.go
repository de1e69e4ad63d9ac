// Package notify delivers change logs to people.
package notify

import (
	"context"
	"log/slog"
)

// Sink receives the change log of a run that changed something.
type Sink interface {
	Send(ctx context.Context, subject string, lines []string) error
}

// Log writes notifications through slog. It is used when e-mail is disabled
// so changes are still visible in one place.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log sink. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs the subject and each line.
func (l *Log) Send(ctx context.Context, subject string, lines []string) error {
	l.logger.InfoContext(ctx, subject, slog.Int("changes", len(lines)))
	for _, line := range lines {
		l.logger.InfoContext(ctx, line)
	}
	return nil
}
