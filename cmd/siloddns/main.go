// siloddns keeps NameSilo DNS records pointed at this host's public address.
// It reconciles the hosts declared for each configured domain, optionally
// e-mails a change log, and can run as a long-lived service with health and
// metrics endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
