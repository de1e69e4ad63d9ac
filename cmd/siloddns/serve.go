package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/siloddns/internal/health"
)

// staleAfter is how many intervals may pass without a completed run before
// the service reports itself not ready.
const staleAfter = 3

func newServeCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Reconcile periodically and serve health and metrics endpoints",
		Long: `Run an update immediately and then once per interval until interrupted.
/health, /ready and /metrics are served on the configured health port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Global.Interval
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			return a.serve(cmd.Context(), interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "time between updates (default from configuration)")

	return cmd
}

func (a *app) serve(ctx context.Context, interval time.Duration) error {
	runner, err := a.newRunner()
	if err != nil {
		return err
	}
	lookup, err := a.newLookup()
	if err != nil {
		return err
	}

	srv := health.New(a.cfg.Global.HealthPort, health.WithLogger(a.logger))
	srv.RegisterChecker("last_run", health.RunChecker(runner))
	srv.RegisterChecker("freshness", health.StalenessChecker(runner, staleAfter*interval, nil))
	srv.RegisterDegradedChecker("last_run", health.RunDegradedChecker(runner))

	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("health server shutdown error", slog.String("error", err.Error()))
		}
	}()

	a.logger.Info("siloddns serving",
		slog.String("version", Version),
		slog.Duration("interval", interval),
		slog.Int("domains", len(a.cfg.Domains)),
		slog.Int("health_port", a.cfg.Global.HealthPort),
	)

	update := func(ctx context.Context) {
		value, err := a.resolveIP(ctx, lookup, "")
		if err != nil {
			a.logger.Error("update skipped", slog.String("error", err.Error()))
			return
		}
		res, err := runner.Run(ctx, value)
		if err != nil {
			a.logger.Error("update failed", slog.String("error", err.Error()))
			return
		}
		a.logger.Info("update complete",
			slog.String("status", string(res.Status())),
			slog.Int("changes", len(res.Changes)),
			slog.Duration("duration", res.Duration()),
		)
	}

	runEvery(ctx, interval, update)

	a.logger.Info("siloddns shutdown complete")
	return nil
}

// runEvery calls fn immediately and then on every tick until ctx is done.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
