package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/siloddns/internal/config"
	"gitlab.bluewillows.net/root/siloddns/internal/metrics"
	"gitlab.bluewillows.net/root/siloddns/internal/notify"
	"gitlab.bluewillows.net/root/siloddns/internal/publicip"
	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
	"gitlab.bluewillows.net/root/siloddns/providers/namesilo"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	configPath string

	cfg    *config.Config
	logger *slog.Logger
	client *namesilo.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "siloddns",
		Short: "Dynamic DNS for domains hosted at NameSilo",
		Long: `siloddns points the hosts declared for each configured domain at an
address, normally this machine's public IP, using the NameSilo API.

Configuration comes from an optional YAML or TOML file (--config or
SILODDNS_CONFIG) and SILODDNS_* environment variables.

Examples:
  siloddns update                       # discover the public IP and reconcile
  siloddns update --ip 203.0.113.7      # reconcile to a fixed address
  siloddns list example.com
  siloddns delete example.com --host www --type A
  siloddns serve --interval 10m`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsSetup(cmd) {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"path to a YAML or TOML config file (default $"+config.EnvConfigFile+")")

	cmd.AddCommand(newUpdateCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

// needsSetup reports whether cmd talks to NameSilo. Help and completion
// work without configuration.
func needsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

// setup loads configuration and builds the logger and API client.
func (a *app) setup(logOut io.Writer) error {
	path := a.configPath
	if path == "" {
		path = config.GetConfigFilePath()
	}

	cfg, err := config.LoadWithPath(path)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = setupLogger(logOut, cfg.Global.LogLevel, cfg.Global.LogFormat)
	slog.SetDefault(a.logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	a.logger.Debug("configuration loaded",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("config_file", path),
		slog.Any("config", cfg),
	)

	a.client, err = namesilo.NewClient(cfg.NameSilo, namesilo.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("creating namesilo client: %w", err)
	}
	return nil
}

// factory hands each domain a client bound to it.
func (a *app) factory() reconciler.APIFactory {
	return func(domain string) reconciler.API {
		return a.client.Domain(domain)
	}
}

func (a *app) newReconciler() *reconciler.Reconciler {
	return reconciler.New(
		reconciler.WithConfig(a.cfg.ReconcilerConfig()),
		reconciler.WithLogger(a.logger),
	)
}

// newRunner wires the reconciler, the configured domains and a notifier.
func (a *app) newRunner() (*reconciler.Runner, error) {
	sink, err := a.notifier()
	if err != nil {
		return nil, err
	}

	runner := reconciler.NewRunner(a.factory(), a.newReconciler(), a.cfg.RunnerConfig(),
		reconciler.WithRunnerLogger(a.logger),
		reconciler.WithNotifier(sink),
	)
	if err := runner.Validate(); err != nil {
		return nil, fmt.Errorf("domains: %w", err)
	}
	return runner, nil
}

// notifier returns the SendGrid sink when notification is enabled and a
// log sink otherwise.
func (a *app) notifier() (notify.Sink, error) {
	if !a.cfg.Notify.Enabled {
		return notify.NewLog(a.logger), nil
	}

	sg, err := notify.NewSendGrid(notify.SendGridConfig{
		APIKey: a.cfg.Notify.APIKey,
		From:   a.cfg.Notify.From,
		To:     a.cfg.Notify.To,
	}, notify.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("creating sendgrid notifier: %w", err)
	}
	return sg, nil
}

// resolveIP returns override when set, otherwise the discovered public IP.
func (a *app) resolveIP(ctx context.Context, lookup *publicip.Client, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	addr, err := lookup.Lookup(ctx)
	if err != nil {
		return "", fmt.Errorf("discovering public IP: %w", err)
	}
	a.logger.Info("public IP discovered",
		slog.String("ip", addr.String()),
		slog.String("source", lookup.Source()),
	)
	return addr.String(), nil
}

func (a *app) newLookup() (*publicip.Client, error) {
	lookup, err := publicip.New(a.cfg.Global.IPURL, publicip.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("public IP source: %w", err)
	}
	return lookup, nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
