package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/siloddns/internal/publicip"
	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

func newUpdateCmd(a *app) *cobra.Command {
	var (
		ip         string
		recordType string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Point every configured host at an address",
		Long: `Reconcile every configured domain so that each declared host has a record
of the target type holding the address.

The address is discovered from the configured public IP source unless --ip
is given. Without --type, A or AAAA is inferred from the address; --type is
required for values that are not IP addresses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyRunFlags(a, recordType, dryRun); err != nil {
				return err
			}

			runner, err := a.newRunner()
			if err != nil {
				return err
			}

			var lookup *publicip.Client
			if ip == "" {
				if lookup, err = a.newLookup(); err != nil {
					return err
				}
			}
			value, err := a.resolveIP(cmd.Context(), lookup, ip)
			if err != nil {
				return err
			}

			res, err := runner.Run(cmd.Context(), value)
			if err != nil {
				return err
			}

			printRun(cmd.OutOrStdout(), res)
			if status := res.Status(); status != reconciler.RunSuccess {
				return fmt.Errorf("update finished with status %s", status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ip, "ip", "", "target value (default: discovered public IP)")
	cmd.Flags().StringVar(&recordType, "type", "", "record type to manage (default: inferred from the value)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log planned changes without applying them")

	return cmd
}

// applyRunFlags lets command flags override the loaded configuration.
func applyRunFlags(a *app, recordType string, dryRun bool) error {
	if recordType != "" {
		t, err := reconciler.ParseRecordType(recordType)
		if err != nil {
			return err
		}
		a.cfg.Global.RecordType = t
	}
	if dryRun {
		a.cfg.Global.DryRun = true
	}
	return nil
}

func printRun(w io.Writer, res *reconciler.RunResult) {
	for _, r := range res.Results {
		fmt.Fprint(w, r.Summary())
	}
	for _, line := range res.Changes {
		fmt.Fprintln(w, line)
	}
}
