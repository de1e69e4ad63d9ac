package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

var (
	errDeleteAll         = errors.New("no filter given: pass --all to delete every record of the domain")
	errDeleteAllFiltered = errors.New("--all cannot be combined with --host, --value or --type")
)

func newDeleteCmd(a *app) *cobra.Command {
	var (
		host       string
		value      string
		recordType string
		all        bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "delete DOMAIN",
		Short: "Delete records matching a filter",
		Long: `Delete every record of DOMAIN matching all of the given filters.
Use --host @ for the bare domain. Deleting every record requires --all.

Examples:
  siloddns delete example.com --host home --type AAAA
  siloddns delete example.com --value 192.0.2.1
  siloddns delete example.com --all --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(
				cmd.Flags().Changed("host"), host,
				cmd.Flags().Changed("value"), value,
				recordType,
			)
			if err != nil {
				return err
			}
			if err := checkDeleteAll(filter, all); err != nil {
				return err
			}
			if dryRun {
				a.cfg.Global.DryRun = true
			}

			domain := reconciler.NormalizeDomain(args[0])
			sess, err := reconciler.NewSession(cmd.Context(), a.client.Domain(domain), domain, nil,
				reconciler.WithSessionLogger(a.logger))
			if err != nil {
				return err
			}

			res := a.newReconciler().Delete(cmd.Context(), sess, filter)
			fmt.Fprint(cmd.OutOrStdout(), res.Summary())
			if res.HasErrors() {
				return fmt.Errorf("%d deletions failed", res.FailedCount())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host label to match (@ for the bare domain)")
	cmd.Flags().StringVar(&value, "value", "", "record value to match")
	cmd.Flags().StringVar(&recordType, "type", "", "record type to match")
	cmd.Flags().BoolVar(&all, "all", false, "delete every record of the domain")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log matching records without deleting them")

	return cmd
}

// buildFilter sets only the components whose flags were given, so that an
// explicit empty value still filters.
func buildFilter(hostSet bool, host string, valueSet bool, value, recordType string) (reconciler.Filter, error) {
	var f reconciler.Filter
	if hostSet {
		f = f.WithHost(host)
	}
	if valueSet {
		f = f.WithValue(value)
	}
	if recordType != "" {
		t, err := reconciler.ParseRecordType(recordType)
		if err != nil {
			return f, err
		}
		f = f.WithType(t)
	}
	return f, nil
}

func checkDeleteAll(f reconciler.Filter, all bool) error {
	switch {
	case all && !f.IsEmpty():
		return errDeleteAllFiltered
	case !all && f.IsEmpty():
		return errDeleteAll
	}
	return nil
}
