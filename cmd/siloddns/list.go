package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/siloddns/internal/reconciler"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list DOMAIN",
		Short: "List the records of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := reconciler.NormalizeDomain(args[0])
			sess, err := reconciler.NewSession(cmd.Context(), a.client.Domain(domain), domain, nil,
				reconciler.WithSessionLogger(a.logger))
			if err != nil {
				return err
			}

			records := sess.Records()
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tHOST\tTYPE\tVALUE\tTTL")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.RecordID, r.Host, r.Type, r.Value, r.TTL)
			}
			return w.Flush()
		},
	}
}
