package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/ttrss"
)

func newFlushCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Send read marks left over from an interrupted or offline run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			n, err := app.journal.CountPending(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				if getOutput() == OutputJSON {
					return writeJSON(cmd.OutOrStdout(), FlushResponse{})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to flush.")
				return nil
			}

			return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				r := app.newReconciler(c)
				restored, err := r.Restore(ctx)
				if err != nil {
					return err
				}
				res, err := r.Flush(ctx)
				if err != nil {
					return err
				}
				resp := FlushResponse{Restored: restored, Requested: res.Requested, Updated: res.Updated}
				if getOutput() == OutputJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Flushed %d pending mark(s); server updated %d.\n", resp.Requested, resp.Updated)
				return nil
			})
		},
	}
}
