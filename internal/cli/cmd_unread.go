package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/ttrss"
)

func newUnreadCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Print the number of unread articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				n, err := c.UnreadCount(ctx)
				if err != nil {
					return err
				}
				if getOutput() == OutputJSON {
					return writeJSON(cmd.OutOrStdout(), UnreadResponse{Unread: n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}
