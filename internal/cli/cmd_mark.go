package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/store"
	"github.com/odysseus0/feedline/internal/ttrss"
)

func newMarkCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var markUnread bool
	var star bool
	var unstar bool

	cmd := &cobra.Command{
		Use:   "mark <id>...",
		Short: "Mark articles read (or unread, starred, unstarred) right away",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			selected := 0
			for _, set := range []bool{markUnread, star, unstar} {
				if set {
					selected++
				}
			}
			if selected > 1 {
				return fmt.Errorf("%w: choose at most one of --unread, --star, --unstar", store.ErrInvalidInput)
			}

			return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				resp := MarkResponse{IDs: ids}
				switch {
				case star || unstar:
					n, err := c.SetStarred(ctx, ids, star)
					if err != nil {
						return err
					}
					resp.Updated = n
					resp.Starred = &star
				default:
					n, err := c.UpdateReadState(ctx, ids, markUnread)
					if err != nil {
						return err
					}
					resp.Updated = n
					resp.Unread = &markUnread
					// An explicit mark supersedes anything still queued.
					if err := app.journal.RemovePending(ctx, ids); err != nil {
						app.logger.Warn("clear journaled reads", "err", err)
					}
				}

				if getOutput() == OutputJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d of %d article(s).\n", resp.Updated, len(ids))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&markUnread, "unread", false, "Mark unread instead of read")
	cmd.Flags().BoolVar(&star, "star", false, "Star instead of changing read state")
	cmd.Flags().BoolVar(&unstar, "unstar", false, "Unstar instead of changing read state")
	return cmd
}
