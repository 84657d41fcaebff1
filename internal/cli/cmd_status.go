package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/store"
	"github.com/odysseus0/feedline/internal/ttrss"
)

func newStatusCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the login, API level, unread count, and pending marks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			resp := StatusResponse{Endpoint: app.creds.Endpoint, User: app.creds.User}

			err = app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				level, err := c.APILevel(ctx)
				if err != nil {
					return err
				}
				resp.APILevel = level
				if resp.LoggedIn, err = c.CheckSession(ctx); err != nil {
					return err
				}
				resp.Unread, err = c.UnreadCount(ctx)
				return err
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if resp.Pending, err = app.journal.CountPending(ctx); err != nil {
				return err
			}
			last, err := app.store.LastFlush(ctx, app.journal.Account())
			switch {
			case err == nil:
				resp.LastFlush = &FlushSummary{
					FlushedAt: last.FlushedAt,
					Requested: last.Requested,
					Updated:   last.Updated,
					Error:     last.Error,
				}
			case !errors.Is(err, store.ErrNotFound):
				return err
			}

			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			writeStatusTable(cmd.OutOrStdout(), resp, time.Now())
			return nil
		},
	}
}
