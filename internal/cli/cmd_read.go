package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/odysseus0/feedline/internal/poll"
	"github.com/odysseus0/feedline/internal/reconcile"
	"github.com/odysseus0/feedline/internal/tui"
	"github.com/odysseus0/feedline/internal/ttrss"
)

// runReader is swapped in tests, where no terminal is available.
var runReader = func(cmd *cobra.Command, headlines []Headline, handler tui.Handler, opts tui.Options) (tui.Summary, error) {
	return tui.Run(cmd.Context(), headlines, handler, opts)
}

type readOptions struct {
	feed    string
	limit   int
	excerpt bool
}

func (o *readOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.feed, "feed", "fresh", "Feed to read: fresh, all, starred, published, recent, archived, or a feed id")
	fs.IntVar(&o.limit, "limit", 0, "Maximum headlines to fetch (default from config)")
	fs.BoolVar(&o.excerpt, "excerpt", false, "Show an excerpt under each headline")
}

func newReadCmd(getApp func() *App, getOutput func() OutputFormat, opts *readOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Step through unread headlines: n/space marks read, o opens, s skips, q quits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, getApp, getOutput, opts)
		},
	}
	opts.bind(cmd.Flags())
	return cmd
}

func runRead(cmd *cobra.Command, getApp func() *App, getOutput func() OutputFormat, opts *readOptions) error {
	app, err := requireApp(getApp)
	if err != nil {
		return err
	}
	feed, err := parseFeedFlag(opts.feed)
	if err != nil {
		return err
	}
	q := app.headlineQuery()
	q.Feed = feed
	if opts.limit != 0 {
		q.Limit = opts.limit
	}
	q.ShowExcerpt = opts.excerpt

	return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
		unread, err := c.UnreadCount(ctx)
		if err != nil {
			return err
		}
		if getOutput() != OutputJSON {
			fmt.Fprintln(cmd.ErrOrStderr(), "Unread articles:", unread)
		}

		r := app.newReconciler(c)
		if _, err := r.Restore(ctx); err != nil {
			app.logger.Warn("restore pending reads", "err", err)
		}

		headlines, err := c.ListHeadlines(ctx, q)
		if err != nil {
			return err
		}

		resp := ReadResponse{Unread: unread, Shown: len(headlines)}
		var readErr error
		if len(headlines) > 0 {
			actions := poll.NewActions(r, app.opener)
			var summary tui.Summary
			summary, readErr = runReader(cmd, headlines, actions, tui.Options{
				Unread:      unread,
				ShowExcerpt: opts.excerpt,
				Renderer:    app.renderer,
			})
			resp.Dismissed = summary.Dismissed
			resp.Opened = summary.Opened
			resp.Skipped = summary.Skipped
			resp.Quit = summary.Quit
		}

		// Decisions made before a reader failure are still flushed.
		res, flushErr := flushOnExit(ctx, r)
		resp.Flushed = res.Updated
		if readErr != nil {
			return readErr
		}
		if flushErr != nil {
			return fmt.Errorf("mark read: %w (%d ids kept for the next run)", flushErr, r.Len())
		}

		if getOutput() == OutputJSON {
			return writeJSON(cmd.OutOrStdout(), resp)
		}
		if resp.Shown == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No unread headlines.")
		}
		if resp.Flushed > 0 || resp.Skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d read, skipped %d.\n", resp.Flushed, resp.Skipped)
		}
		return nil
	})
}

// flushOnExit flushes even when ctx was cancelled by an interrupt.
func flushOnExit(ctx context.Context, r *reconcile.Reconciler) (reconcile.FlushResult, error) {
	return r.Flush(context.WithoutCancel(ctx))
}
