package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/ttrss"
)

func newHeadlinesCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var feed string
	var view string
	var limit int
	var skip int
	var excerpt bool
	var orderBy string

	cmd := &cobra.Command{
		Use:     "headlines",
		Aliases: []string{"ls"},
		Short:   "List headlines without changing their state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			sel, err := parseFeedFlag(feed)
			if err != nil {
				return err
			}
			q := app.headlineQuery()
			q.Feed = sel
			q.View = model.ViewMode(view)
			if limit != 0 {
				q.Limit = limit
			}
			q.Skip = skip
			q.OrderBy = orderBy
			format := getOutput()
			q.ShowExcerpt = excerpt || format == OutputWide
			// Validate before logging in.
			if _, err := ttrss.NormalizeQuery(q); err != nil {
				return err
			}

			return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				headlines, err := c.ListHeadlines(ctx, q)
				if err != nil {
					return err
				}
				switch format {
				case OutputJSON:
					return writeJSON(cmd.OutOrStdout(), headlines)
				case OutputWide:
					writeHeadlinesTable(cmd.OutOrStdout(), headlines, app.renderer, true)
				default:
					writeHeadlinesTable(cmd.OutOrStdout(), headlines, app.renderer, false)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&feed, "feed", "fresh", "Feed: fresh, all, starred, published, recent, archived, or a feed id")
	cmd.Flags().StringVar(&view, "view", string(model.ViewUnread), "View mode: all_articles, unread, adaptive, marked, updated")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum headlines (1-200, default from config)")
	cmd.Flags().IntVar(&skip, "skip", 0, "Headlines to skip, for paging")
	cmd.Flags().BoolVar(&excerpt, "excerpt", false, "Include excerpts")
	cmd.Flags().StringVar(&orderBy, "order", "", "Order: date_reverse (oldest first) or feed_dates")
	return cmd
}
