package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/poll"
	"github.com/odysseus0/feedline/internal/render"
	"github.com/odysseus0/feedline/internal/ttrss"
)

func newWatchCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var interval time.Duration
	var once bool
	var feed string
	var markRead bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for unread headlines and print new ones as they arrive",
		Args:  cobra.NoArgs,
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
			if interval <= 0 {
				interval = app.cfg.PollInterval
			}

			return app.withSession(cmd.Context(), func(ctx context.Context, c *ttrss.Client) error {
				r := app.newReconciler(c)
				if _, err := r.Restore(ctx); err != nil {
					app.logger.Warn("restore pending reads", "err", err)
				}

				printer := &headlinePrinter{out: cmd.OutOrStdout(), format: getOutput()}
				var presenter poll.Presenter = poll.NewOnly(printer)
				if markRead {
					actions := poll.NewActions(r, app.opener)
					presenter = dismissAfter(presenter, actions)
				}

				loop, err := poll.New(poll.Config{
					Source:    c,
					Query:     q,
					Presenter: presenter,
					Flusher:   r,
					Interval:  interval,
					Logger:    app.logger,
				})
				if err != nil {
					return err
				}

				if once {
					cycle, err := loop.RunOnce(ctx)
					if err != nil {
						return err
					}
					if cycle.RenderErr != nil {
						return cycle.RenderErr
					}
					return cycle.FlushErr
				}

				app.logger.Info("watching", "feed", sel.String(), "interval", interval)
				err = loop.Run(ctx)
				if _, flushErr := flushOnExit(ctx, r); flushErr != nil {
					app.logger.Warn("final flush", "pending", r.Len(), "err", flushErr)
				}
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between polls (default from config, 60s)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")
	cmd.Flags().StringVar(&feed, "feed", "all", "Feed to watch: fresh, all, starred, published, or a feed id")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark printed headlines as read")
	return cmd
}

// headlinePrinter writes headlines as they are rendered by the poll loop.
type headlinePrinter struct {
	out    io.Writer
	format OutputFormat
}

func (p *headlinePrinter) Render(ctx context.Context, headlines []model.Headline) error {
	for _, h := range headlines {
		var err error
		switch p.format {
		case OutputJSON:
			// One object per line so the stream can be consumed incrementally.
			err = writeJSONLine(p.out, h)
		case OutputWide:
			_, err = fmt.Fprintf(p.out, "%s  <%s>\n", render.HeadlineLine(h), h.Link)
		default:
			_, err = fmt.Fprintln(p.out, render.HeadlineLine(h))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// dismissAfter marks every headline the wrapped presenter rendered.
func dismissAfter(p poll.Presenter, actions *poll.Actions) poll.Presenter {
	return poll.PresenterFunc(func(ctx context.Context, headlines []model.Headline) error {
		if err := p.Render(ctx, headlines); err != nil {
			return err
		}
		for _, h := range headlines {
			actions.Dismiss(ctx, h)
		}
		return nil
	})
}
