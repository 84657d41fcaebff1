// Package poll runs the fetch, render, flush cycle.
package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/reconcile"
)

const DefaultInterval = 60 * time.Second

type Source interface {
	ListHeadlines(ctx context.Context, q model.HeadlineQuery) ([]model.Headline, error)
}

type Presenter interface {
	Render(ctx context.Context, headlines []model.Headline) error
}

type Flusher interface {
	Flush(ctx context.Context) (reconcile.FlushResult, error)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, headlines []model.Headline) error

func (f PresenterFunc) Render(ctx context.Context, headlines []model.Headline) error {
	return f(ctx, headlines)
}

type Config struct {
	Source    Source
	Query     model.HeadlineQuery
	Presenter Presenter
	Flusher   Flusher
	Interval  time.Duration
	Logger    *slog.Logger
}

// Cycle describes one completed or abandoned pass.
type Cycle struct {
	StartedAt time.Time
	Headlines []model.Headline
	Flushed   reconcile.FlushResult
	RenderErr error
	FlushErr  error
}

type Loop struct {
	source    Source
	query     model.HeadlineQuery
	presenter Presenter
	flusher   Flusher
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config) (*Loop, error) {
	if cfg.Source == nil {
		return nil, errors.New("poll: source is required")
	}
	if cfg.Presenter == nil {
		return nil, errors.New("poll: presenter is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		source:    cfg.Source,
		query:     cfg.Query,
		presenter: cfg.Presenter,
		flusher:   cfg.Flusher,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (l *Loop) Interval() time.Duration {
	return l.interval
}

// RunOnce fetches, renders and flushes. A fetch error abandons the cycle and
// is returned. Render and flush errors are logged and reported on the Cycle;
// pending marks stay queued for the next flush.
func (l *Loop) RunOnce(ctx context.Context) (Cycle, error) {
	cycle := Cycle{StartedAt: l.now()}

	headlines, err := l.source.ListHeadlines(ctx, l.query)
	if err != nil {
		l.logger.Warn("fetch headlines", "err", err)
		return cycle, err
	}
	cycle.Headlines = headlines

	if err := l.presenter.Render(ctx, headlines); err != nil {
		l.logger.Warn("render headlines", "err", err)
		cycle.RenderErr = err
	}

	if l.flusher != nil {
		res, err := l.flusher.Flush(ctx)
		cycle.Flushed = res
		if err != nil {
			l.logger.Warn("flush read state", "pending", res.Requested, "err", err)
			cycle.FlushErr = err
		}
	}
	return cycle, nil
}

// Run executes a cycle immediately and then one per interval until ctx is
// done. The next cycle is scheduled only after the previous one returns, so
// cycles never overlap. Cycle errors are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if _, err := l.RunOnce(ctx); err != nil && ctx.Err() != nil {
			return nil
		}
		timer.Reset(l.interval)
	}
}
