package cli

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/odysseus0/feedline/internal/config"
	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/reconcile"
	"github.com/odysseus0/feedline/internal/render"
	"github.com/odysseus0/feedline/internal/store"
	"github.com/odysseus0/feedline/internal/ttrss"
)

const flushHistoryKeep = 100

type App struct {
	cfg       config.Config
	creds     model.Credentials
	logger    *slog.Logger
	transport *ttrss.HTTPTransport
	db        *sql.DB
	store     *store.Store
	journal   *store.Journal
	renderer  *render.Renderer
	opener    *commandOpener
}

func NewApp(cfg config.Config, creds model.Credentials, logger *slog.Logger) (*App, error) {
	creds.Endpoint = ttrss.NormalizeEndpoint(creds.Endpoint)

	db, err := store.OpenDB(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	s := store.NewStore(db)

	return &App{
		cfg:    cfg,
		creds:  creds,
		logger: logger,
		transport: ttrss.NewHTTPTransport(creds.Endpoint, ttrss.TransportOptions{
			Timeout:   cfg.HTTPTimeout,
			UserAgent: cfg.UserAgent,
		}),
		db:       db,
		store:    s,
		journal:  s.Journal(store.AccountKey(creds.Endpoint, creds.User)),
		renderer: render.NewRenderer(),
		opener:   newCommandOpener(cfg.OpenCommand),
	}, nil
}

// withSession runs fn inside a logged-in session that is always logged out
// afterwards.
func (a *App) withSession(ctx context.Context, fn func(ctx context.Context, c *ttrss.Client) error) error {
	return ttrss.WithSession(ctx, a.transport, a.creds, a.logger, fn)
}

// newReconciler builds a reconciler backed by the account's journal. Every
// flush attempt is recorded in the flush history.
func (a *App) newReconciler(c *ttrss.Client) *reconcile.Reconciler {
	return reconcile.New(c, reconcile.Options{
		Journal: a.journal,
		Logger:  a.logger,
		OnFlush: a.recordFlush,
	})
}

func (a *App) recordFlush(ctx context.Context, res reconcile.FlushResult, err error) {
	rec := store.FlushRecord{Requested: res.Requested, Updated: res.Updated}
	if err != nil {
		rec.Error = err.Error()
	}
	ctx = context.WithoutCancel(ctx)
	if err := a.store.RecordFlush(ctx, a.journal.Account(), rec); err != nil {
		a.logger.Warn("record flush", "err", err)
		return
	}
	if _, err := a.store.PruneFlushes(ctx, a.journal.Account(), flushHistoryKeep); err != nil {
		a.logger.Warn("prune flush history", "err", err)
	}
}

func (a *App) headlineQuery() model.HeadlineQuery {
	q := model.FreshUnread()
	q.Limit = a.cfg.Limit
	return q
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
