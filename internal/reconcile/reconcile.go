// Package reconcile tracks articles the user has handled locally and pushes
// their read state to the server in batches.
package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Updater submits read-state changes. *ttrss.Client satisfies it.
type Updater interface {
	UpdateReadState(ctx context.Context, ids []int64, markUnread bool) (int, error)
}

// Journal persists pending ids across runs. *store.Journal satisfies it.
type Journal interface {
	AddPending(ctx context.Context, ids []int64) error
	RemovePending(ctx context.Context, ids []int64) error
	ListPending(ctx context.Context) ([]int64, error)
}

type FlushResult struct {
	Requested int
	Updated   int
}

// Partial reports whether the server changed fewer articles than requested.
// Articles that were already read count as not updated.
func (r FlushResult) Partial() bool {
	return r.Updated < r.Requested
}

type Options struct {
	Journal Journal
	Logger  *slog.Logger
	// OnFlush is called after every attempted flush that made a request.
	OnFlush func(ctx context.Context, res FlushResult, err error)
}

// Reconciler owns the pending read set. Marks are accepted concurrently with
// an in-flight flush; ids added after the snapshot land in the next flush.
type Reconciler struct {
	updater Updater
	journal Journal
	logger  *slog.Logger
	onFlush func(ctx context.Context, res FlushResult, err error)

	mu      sync.Mutex
	pending map[int64]struct{}
	order   []int64

	// journalMu pairs each in-memory change with its journal write. A flush
	// never snapshots an id whose journal write is still in flight.
	journalMu sync.Mutex
	flushMu   sync.Mutex
}

func New(updater Updater, opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		updater: updater,
		journal: opts.Journal,
		logger:  logger,
		onFlush: opts.OnFlush,
		pending: make(map[int64]struct{}),
	}
}

// MarkHandled queues id to be marked read. It reports whether id was newly
// added.
func (r *Reconciler) MarkHandled(ctx context.Context, id int64) bool {
	r.journalMu.Lock()
	defer r.journalMu.Unlock()
	if !r.add(id) {
		return false
	}
	if r.journal != nil {
		if err := r.journal.AddPending(ctx, []int64{id}); err != nil {
			r.logger.Warn("journal pending read", "id", id, "err", err)
		}
	}
	return true
}

func (r *Reconciler) add(id int64) bool {
	if id <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; ok {
		return false
	}
	r.pending[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

// Restore loads journaled ids into the pending set and returns how many were
// added.
func (r *Reconciler) Restore(ctx context.Context) (int, error) {
	if r.journal == nil {
		return 0, nil
	}
	ids, err := r.journal.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if r.add(id) {
			n++
		}
	}
	if n > 0 {
		r.logger.Info("restored pending reads", "count", n)
	}
	return n, nil
}

// Flush submits the current pending set. On success exactly the submitted ids
// are removed; on failure the set is left as it was.
func (r *Reconciler) Flush(ctx context.Context) (FlushResult, error) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.journalMu.Lock()
	snapshot := r.Pending()
	r.journalMu.Unlock()
	if len(snapshot) == 0 {
		return FlushResult{}, nil
	}

	res := FlushResult{Requested: len(snapshot)}
	updated, err := r.updater.UpdateReadState(ctx, snapshot, false)
	if err != nil {
		r.logger.Warn("flush pending reads", "count", len(snapshot), "err", err)
		r.notify(ctx, res, err)
		return res, err
	}
	res.Updated = updated

	r.journalMu.Lock()
	r.remove(snapshot)
	if r.journal != nil {
		if err := r.journal.RemovePending(ctx, snapshot); err != nil {
			r.logger.Warn("clear journaled reads", "count", len(snapshot), "err", err)
		}
	}
	r.journalMu.Unlock()
	if res.Partial() {
		r.logger.Info("server updated fewer articles than requested", "requested", res.Requested, "updated", res.Updated)
	} else {
		r.logger.Debug("flushed pending reads", "count", res.Updated)
	}
	r.notify(ctx, res, nil)
	return res, nil
}

func (r *Reconciler) notify(ctx context.Context, res FlushResult, err error) {
	if r.onFlush != nil {
		r.onFlush(ctx, res, err)
	}
}

func (r *Reconciler) remove(ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.pending, id)
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.pending[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

// Pending returns the queued ids in the order they were marked.
func (r *Reconciler) Pending() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

