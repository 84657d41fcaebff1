package store

import (
	"context"
	"fmt"
	"time"
)

// PendingRead is one journaled article id waiting to be flushed.
type PendingRead struct {
	ArticleID int64
	QueuedAt  time.Time
}

// Journal is the pending-read journal for one account.
type Journal struct {
	store   *Store
	account string
}

func (s *Store) Journal(account string) *Journal {
	return &Journal{store: s, account: account}
}

func (j *Journal) Account() string {
	return j.account
}

// AddPending records ids; ids already journaled keep their original position.
func (j *Journal) AddPending(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return j.store.batchPending(ctx, j.account, ids,
		`INSERT INTO pending_reads(account, article_id, queued_at) VALUES (?, ?, ?)
		 ON CONFLICT(account, article_id) DO NOTHING`,
		true,
	)
}

// RemovePending drops exactly ids. Unknown ids are ignored.
func (j *Journal) RemovePending(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return j.store.batchPending(ctx, j.account, ids,
		`DELETE FROM pending_reads WHERE account = ? AND article_id = ?`,
		false,
	)
}

// ListPending returns journaled ids in the order they were first queued.
func (j *Journal) ListPending(ctx context.Context) ([]int64, error) {
	reads, err := j.ListPendingReads(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(reads))
	for i, r := range reads {
		out[i] = r.ArticleID
	}
	return out, nil
}

func (j *Journal) ListPendingReads(ctx context.Context) ([]PendingRead, error) {
	rows, err := j.store.db.QueryContext(ctx, `
		SELECT article_id, queued_at
		FROM pending_reads
		WHERE account = ?
		ORDER BY seq ASC
	`, j.account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PendingRead, 0)
	for rows.Next() {
		r, err := scanPendingRead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *Journal) CountPending(ctx context.Context) (int, error) {
	var n int
	err := j.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_reads WHERE account = ?`, j.account,
	).Scan(&n)
	return n, err
}

func scanPendingRead(scanner rowScanner) (PendingRead, error) {
	var r PendingRead
	var queuedAt string
	if err := scanner.Scan(&r.ArticleID, &queuedAt); err != nil {
		return PendingRead{}, err
	}
	if t, err := parseDBTime(queuedAt); err == nil {
		r.QueuedAt = t
	}
	return r, nil
}

func (s *Store) batchPending(ctx context.Context, account string, ids []int64, query string, withTime bool) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("article id %d: %w", id, ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range ids {
		args := []any{account, id}
		if withTime {
			args = append(args, now)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}
