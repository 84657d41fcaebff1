package store

import (
	"context"
	"database/sql"
	"time"
)

type FlushRecord struct {
	FlushedAt time.Time
	Requested int
	Updated   int
	Error     string
}

const maxFlushErrorLen = 500

// RecordFlush appends one flush attempt to the account's history.
func (s *Store) RecordFlush(ctx context.Context, account string, rec FlushRecord) error {
	if rec.FlushedAt.IsZero() {
		rec.FlushedAt = time.Now()
	}
	var errText any
	if rec.Error != "" {
		errText = truncate(rec.Error, maxFlushErrorLen)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flush_history(account, flushed_at, requested, updated, error)
		VALUES (?, ?, ?, ?, ?)
	`, account, timeToDBString(&rec.FlushedAt), rec.Requested, rec.Updated, errText)
	return err
}

// LastFlush returns the most recent flush attempt, or ErrNotFound.
func (s *Store) LastFlush(ctx context.Context, account string) (FlushRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT flushed_at, requested, updated, error
		FROM flush_history
		WHERE account = ?
		ORDER BY flushed_at DESC, id DESC
		LIMIT 1
	`, account)
	rec, err := scanFlushRecord(row)
	if err != nil {
		return FlushRecord{}, wrapNotFound("flush", err)
	}
	return rec, nil
}

// PruneFlushes keeps the newest keep records for account.
func (s *Store) PruneFlushes(ctx context.Context, account string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM flush_history
		WHERE account = ? AND id NOT IN (
			SELECT id FROM flush_history
			WHERE account = ?
			ORDER BY flushed_at DESC, id DESC
			LIMIT ?
		)
	`, account, account, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanFlushRecord(scanner rowScanner) (FlushRecord, error) {
	var rec FlushRecord
	var flushedAt string
	var errText sql.NullString
	if err := scanner.Scan(&flushedAt, &rec.Requested, &rec.Updated, &errText); err != nil {
		return FlushRecord{}, err
	}
	rec.Error = errText.String
	if t, err := parseDBTime(flushedAt); err == nil {
		rec.FlushedAt = t
	}
	return rec, nil
}
