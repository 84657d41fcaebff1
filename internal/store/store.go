package store

import (
	"database/sql"
	"strings"
)

// Store persists state that must outlive a single process: the pending-read
// journal and the flush history. Rows are scoped by account so one state file
// can serve several servers or users.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// AccountKey builds the scope key for an endpoint and user.
func AccountKey(endpoint, user string) string {
	return strings.TrimSpace(user) + "@" + strings.TrimSpace(endpoint)
}
