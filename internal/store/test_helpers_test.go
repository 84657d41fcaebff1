package store

import (
	"path/filepath"
	"testing"
)

const testAccount = "reader@https://rss.example.com/api/"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewStore(db)
}
