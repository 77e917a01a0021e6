package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens a fresh in-memory database with the full schema applied
// and closes it when the test ends. The pool is pinned to a single
// connection: every additional pooled connection would otherwise see its
// own empty in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	database.SetMaxOpenConns(1)

	if err := EnsureSchema(database); err != nil {
		database.Close()
		t.Fatalf("applying test schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
