package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connection settings the service depends on: WAL keeps readers going
// while a custody transfer commits, foreign keys back the trade, meeting
// and transaction references, and the busy timeout lets racing
// confirmations wait for the lock instead of failing.
var pragmas = []string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
}

// Open opens the SQLite database at path and applies the connection pragmas.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec("PRAGMA " + pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %s: %w", pragma, err)
		}
	}

	return conn, nil
}
