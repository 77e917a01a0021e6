package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Entities are never physically deleted;
// removal and completion are represented by flags.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'normal'
                  CHECK (status IN ('admin', 'normal', 'frozen', 'requestUnfreeze')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    owner_id    INTEGER NOT NULL REFERENCES users(id),
    holder_id   INTEGER NOT NULL REFERENCES users(id),
    visible     INTEGER NOT NULL DEFAULT 0,
    reserved    INTEGER NOT NULL DEFAULT 0,
    photo       BLOB,
    photo_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY,
    lender_id   INTEGER NOT NULL REFERENCES users(id),
    borrower_id INTEGER NOT NULL REFERENCES users(id),
    item_id     INTEGER NOT NULL REFERENCES items(id),
    complete    INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME,
    CHECK (lender_id != borrower_id)
);

CREATE TABLE IF NOT EXISTS meetings (
    id             INTEGER PRIMARY KEY,
    date           TEXT NOT NULL,
    location       TEXT NOT NULL,
    agreed         INTEGER NOT NULL DEFAULT 0,
    suggester_id   INTEGER NOT NULL REFERENCES users(id),
    second_meeting INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME
);

CREATE TABLE IF NOT EXISTS meeting_editions (
    meeting_id INTEGER NOT NULL REFERENCES meetings(id),
    user_id    INTEGER NOT NULL REFERENCES users(id),
    editions   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (meeting_id, user_id)
);

CREATE TABLE IF NOT EXISTS meeting_confirmations (
    meeting_id INTEGER NOT NULL REFERENCES meetings(id),
    user_id    INTEGER NOT NULL REFERENCES users(id),
    conducted  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (meeting_id, user_id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id          INTEGER PRIMARY KEY,
    trade_id    INTEGER NOT NULL REFERENCES trades(id),
    trade2_id   INTEGER REFERENCES trades(id),
    meeting_id  INTEGER NOT NULL REFERENCES meetings(id),
    meeting2_id INTEGER REFERENCES meetings(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS wishlists (
    user_id INTEGER NOT NULL REFERENCES users(id),
    item_id INTEGER NOT NULL REFERENCES items(id),
    PRIMARY KEY (user_id, item_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// defaults seeds the runtime-editable thresholds on first run.
// Each statement must be idempotent.
var defaults = []string{
	`INSERT OR IGNORE INTO settings (key, value) VALUES ('maxMeetingEdits', '3')`,
	`INSERT OR IGNORE INTO settings (key, value) VALUES ('maxIncompleteTransactions', '3')`,
	`INSERT OR IGNORE INTO settings (key, value) VALUES ('maxTransactionsPerWeek', '3')`,
	`INSERT OR IGNORE INTO settings (key, value) VALUES ('maxBorrowOverLend', '1')`,
}

// EnsureSchema creates the schema and seeds default settings.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, stmt := range defaults {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("seeding default %d: %w", i+1, err)
		}
	}

	return nil
}
