package sqlite

import "database/sql"

// schema sets up the tables on startup. seq preserves insertion order so
// listings come back in retrieval order.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    email TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    amount INTEGER NOT NULL DEFAULT 0,
    date TEXT NOT NULL DEFAULT '',
    vat TEXT NOT NULL DEFAULT '',
    pct INTEGER NOT NULL DEFAULT 20,
    commentary TEXT NOT NULL DEFAULT '',
    file_url TEXT NOT NULL DEFAULT '',
    file_name TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    comment_admin TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bills_email ON bills(email);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
