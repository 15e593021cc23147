package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. The four tables mirror the
// four top-level mappings of the ledger document; history keeps an
// autoincrement sequence so insertion order survives the round trip.
const schema = `
CREATE TABLE IF NOT EXISTS debts (
    creditor INTEGER NOT NULL,
    debtor INTEGER NOT NULL,
    amount INTEGER NOT NULL CHECK (amount > 0),
    PRIMARY KEY (creditor, debtor)
);

CREATE TABLE IF NOT EXISTS history (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    action TEXT NOT NULL,
    creditor INTEGER NOT NULL,
    debtor INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    timestamp TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id INTEGER PRIMARY KEY,
    transfer_enabled INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS log_channels (
    guild_id INTEGER PRIMARY KEY,
    channel_id INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_creditor ON history(creditor);
CREATE INDEX IF NOT EXISTS idx_history_debtor ON history(debtor);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
