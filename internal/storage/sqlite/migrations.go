package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    price INTEGER NOT NULL UNIQUE,
    cpu INTEGER NOT NULL,
    net INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    free INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS creditors (
    account TEXT PRIMARY KEY,
    active INTEGER NOT NULL DEFAULT 0,
    free INTEGER NOT NULL DEFAULT 0,
    free_memo TEXT NOT NULL DEFAULT '',
    balance INTEGER NOT NULL DEFAULT 0,
    cpu_staked INTEGER NOT NULL DEFAULT 0,
    net_staked INTEGER NOT NULL DEFAULT 0,
    cpu_unstaked INTEGER NOT NULL DEFAULT 0,
    net_unstaked INTEGER NOT NULL DEFAULT 0,
    uses_proxy INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS leases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    buyer TEXT NOT NULL,
    beneficiary TEXT NOT NULL,
    creditor TEXT NOT NULL,
    plan_id INTEGER NOT NULL,
    price INTEGER NOT NULL,
    cpu_staked INTEGER NOT NULL,
    net_staked INTEGER NOT NULL,
    free INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    expire_at INTEGER NOT NULL,
    FOREIGN KEY (plan_id) REFERENCES plans(id)
);

CREATE TABLE IF NOT EXISTS freelocks (
    beneficiary TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    expire_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dividends (
    account TEXT PRIMARY KEY,
    percentage INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS blacklist (
    account TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS whitelist (
    account TEXT PRIMARY KEY,
    capacity INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS operators (
    account TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leases_expire_at ON leases(expire_at);
CREATE INDEX IF NOT EXISTS idx_leases_buyer ON leases(buyer);
CREATE INDEX IF NOT EXISTS idx_leases_beneficiary ON leases(beneficiary);
CREATE INDEX IF NOT EXISTS idx_creditors_updated_at ON creditors(updated_at);
CREATE INDEX IF NOT EXISTS idx_freelocks_expire_at ON freelocks(expire_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
