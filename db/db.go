package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query method
// works inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements every ledger query against a dbtx.
type Store struct {
	q dbtx
}

// DB represents the database connection
type DB struct {
	*sql.DB
	Store
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: conn, Store: Store{q: conn}}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL,
	access_token      TEXT NOT NULL,
	provider_item_id  TEXT NOT NULL UNIQUE,
	institution_id    TEXT NOT NULL DEFAULT '',
	institution_name  TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'active',
	sync_cursor       TEXT,
	last_synced_at    TIMESTAMP,
	created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL,
	name              TEXT NOT NULL,
	type              TEXT NOT NULL DEFAULT '',
	subtype           TEXT NOT NULL DEFAULT '',
	mask              TEXT NOT NULL DEFAULT '',
	currency          TEXT NOT NULL DEFAULT 'USD',
	balance           INTEGER NOT NULL DEFAULT 0,
	available_balance INTEGER,
	credit_limit      INTEGER,
	available_credit  INTEGER,
	sync_status       TEXT NOT NULL DEFAULT 'ok',
	last_sync_at      TIMESTAMP,
	last_sync_error   TEXT
);

CREATE TABLE IF NOT EXISTS account_links (
	connection_id       INTEGER NOT NULL REFERENCES connections(id),
	provider_account_id TEXT NOT NULL,
	account_id          INTEGER NOT NULL REFERENCES accounts(id),
	name                TEXT NOT NULL DEFAULT '',
	type                TEXT NOT NULL DEFAULT '',
	subtype             TEXT NOT NULL DEFAULT '',
	mask                TEXT NOT NULL DEFAULT '',
	UNIQUE(connection_id, provider_account_id)
);

CREATE TABLE IF NOT EXISTS categories (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  INTEGER NOT NULL,
	name     TEXT NOT NULL,
	name_key TEXT NOT NULL,
	kind     TEXT NOT NULL,
	UNIQUE(user_id, name_key, kind)
);

CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL,
	account_id  INTEGER NOT NULL REFERENCES accounts(id),
	external_id TEXT NOT NULL DEFAULT '',
	amount      INTEGER NOT NULL,
	currency    TEXT NOT NULL DEFAULT 'USD',
	date        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
	pending     BOOLEAN NOT NULL DEFAULT 0,
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transaction_mappings (
	user_id                 INTEGER NOT NULL,
	provider_transaction_id TEXT NOT NULL,
	provider_account_id     TEXT NOT NULL,
	transaction_id          INTEGER NOT NULL REFERENCES transactions(id),
	UNIQUE(user_id, provider_transaction_id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_external ON transactions(account_id, external_id);
CREATE INDEX IF NOT EXISTS idx_links_connection ON account_links(connection_id);
`

// Initialize creates the necessary tables if they don't exist
func (db *DB) Initialize() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Transact runs fn against a transaction-scoped store and commits when
// fn returns nil. Every write that must be atomic with its page (diff
// application plus the cursor checkpoint) goes through here.
func (db *DB) Transact(ctx context.Context, fn func(Querier) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
