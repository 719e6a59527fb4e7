package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phase TEXT NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	body BLOB NOT NULL,
	rooms INTEGER NOT NULL DEFAULT 0,
	doors INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS plans_fts USING fts5(plan_id UNINDEXED, name, phase);
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	ok INTEGER NOT NULL,
	rooms INTEGER NOT NULL,
	routed INTEGER NOT NULL,
	unreachable INTEGER NOT NULL,
	over_travel INTEGER NOT NULL,
	failing_doors INTEGER NOT NULL,
	longest_route REAL NOT NULL,
	max_travel REAL NOT NULL,
	inches_per_occupant REAL NOT NULL,
	report BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_plan_created ON runs(plan_id, created_at);
`

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled,
// and creates the schema if it is missing.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas are per connection, and ":memory:" is per connection too.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	d := &DB{conn: conn, Path: path}
	if err := d.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

// Migrate creates any missing tables.
func (d *DB) Migrate() error {
	if _, err := d.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
