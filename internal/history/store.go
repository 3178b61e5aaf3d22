// Package history persists completed scan reports to SQLite so later runs
// can pull a previous scan as the comparison baseline. It consumes the
// immutable report value and never feeds back into the scanning core.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// ErrNoScans is returned when the store holds no completed scan yet.
var ErrNoScans = errors.New("no completed scans in history")

// Store is a SQLite-backed archive of completed scans.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the history database at the given path and applies
// recommended pragmas for WAL mode and performance.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// modernc.org/sqlite requires SQL statements, not DSN params.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS scans (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		ended_at    TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		online      INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS host_records (
		scan_id         TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		network         TEXT NOT NULL,
		address         TEXT NOT NULL,
		reachable       INTEGER NOT NULL,
		hostname        TEXT NOT NULL DEFAULT '',
		pings_sent      INTEGER NOT NULL,
		pings_received  INTEGER NOT NULL,
		min_rtt_ms      REAL NOT NULL,
		max_rtt_ms      REAL NOT NULL,
		avg_rtt_ms      REAL NOT NULL,
		packet_loss_pct REAL NOT NULL,
		PRIMARY KEY (scan_id, network, address)
	);
	CREATE INDEX IF NOT EXISTS idx_host_records_scan ON host_records(scan_id);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply history schema: %w", err)
	}
	return nil
}

// tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *Store) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// timeFormat is how timestamps are stored; RFC3339 keeps them sortable.
const timeFormat = time.RFC3339Nano

// generateScanID returns a fresh scan identifier.
func generateScanID() string {
	return uuid.New().String()
}
