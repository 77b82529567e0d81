// Package audit provides a write-only SQLite event log: logins,
// logouts, and settlement outcomes, recorded for operator forensics.
// It is never read back at process startup — spec.md's Non-goals rule
// out persistence of authoritative state, so the audit log captures
// only a history of what happened, not anything the running server
// reconstructs itself from (internal/config and internal/ledger remain
// the only things that matter to behavior after a restart, and neither
// reads this database).
//
// Grounded on the teacher's internal/storage/storage.go: WAL journal
// mode, a single-connection pool (SQLite permits exactly one writer),
// and schema-on-open via CREATE TABLE IF NOT EXISTS.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Log is the append-only audit database.
type Log struct {
	db *sql.DB
}

// Open creates (or reuses) <dataDir>/audit.db and ensures its schema
// exists.
func Open(dataDir string) (*Log, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Log{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return l, nil
}

func (l *Log) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS auth_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		occurred_at INTEGER NOT NULL,
		event TEXT NOT NULL,
		username TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settlement_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		occurred_at INTEGER NOT NULL,
		auction_id INTEGER NOT NULL,
		owner TEXT NOT NULL,
		buyer TEXT NOT NULL,
		price INTEGER NOT NULL,
		item TEXT NOT NULL,
		outcome TEXT NOT NULL
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// RecordLogin appends a login event.
func (l *Log) RecordLogin(username string) error {
	return l.recordAuth("login", username)
}

// RecordLogout appends a logout event.
func (l *Log) RecordLogout(username string) error {
	return l.recordAuth("logout", username)
}

func (l *Log) recordAuth(event, username string) error {
	_, err := l.db.Exec(
		`INSERT INTO auth_events (occurred_at, event, username) VALUES (?, ?, ?)`,
		time.Now().Unix(), event, username)
	return err
}

// SettlementOutcome is "sold" or "unsold", used as a label in both the
// audit log and internal/metrics.
type SettlementOutcome string

const (
	OutcomeSold   SettlementOutcome = "sold"
	OutcomeUnsold SettlementOutcome = "unsold"
)

// RecordSettlement appends one settlement outcome.
func (l *Log) RecordSettlement(auctionID uint64, owner, buyer string, price uint64, item string, outcome SettlementOutcome) error {
	_, err := l.db.Exec(
		`INSERT INTO settlement_events (occurred_at, auction_id, owner, buyer, price, item, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), auctionID, owner, buyer, price, item, string(outcome))
	return err
}
