package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrUnavailable marks storage failures the callers are expected to survive:
// the command handler degrades its reply, the poll loop waits for the next
// cycle.
var ErrUnavailable = errors.New("storage unavailable")

// Store is the sqlite-backed alert store. All mutations are single-statement
// (or single-transaction) so two concurrent callers racing on the same
// ticker never observe a half-applied record.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	createAlertsTable := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL UNIQUE,
		operator TEXT NOT NULL,
		target_price REAL NOT NULL,
		current_price REAL,
		notified INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err = db.Exec(createAlertsTable); err != nil {
		return nil, errors.Wrap(err, "failed to create alerts table")
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL PRIMARY KEY,
		metric_value REAL NOT NULL
	);`
	if _, err = db.Exec(createMetricsTable); err != nil {
		return nil, errors.Wrap(err, "failed to create metrics table")
	}

	log.Debug("Database initialized successfully.")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// unavailable wraps a driver error into the ErrUnavailable kind.
func unavailable(err error, msg string) error {
	return errors.Wrapf(ErrUnavailable, "%s: %v", msg, err)
}
