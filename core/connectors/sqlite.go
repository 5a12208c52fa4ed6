package connectors

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConnector implements the Connector interface for SQLite
type SQLiteConnector struct {
	sqlConnector
}

// NewSQLiteConnector opens (or creates) a local SQLite database.
// Accepts a plain path or a file: URI (e.g. in-memory databases).
func NewSQLiteConnector(dsn string) (*SQLiteConnector, error) {
	if dsn == "" {
		dsn = "tunestat.db"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// Pragmas for robustness.
	// journal_mode may not be supported in some contexts (e.g. in-memory); ignore errors.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign_keys: %w", err)
	}

	return &SQLiteConnector{sqlConnector{db: db}}, nil
}
