package connectors

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tunestat/tunestat/core/shared/errors"
)

// Result holds the outcome of a read query: the column order as
// reported by the driver and the rows mapped by column name.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Connector defines the interface for relational backends.
// Statements use '?' placeholders with positional args; each
// implementation adapts them to its driver's placeholder style.
type Connector interface {
	// Query executes a read statement and maps the rows.
	Query(ctx context.Context, statement string, args ...any) (*Result, error)

	// Exec executes a mutating statement and returns the affected row count.
	Exec(ctx context.Context, statement string, args ...any) (int64, error)

	// Migrate applies pending schema migrations.
	Migrate() error

	// MigrateDown rolls back the most recently applied migration.
	MigrateDown() error

	// Close closes the connector and releases resources
	Close() error
}

// Open creates a connector for the given DSN. The scheme selects the
// engine: postgres:// and postgresql:// use pgx, mysql:// uses the
// MySQL driver, anything else is treated as a SQLite path or file: URI.
func Open(dsn string) (Connector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresConnector(dsn)
	case strings.HasPrefix(dsn, "mysql://"):
		return NewMySQLConnector(strings.TrimPrefix(dsn, "mysql://"))
	default:
		return NewSQLiteConnector(dsn)
	}
}

// sqlConnector is the shared database/sql implementation. rebind, when
// set, rewrites '?' placeholders into the driver's positional style.
type sqlConnector struct {
	db     *sql.DB
	rebind func(string) string
}

func (c *sqlConnector) Query(ctx context.Context, statement string, args ...any) (*Result, error) {
	if c.rebind != nil {
		statement = c.rebind(statement)
	}

	rows, err := c.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "query execution failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "failed to get columns", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "failed to scan row", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			// Drivers hand back []byte for text columns
			if b, ok := val.([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = val
			}
		}
		result.Rows = append(result.Rows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "error iterating rows", err)
	}
	return result, nil
}

func (c *sqlConnector) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	if c.rebind != nil {
		statement = c.rebind(statement)
	}

	res, err := c.db.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConnectionFailed, "statement execution failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConnectionFailed, "failed to read affected rows", err)
	}
	return affected, nil
}

func (c *sqlConnector) Migrate() error {
	return c.applyMigrations()
}

func (c *sqlConnector) MigrateDown() error {
	return c.rollbackLastMigration()
}

func (c *sqlConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
