package connectors

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConnector implements the Connector interface for PostgreSQL
// using the pgx/v5 database/sql driver.
type PostgresConnector struct {
	sqlConnector
}

// NewPostgresConnector creates a new PostgreSQL connector
func NewPostgresConnector(connectionString string) (*PostgresConnector, error) {
	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &PostgresConnector{sqlConnector{db: db, rebind: rebindPositional}}, nil
}

// rebindPositional rewrites '?' placeholders into postgres-style $1..$n,
// leaving question marks inside single-quoted literals untouched.
func rebindPositional(statement string) string {
	var b strings.Builder
	b.Grow(len(statement) + 8)
	n := 0
	inLiteral := false
	for i := 0; i < len(statement); i++ {
		ch := statement[i]
		if ch == '\'' {
			inLiteral = !inLiteral
		}
		if ch == '?' && !inLiteral {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
