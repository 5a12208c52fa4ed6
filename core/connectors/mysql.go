package connectors

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConnector implements the Connector interface for MySQL
type MySQLConnector struct {
	sqlConnector
}

// NewMySQLConnector creates a new MySQL connector. The connection
// string uses the driver's native DSN format
// (user:pass@tcp(host:port)/dbname).
func NewMySQLConnector(connectionString string) (*MySQLConnector, error) {
	db, err := sql.Open("mysql", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &MySQLConnector{sqlConnector{db: db}}, nil
}
