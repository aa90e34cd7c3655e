// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the database and verifies the connection.
// SQLite connections are limited to one so writers never contend for the file lock.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite:
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}
