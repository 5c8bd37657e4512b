package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

// LocalDB is the CLI's sqlite database holding timer state and cached data.
type LocalDB struct {
	*sql.DB
	path string
}

// OpenLocal opens (creating if needed) the sqlite database at path.
func OpenLocal(path string) (*LocalDB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &LocalDB{DB: sqlDB, path: path}
	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

func (db *LocalDB) Path() string {
	return db.path
}

func (db *LocalDB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (db *LocalDB) createSchema() error {
	_, err := db.ExecContext(context.Background(), `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}
