package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// goose keeps dialect and filesystem in package state
var gooseMu sync.Mutex

// UpPostgres applies the PostgreSQL migrations
func UpPostgres(db *sql.DB) error {
	return up(db, "postgres", "postgres", false)
}

// UpSQLite applies the SQLite migrations without logging
func UpSQLite(db *sql.DB) error {
	return up(db, "sqlite3", "sqlite", true)
}

func up(db *sql.DB, dialect, dir string, quiet bool) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if quiet {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", dialect, err)
	}
	return nil
}
