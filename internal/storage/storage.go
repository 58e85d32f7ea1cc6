// Package storage persists the recommendation log in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrDisabled = errors.New("storage disabled")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Open connects to the database for driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite3"
	case DriverPostgres:
		name = "postgres"
	case DriverNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer avoids "database is locked" under concurrent requests
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies pending migrations for driver and records them in
// schema_migrations. Files ending in _sqlite.sql replace the generic file
// of the same base name on SQLite and are ignored on PostgreSQL.
func Migrate(ctx context.Context, db DB, driver string) (applied []string, err error) {
	if err := ensureMigrationsTable(ctx, db, driver); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	files, err := migrationsFor(driver)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	done, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	for _, f := range files {
		version := migrationVersion(f)
		if done[version] {
			continue
		}

		data, err := migrationFiles.ReadFile("migrations/" + f)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("run migration %s: %w", f, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", f, err)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

func ensureMigrationsTable(ctx context.Context, db DB, driver string) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if driver == DriverSQLite {
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version TEXT PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`
	}
	_, err := db.ExecContext(ctx, query)
	return err
}

func appliedVersions(ctx context.Context, db DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func migrationsFor(driver string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}

	generic := make(map[string]string)
	sqlite := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, "_sqlite.sql"):
			sqlite[strings.TrimSuffix(name, "_sqlite.sql")] = name
		case strings.HasSuffix(name, ".sql"):
			generic[strings.TrimSuffix(name, ".sql")] = name
		}
	}

	var files []string
	for base, name := range generic {
		if alt, ok := sqlite[base]; ok && driver == DriverSQLite {
			name = alt
		}
		files = append(files, name)
	}
	if driver == DriverSQLite {
		for base, name := range sqlite {
			if _, ok := generic[base]; !ok {
				files = append(files, name)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func migrationVersion(file string) string {
	file = strings.TrimSuffix(file, ".sql")
	return strings.TrimSuffix(file, "_sqlite")
}
