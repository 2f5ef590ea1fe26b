package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by sqlx.Open
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is used when DATABASE_URL names no file
const DefaultSQLitePath = "todos.db"

// DB wraps the sqlx handle together with the driver it was opened with
type DB struct {
	*sqlx.DB
	driver string
}

// New opens the database at databaseURL and creates the schema if it is absent.
// postgres:// and postgresql:// URLs are served by lib/pq; anything else is a
// SQLite path, optionally prefixed with sqlite://.
func New(databaseURL string) (*DB, error) {
	driver, dsn := parseDatabaseURL(databaseURL)

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection serializes writers and keeps :memory: databases shared.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: conn, driver: driver}
	if err := db.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Driver returns the sqlx driver name
func (db *DB) Driver() string {
	return db.driver
}

// EnsureSchema creates the todos table and its indexes if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := sqliteSchema
	if db.driver == DriverPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func parseDatabaseURL(databaseURL string) (driver, dsn string) {
	u := strings.TrimSpace(databaseURL)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return DriverPostgres, u
	}

	path := strings.TrimPrefix(u, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	if path == "" {
		path = DefaultSQLitePath
	}

	// Store timestamps in the same text format SQLite's date functions use,
	// so due_date comparisons order correctly.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return DriverSQLite, path + sep + "_time_format=sqlite&_pragma=busy_timeout(5000)"
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT 'medium',
		category VARCHAR(50) NOT NULL DEFAULT 'general',
		due_date DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_category ON todos (category)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_completed_due ON todos (completed, due_date)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		priority TEXT NOT NULL DEFAULT 'medium',
		category VARCHAR(50) NOT NULL DEFAULT 'general',
		due_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_category ON todos (category)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_completed_due ON todos (completed, due_date)`,
}
