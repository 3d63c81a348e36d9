// Package storage persists player and photo records in SQLite or MySQL.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"wedding-journey/internal/models"
	"wedding-journey/internal/realtime"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

type dialect struct {
	driver          string
	migrationsDir   string
	migrationsTable string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver:          DriverSQLite,
		migrationsDir:   "migrations/sqlite",
		migrationsTable: `CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`,
	},
	DriverMySQL: {
		driver:          DriverMySQL,
		migrationsDir:   "migrations/mysql",
		migrationsTable: `CREATE TABLE IF NOT EXISTS schema_migrations (name VARCHAR(191) PRIMARY KEY, applied_at BIGINT NOT NULL)`,
	},
}

// Store keeps player and photo records in a SQL database. Every player write
// is announced on the realtime publisher.
type Store struct {
	db        *sql.DB
	dialect   dialect
	publisher realtime.Publisher
	now       func() time.Time
	log       zerolog.Logger
}

// SQLiteDSN builds the connection string for a database file
func SQLiteDSN(dbPath string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.ToSlash(dbPath))
}

// NewStore opens the database, applies pending migrations and returns the store.
// publisher may be nil.
func NewStore(ctx context.Context, driver, dsn string, publisher realtime.Publisher, log zerolog.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		if dbPath := sqlitePath(dsn); dbPath != "" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time keeps SQLite away from SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	s := &Store{
		db:        db,
		dialect:   d,
		publisher: publisher,
		now:       time.Now,
		log:       log.With().Str("component", "Store").Logger(),
	}

	if err := s.ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info().Str("driver", driver).Msg("Database ready")
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// ping waits for the database to accept connections
func (s *Store) ping(ctx context.Context) error {
	const maxRetries = 10

	var err error
	for i := 1; i <= maxRetries; i++ {
		if err = s.db.PingContext(ctx); err == nil {
			return nil
		}
		if s.dialect.driver == DriverSQLite {
			break
		}
		s.log.Warn().Err(err).Int("attempt", i).Msg("Waiting for database")

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to database: %w", ctx.Err())
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("failed to connect to database: %w", err)
}

// migrate applies every embedded migration of the dialect at most once
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := s.dialect.migrationsDir
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", name, err)
			}
		}

		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, s.now().UnixMilli()); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		s.log.Info().Str("migration", name).Msg("Applied migration")
	}
	return nil
}

// splitStatements splits a migration file on semicolons. Migrations must not
// contain semicolons inside literals.
func splitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// sqlitePath extracts the file path from a SQLite DSN
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" {
		return ""
	}
	return filepath.FromSlash(p)
}

func (s *Store) publish(ctx context.Context, id models.PlayerID, completed bool) {
	if s.publisher == nil {
		return
	}
	change := realtime.Change{PlayerID: id, QuizCompleted: completed, At: s.now()}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.log.Error().Err(err).Str("player", string(id)).Msg("Failed to publish player change")
	}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
