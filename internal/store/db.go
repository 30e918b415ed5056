package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
)

// DB is the handle to the index database.
type DB struct {
	db   *sql.DB
	path string
}

type options struct {
	busyTimeoutMS int
	cacheSizeKB   int
}

// Option customises Open behaviour.
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeoutMS = ms } }

// WithCacheSizeMB sets the SQLite page cache size. Default: 64MB.
func WithCacheSizeMB(mb int) Option { return func(o *options) { o.cacheSizeKB = mb * 1024 } }

// Open opens (creating if needed) the index database at path.
// Pass MemoryPath for an in-memory database with no backing file.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{busyTimeoutMS: 5000, cacheSizeKB: 64 * 1024}
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	memory := path == MemoryPath
	if !memory {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		path = abs
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory database alive and shared for
	// the handle's lifetime, and makes this handle a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite, so set pragmas directly.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = " + strconv.Itoa(o.busyTimeoutMS),
		"PRAGMA cache_size = -" + strconv.Itoa(o.cacheSizeKB),
		"PRAGMA temp_store = MEMORY",
	}
	if !memory {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s := &DB{db: db, path: path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Debug("index_db_opened",
		slog.String("path", path),
		slog.Bool("memory", memory))

	return s, nil
}

// OpenMemory opens an in-memory index database.
func OpenMemory() (*DB, error) {
	return Open(MemoryPath)
}

// Conn returns the underlying connection.
func (s *DB) Conn() *sql.DB {
	return s.db
}

// Path returns the absolute database path, or MemoryPath.
func (s *DB) Path() string {
	return s.path
}

// IsMemory reports whether the database has no backing file.
func (s *DB) IsMemory() bool {
	return s.path == MemoryPath
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on success.
func (s *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		path         TEXT NOT NULL UNIQUE,
		language     TEXT NOT NULL DEFAULT '',
		modified_at  INTEGER NOT NULL,
		indexed_at   INTEGER NOT NULL,
		content_hash TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS symbols (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id     INTEGER REFERENCES files(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		kind        TEXT NOT NULL,
		language    TEXT NOT NULL,
		start_line  INTEGER NOT NULL DEFAULT 0,
		end_line    INTEGER NOT NULL DEFAULT 0,
		signature   TEXT NOT NULL DEFAULT '',
		doc_comment TEXT NOT NULL DEFAULT '',
		is_builtin  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
	CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
	CREATE INDEX IF NOT EXISTS idx_symbols_builtin ON symbols(is_builtin, language);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (name, value) VALUES (?, ?)`,
		SettingSchemaVersion, strconv.Itoa(CurrentSchemaVersion))
	return err
}

// QuickCheck runs SQLite's quick_check and returns an error describing the
// first problem it reports.
func (s *DB) QuickCheck(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run quick_check: %w", err)
	}
	if result != "ok" {
		return symerrors.New(symerrors.ErrCodeCorruptIndex, "index database failed integrity check: "+result, nil).
			WithDetail("path", s.path).
			WithSuggestion("Delete the database file and run 'symdex reindex' to rebuild it")
	}
	return nil
}
