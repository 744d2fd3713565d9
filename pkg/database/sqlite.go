package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteConfig holds the settings for the on-device SQLite file.
type SQLiteConfig struct {
	Path        string        `env:"SESSION_SQLITE_PATH" envDefault:"salaahmanager.db"`
	BusyTimeout time.Duration `env:"SESSION_SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	JournalMode string        `env:"SESSION_SQLITE_JOURNAL_MODE" envDefault:"WAL"`
	Synchronous string        `env:"SESSION_SQLITE_SYNCHRONOUS" envDefault:"NORMAL"`

	// SlowQueryThreshold enables slow query warnings; zero disables them.
	SlowQueryThreshold time.Duration `env:"SESSION_SQLITE_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
}

// DefaultSQLiteConfig returns WAL-mode settings for the file at path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		Synchronous: "NORMAL",

		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// NewSQLiteDB opens (creating if needed) the SQLite database at cfg.Path and
// applies the pragmas. The pool is capped at one connection, so writes are
// serialised.
func NewSQLiteDB(ctx context.Context, cfg SQLiteConfig, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	return connectWithRetry(ctx, "sqlite", logger, func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)

		if err := configureSQLite(ctx, db, cfg); err != nil {
			db.Close()
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return db, nil
	})
}

func configureSQLite(ctx context.Context, db *sql.DB, cfg SQLiteConfig) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cfg.JournalMode)
	}
	if cfg.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+cfg.Synchronous)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
