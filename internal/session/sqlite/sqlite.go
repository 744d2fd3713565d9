package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smhassan90/salaahManager/pkg/database"
)

const schema = `CREATE TABLE IF NOT EXISTS session_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

const selectQuery = `SELECT value FROM session_kv WHERE key = ?`

const upsertQuery = `INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

const system = "sqlite"

// Backend implements session.Backend on a SQLite table.
type Backend struct {
	db *sql.DB
}

// New creates the session table if needed and returns a backend over db.
// The backend owns db and closes it on Close.
func New(ctx context.Context, db *sql.DB) (*Backend, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &Backend{db: db}, nil
}

// Get retrieves a value by key.
func (b *Backend) Get(ctx context.Context, key string) (v string, found bool, err error) {
	ctx, end := database.TraceQuery(ctx, system, "session.get", selectQuery)
	defer func() { end(err) }()

	err = b.db.QueryRowContext(ctx, selectQuery, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite get: %w", err)
	}
	return v, true, nil
}

// Set upserts a single value.
func (b *Backend) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := database.TraceQuery(ctx, system, "session.set", upsertQuery)
	defer func() { end(err) }()

	if _, err := b.db.ExecContext(ctx, upsertQuery, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// SetMany upserts every entry inside one transaction.
func (b *Backend) SetMany(ctx context.Context, kv map[string]string) (err error) {
	if len(kv) == 0 {
		return nil
	}
	ctx, end := database.TraceQuery(ctx, system, "session.set_many", upsertQuery)
	defer func() { end(err) }()

	now := time.Now().UnixMilli()
	return database.WithTx(ctx, b.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertQuery)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for k, v := range kv {
			if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
				return fmt.Errorf("sqlite set %s: %w", k, err)
			}
		}
		return nil
	})
}

// Remove deletes keys in one statement.
func (b *Backend) Remove(ctx context.Context, keys ...string) (err error) {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := `DELETE FROM session_kv WHERE key IN (` + placeholders + `)`
	ctx, end := database.TraceQuery(ctx, system, "session.remove", query)
	defer func() { end(err) }()

	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite remove: %w", err)
	}
	return nil
}

// DB returns the underlying database.
func (b *Backend) DB() *sql.DB {
	return b.db
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}
