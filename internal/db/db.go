// Package db implements the SQLite-backed engine.Store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	embedsql "github.com/ldi/tasktree/embed/sql"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	onApply   func(ctx context.Context, cardID string)
	onApplyMu sync.RWMutex
}

// SetOnApply registers a hook invoked after every committed changeset,
// with the id of the mutated card. Used for best-effort auto-export.
func (db *DB) SetOnApply(fn func(ctx context.Context, cardID string)) {
	db.onApplyMu.Lock()
	defer db.onApplyMu.Unlock()
	db.onApply = fn
}

func (db *DB) triggerApply(ctx context.Context, cardID string) {
	db.onApplyMu.RLock()
	fn := db.onApply
	db.onApplyMu.RUnlock()

	if fn != nil {
		fn(ctx, cardID)
	}
}

// Open opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Foreign keys support
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite works best with a single writer.
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: sqlDB}, nil
}

func (db *DB) Migrate(ctx context.Context, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (db *DB) Init(ctx context.Context) error {
	return db.Migrate(ctx, embedsql.Schema)
}
