// Package pgstore provides the PostgreSQL-backed engine.Store, for
// deployments where the task trees live alongside the rest of the
// collaboration data.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
)

// PgStore is a PostgreSQL-backed task node store.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ engine.Store = (*PgStore)(nil)

// New creates a PgStore over an existing pool.
func New(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Connect opens a pool for the given DSN and verifies the connection.
func Connect(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the task_nodes table if it doesn't exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS task_nodes (
			id              TEXT PRIMARY KEY,
			card_id         TEXT NOT NULL,
			parent_id       TEXT REFERENCES task_nodes(id) ON DELETE CASCADE,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT 'todo',
			priority        TEXT NOT NULL DEFAULT 'medium',
			order_index     INTEGER NOT NULL DEFAULT 0,
			assignee        TEXT,
			estimated_hours DOUBLE PRECISION,
			actual_hours    DOUBLE PRECISION,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_nodes_card ON task_nodes (card_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_nodes_parent ON task_nodes (parent_id) WHERE parent_id IS NOT NULL`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure task_nodes schema: %w", err)
		}
	}
	return nil
}

const nodeColumns = `id, card_id, parent_id, title, description, status, priority,
	order_index, assignee, estimated_hours, actual_hours,
	created_at, updated_at, completed_at`

// GetNode retrieves a node by id. Returns (nil, nil) if absent.
func (s *PgStore) GetNode(ctx context.Context, id string) (*models.TaskNode, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+nodeColumns+` FROM task_nodes WHERE id = $1`, id)
	n, err := scanNode(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task node %s: %w", id, err)
	}
	return n, nil
}

// ListByCard returns every node owned by the card.
func (s *PgStore) ListByCard(ctx context.Context, cardID string) ([]*models.TaskNode, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+nodeColumns+` FROM task_nodes WHERE card_id = $1 ORDER BY created_at ASC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*models.TaskNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return nodes, nil
}

// Apply commits a changeset in one transaction.
func (s *PgStore) Apply(ctx context.Context, cs *engine.ChangeSet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range cs.Upserts {
		_, err := tx.Exec(ctx, `
			INSERT INTO task_nodes (`+nodeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				card_id = EXCLUDED.card_id,
				parent_id = EXCLUDED.parent_id,
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				status = EXCLUDED.status,
				priority = EXCLUDED.priority,
				order_index = EXCLUDED.order_index,
				assignee = EXCLUDED.assignee,
				estimated_hours = EXCLUDED.estimated_hours,
				actual_hours = EXCLUDED.actual_hours,
				updated_at = EXCLUDED.updated_at,
				completed_at = EXCLUDED.completed_at`,
			n.ID, n.CardID, n.ParentID, n.Title, n.Description, n.Status, n.Priority,
			n.OrderIndex, n.Assignee, n.EstimatedHours, n.ActualHours,
			n.CreatedAt, n.UpdatedAt, n.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert task node %s: %w", n.ID, err)
		}
	}
	for _, id := range cs.Deletes {
		if _, err := tx.Exec(ctx, `DELETE FROM task_nodes WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete task node %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanNode(row pgx.Row) (*models.TaskNode, error) {
	n := &models.TaskNode{}
	err := row.Scan(
		&n.ID, &n.CardID, &n.ParentID, &n.Title, &n.Description, &n.Status, &n.Priority,
		&n.OrderIndex, &n.Assignee, &n.EstimatedHours, &n.ActualHours,
		&n.CreatedAt, &n.UpdatedAt, &n.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}
