package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
)

var _ engine.Store = (*DB)(nil)

const nodeColumns = `id, card_id, parent_id, title, description, status, priority,
       order_index, assignee, estimated_hours, actual_hours,
       created_at, updated_at, completed_at`

// GetNode retrieves a node by its ID. Returns (nil, nil) if absent.
func (db *DB) GetNode(ctx context.Context, id string) (*models.TaskNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM task_nodes WHERE id = ?`
	n, err := scanNode(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task node: %w", err)
	}
	return n, nil
}

// ListByCard returns every node owned by the card.
func (db *DB) ListByCard(ctx context.Context, cardID string) ([]*models.TaskNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM task_nodes WHERE card_id = ? ORDER BY created_at ASC`
	return db.queryNodes(ctx, query, cardID)
}

// ListChildren returns the direct children of a node, in sibling order.
func (db *DB) ListChildren(ctx context.Context, parentID string) ([]*models.TaskNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM task_nodes WHERE parent_id = ? ORDER BY order_index ASC`
	return db.queryNodes(ctx, query, parentID)
}

// ListCards returns the distinct card ids that have at least one node.
func (db *DB) ListCards(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT card_id FROM task_nodes ORDER BY card_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		cards = append(cards, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cards, nil
}

// Apply commits a changeset in a single transaction.
func (db *DB) Apply(ctx context.Context, cs *engine.ChangeSet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range cs.Upserts {
		if err := upsertNode(ctx, tx, n); err != nil {
			return err
		}
	}
	for _, id := range cs.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_nodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete task node %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.triggerApply(ctx, cs.CardID)
	return nil
}

func upsertNode(ctx context.Context, tx *sql.Tx, n *models.TaskNode) error {
	query := `
		INSERT INTO task_nodes (` + nodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			card_id = excluded.card_id,
			parent_id = excluded.parent_id,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			order_index = excluded.order_index,
			assignee = excluded.assignee,
			estimated_hours = excluded.estimated_hours,
			actual_hours = excluded.actual_hours,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`
	_, err := tx.ExecContext(ctx, query,
		n.ID, n.CardID, n.ParentID, n.Title, n.Description, n.Status, n.Priority,
		n.OrderIndex, n.Assignee, n.EstimatedHours, n.ActualHours,
		n.CreatedAt, n.UpdatedAt, n.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task node %s: %w", n.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.TaskNode, error) {
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

func (db *DB) queryNodes(ctx context.Context, query string, args ...any) ([]*models.TaskNode, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*models.TaskNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return nodes, nil
}
