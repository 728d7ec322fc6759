package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ldi/tasktree/pkg/models"
)

// snapshotMeta is the first line of a card snapshot file.
type snapshotMeta struct {
	RecordType string    `json:"record_type"`
	CardID     string    `json:"card_id"`
	NodeCount  int       `json:"node_count"`
	ExportedAt time.Time `json:"exported_at"`
}

type snapshotNode struct {
	RecordType string `json:"record_type"`
	models.TaskNode
}

// ExportCard writes one card's tree to a JSONL file, atomically via a
// temporary file. Nodes are ordered parents before children so the file
// can be imported in a single pass.
func (db *DB) ExportCard(ctx context.Context, cardID, path string) error {
	nodes, err := db.ListByCard(ctx, cardID)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "card-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	meta := snapshotMeta{
		RecordType: "meta",
		CardID:     cardID,
		NodeCount:  len(nodes),
		ExportedAt: time.Now().UTC(),
	}
	if err := writeJSONLine(tempFile, meta); err != nil {
		return err
	}
	for _, n := range orderByDepth(nodes) {
		if err := writeJSONLine(tempFile, snapshotNode{RecordType: "task_node", TaskNode: *n}); err != nil {
			return err
		}
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ImportCard reads a card snapshot and inserts its tree under targetCardID
// (or the snapshot's own card id when empty). Every node receives a fresh
// id; parent references are remapped accordingly. Returns the card id the
// tree was imported into and the number of imported nodes.
func (db *DB) ImportCard(ctx context.Context, path, targetCardID string) (string, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	cardID := targetCardID
	var nodes []*models.TaskNode

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var base struct {
			RecordType string `json:"record_type"`
		}
		if err := json.Unmarshal(line, &base); err != nil {
			return "", 0, fmt.Errorf("failed to unmarshal base record: %w", err)
		}

		switch base.RecordType {
		case "meta":
			var meta snapshotMeta
			if err := json.Unmarshal(line, &meta); err != nil {
				return "", 0, fmt.Errorf("failed to unmarshal meta record: %w", err)
			}
			if cardID == "" {
				cardID = meta.CardID
			}
		case "task_node":
			var rec snapshotNode
			if err := json.Unmarshal(line, &rec); err != nil {
				return "", 0, fmt.Errorf("failed to unmarshal task node: %w", err)
			}
			n := rec.TaskNode
			nodes = append(nodes, &n)
		default:
			return "", 0, fmt.Errorf("unknown record type %q", base.RecordType)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, fmt.Errorf("scanner error: %w", err)
	}
	if cardID == "" {
		return "", 0, fmt.Errorf("snapshot has no meta record and no target card id was given")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Snapshot ids may collide with existing rows, so every node gets a
	// fresh id and parents are remapped through the translation table.
	idMap := make(map[string]string, len(nodes))
	for _, n := range nodes {
		idMap[n.ID] = uuid.New().String()
	}
	for _, n := range orderByDepth(nodes) {
		localID, ok := idMap[n.ID]
		if !ok {
			return "", 0, fmt.Errorf("node %s missing from id map", n.ID)
		}
		n.ID = localID
		n.CardID = cardID
		if n.ParentID != nil {
			parent, ok := idMap[*n.ParentID]
			if !ok {
				return "", 0, fmt.Errorf("parent %s not present in snapshot", *n.ParentID)
			}
			n.ParentID = &parent
		}
		if err := upsertNode(ctx, tx, n); err != nil {
			return "", 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", 0, err
	}

	db.triggerApply(ctx, cardID)
	return cardID, len(nodes), nil
}

// orderByDepth sorts nodes parents-first, then by order index, so inserts
// never reference a parent row that does not exist yet.
func orderByDepth(nodes []*models.TaskNode) []*models.TaskNode {
	byID := make(map[string]*models.TaskNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	depth := func(n *models.TaskNode) int {
		d := 0
		seen := make(map[string]struct{})
		for cur := n; cur.ParentID != nil; {
			if _, ok := seen[cur.ID]; ok {
				break
			}
			seen[cur.ID] = struct{}{}
			parent, ok := byID[*cur.ParentID]
			if !ok {
				break
			}
			d++
			cur = parent
		}
		return d
	}

	ordered := make([]*models.TaskNode, len(nodes))
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := depth(ordered[i]), depth(ordered[j])
		if di != dj {
			return di < dj
		}
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})
	return ordered
}

func writeJSONLine(f *os.File, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write snapshot line: %w", err)
	}
	return nil
}
