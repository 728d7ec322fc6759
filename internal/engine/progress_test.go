package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/internal/memstore"
	"github.com/ldi/tasktree/pkg/models"
)

func createWithEstimate(t *testing.T, eng *engine.Engine, parentID *string, title string, estimate float64) *models.TaskNode {
	t.Helper()
	node, err := eng.CreateTask(context.Background(), testCard, engine.CreateInput{
		Title:          title,
		ParentID:       parentID,
		EstimatedHours: &estimate,
	})
	require.NoError(t, err)
	return node
}

func TestProgressCounts(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	root := mustCreate(t, eng, nil, "root")
	done := mustCreate(t, eng, &root.ID, "done")
	mustCreate(t, eng, &root.ID, "open a")
	mustCreate(t, eng, &root.ID, "open b")
	_, err := eng.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	summary, err := eng.Progress(ctx, testCard)
	require.NoError(t, err)

	assert.Equal(t, testCard, summary.CardID)
	assert.Equal(t, 4, summary.Counts.Total)
	assert.Equal(t, 3, summary.Counts.Todo)
	assert.Equal(t, 1, summary.Counts.Completed)
	// 1 of 4 nodes, counted per node not per subtree.
	assert.InDelta(t, 25.0, summary.CompletionPercentage, 0.001)
}

func TestProgressRoundsToTwoDecimals(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	done := mustCreate(t, eng, nil, "one")
	mustCreate(t, eng, nil, "two")
	mustCreate(t, eng, nil, "three")
	_, err := eng.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	summary, err := eng.Progress(ctx, testCard)
	require.NoError(t, err)
	assert.InDelta(t, 33.33, summary.CompletionPercentage, 0.001)
}

func TestProgressEmptyCard(t *testing.T) {
	eng, _ := newTestEngine(t)

	summary, err := eng.Progress(context.Background(), "empty")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Counts.Total)
	assert.Zero(t, summary.CompletionPercentage)
	assert.Nil(t, summary.Hours.AccuracyPercentage)
}

func TestProgressHours(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	createWithEstimate(t, eng, nil, "estimated a", 4)
	createWithEstimate(t, eng, nil, "estimated b", 6)
	mustCreate(t, eng, nil, "unestimated")

	summary, err := eng.Progress(ctx, testCard)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, summary.Hours.EstimatedHours, 0.001)
	assert.Zero(t, summary.Hours.ActualHours)
	require.NotNil(t, summary.Hours.AccuracyPercentage)
	assert.Zero(t, *summary.Hours.AccuracyPercentage)
}

func TestProgressAccuracyAbsentWithoutEstimates(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustCreate(t, eng, nil, "no estimate")

	summary, err := eng.Progress(context.Background(), testCard)
	require.NoError(t, err)
	assert.Nil(t, summary.Hours.AccuracyPercentage)
}

// fixedLedger is a TimeLedger returning a static hours map.
type fixedLedger map[string]float64

func (l fixedLedger) ActualHours(ctx context.Context, cardID string) (map[string]float64, error) {
	return l, nil
}

func TestProgressOverlaysLedgerHours(t *testing.T) {
	ctx := context.Background()

	ledger := fixedLedger{}
	eng := engine.New(memstore.New(), engine.AllowAllCards{}, engine.WithTimeLedger(ledger))

	a := createWithEstimate(t, eng, nil, "a", 8)
	createWithEstimate(t, eng, nil, "b", 2)
	ledger[a.ID] = 5

	summary, err := eng.Progress(ctx, testCard)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, summary.Hours.EstimatedHours, 0.001)
	assert.InDelta(t, 5.0, summary.Hours.ActualHours, 0.001)
	require.NotNil(t, summary.Hours.AccuracyPercentage)
	assert.InDelta(t, 50.0, *summary.Hours.AccuracyPercentage, 0.001)
}

func TestSubtreeProgressExcludesTheNodeItself(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	root := mustCreate(t, eng, nil, "root")
	childDone := mustCreate(t, eng, &root.ID, "child done")
	childOpen := mustCreate(t, eng, &root.ID, "child open")
	mustCreate(t, eng, &childOpen.ID, "grandchild")
	_, err := eng.CompleteTask(ctx, childDone.ID)
	require.NoError(t, err)

	summary, err := eng.SubtreeProgress(ctx, root.ID)
	require.NoError(t, err)

	assert.Equal(t, root.ID, summary.NodeID)
	assert.Equal(t, 3, summary.Counts.Total, "root itself is excluded")
	assert.Equal(t, 1, summary.Counts.Completed)
}

func TestSubtreeProgressUnknownNode(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.SubtreeProgress(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
