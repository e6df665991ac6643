package pipeline

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

func TestAutoRepairer_AttachesOrphanToPredecessor(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeLog, Label: "Orphan", Config: map[string]any{"message": "hi"}},
			{ID: "node-3", Type: models.NodeTypeLog, Label: "Tail", Config: map[string]any{"message": "bye"}},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-3"},
		},
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	conns := doc.Graph().Data.Connections
	require.Len(t, conns, 2)
	assert.Equal(t, "node-1", conns[0].From, "existing connection is left intact")
	assert.Equal(t, "node-3", conns[0].To)
	assert.Equal(t, "node-1", conns[1].From, "orphan attaches to its array predecessor")
	assert.Equal(t, "node-2", conns[1].To)
	assert.False(t, conns[1].Branched())

	// The repaired graph satisfies the full contract.
	defects := NewValidator(registry.Default(slog.Default())).Validate(doc)
	assert.Empty(t, defects)
}

func TestAutoRepairer_CompletesMissingBranches(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{
				ID: "node-2", Type: models.NodeTypeCondition, Label: "Check",
				Config: map[string]any{"condition": map[string]any{
					"left": "{{node-1.ip}}", "operator": "eq", "right": "blocked",
				}},
			},
			{ID: "node-3", Type: models.NodeTypeLog, Label: "Yes", Config: map[string]any{"message": "y"}},
			{ID: "node-4", Type: models.NodeTypeLog, Label: "No", Config: map[string]any{"message": "n"}},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	outgoing := doc.Graph().Data.OutgoingByNode()["node-2"]
	require.Len(t, outgoing, 2)
	assert.Equal(t, models.BranchTrue, outgoing[0].BranchLabel)
	assert.Equal(t, "node-3", outgoing[0].To, "true branch targets position index+1")
	assert.Equal(t, models.BranchFalse, outgoing[1].BranchLabel)
	assert.Equal(t, "node-4", outgoing[1].To, "false branch targets position index+2")
}

func TestAutoRepairer_CompletesOnlyTheMissingBranch(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeCondition, Label: "Check"},
			{ID: "node-3", Type: models.NodeTypeLog, Label: "Yes"},
			{ID: "node-4", Type: models.NodeTypeLog, Label: "No"},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
			{From: "node-2", To: "node-4", BranchLabel: models.BranchFalse},
		},
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	outgoing := doc.Graph().Data.OutgoingByNode()["node-2"]
	require.Len(t, outgoing, 2)

	trueCount := 0
	for _, conn := range outgoing {
		if conn.BranchLabel == models.BranchTrue {
			trueCount++
			assert.Equal(t, "node-3", conn.To)
		}
	}

	assert.Equal(t, 1, trueCount)
}

func TestAutoRepairer_SkipsSynthesisWithoutTarget(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeCondition, Label: "Check at end"},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	// No node exists at index+1 or index+2; the defect is left for the
	// validator instead of inventing a node.
	assert.Len(t, doc.Graph().Data.Connections, 1)

	defects := NewValidator(registry.Default(slog.Default())).Validate(doc)
	assert.NotEmpty(t, defects)
}

func TestAutoRepairer_OrphanedConditionGetsAttachedThenCompleted(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeCondition, Label: "Check"},
			{ID: "node-3", Type: models.NodeTypeLog, Label: "Yes"},
			{ID: "node-4", Type: models.NodeTypeLog, Label: "No"},
		},
		[]*models.Connection{
			{From: "node-2", To: "node-3", BranchLabel: models.BranchTrue},
			{From: "node-2", To: "node-4", BranchLabel: models.BranchFalse},
		},
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	data := &doc.Graph().Data
	assert.Equal(t, 1, data.IncomingCounts()["node-2"], "orphaned condition gets attached like any node")
	assert.Len(t, data.OutgoingByNode()["node-2"], 2, "complete branches are not duplicated")

	defects := NewValidator(registry.Default(slog.Default())).Validate(doc)
	for _, d := range defects {
		assert.NotContains(t, d, "Orphaned")
	}
}

func TestAutoRepairer_IgnoresStartNodes(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeLog, Label: "Leading log"},
			{ID: "node-2", Type: models.NodeTypeWebhook, Label: "Start"},
		},
		nil,
	)

	NewAutoRepairer(PositionalStrategy{}, slog.Default()).Apply(doc)

	// The start node never receives an incoming edge, and a non-start node
	// at index 0 has no predecessor to attach to.
	assert.Empty(t, doc.Graph().Data.Connections)
}
