package pipeline

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

// messyCandidate resembles what planner models actually emit: inconsistent
// ids, placeholder variants, a missing edge, and an integration node with no
// identity fields.
func messyCandidate() *models.Document {
	return testDocument(
		[]*models.Node{
			{
				ID:    "start_node",
				Type:  models.NodeTypeWebhook,
				Label: "Security Alert Webhook",
			},
			{
				ID:    "Node 2",
				Type:  models.NodeTypeIntegration,
				Label: "Send alert email",
				Params: map[string]any{
					"to":      "ops@example.com",
					"subject": "Alert",
					"body":    "Offending IP: {{ $node_1.ip }}",
				},
			},
			{
				ID:     "node3",
				Type:   models.NodeTypeLog,
				Label:  "Record outcome",
				Config: map[string]any{"message": "sent"},
			},
		},
		[]*models.Connection{
			{From: "start_node", To: "Node 2"},
		},
	)
}

func TestPipeline_RepairsMessyCandidate(t *testing.T) {
	p := New(registry.Default(slog.Default()), slog.Default())

	result := p.Run(t.Context(), messyCandidate())

	require.True(t, result.Valid(), "defects: %v", result.Defects)
	assert.Equal(t, 3, result.NodeCount)
	assert.Equal(t, "workflow plan generated with 3 nodes", result.Message())

	data := &result.Document.Graph().Data

	assert.Equal(t, "node-1", data.Nodes[0].ID)
	assert.Equal(t, "node-2", data.Nodes[1].ID)
	assert.Equal(t, "node-3", data.Nodes[2].ID)

	assert.Equal(t, 48, data.Nodes[1].IntegrationID)
	assert.Equal(t, "send_email", data.Nodes[1].Task)
	assert.Equal(t, "Offending IP: {{node-1.ip}}", data.Nodes[1].Params["body"])
	assert.Equal(t, "300", data.Nodes[1].Params["timeout_seconds"])

	require.Len(t, data.Connections, 2, "the orphaned log node was attached")
	assert.Equal(t, "node-2", data.Connections[1].From)
	assert.Equal(t, "node-3", data.Connections[1].To)

	assert.NotEmpty(t, result.Document.ExportedAt)
	assert.Equal(t, models.DocumentVersion, result.Document.Version)
}

func TestPipeline_RejectsCycle(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeHTTP, Label: "A"},
			{ID: "node-3", Type: models.NodeTypeHTTP, Label: "B"},
			{ID: "node-4", Type: models.NodeTypeHTTP, Label: "C"},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
			{From: "node-2", To: "node-3"},
			{From: "node-3", To: "node-4"},
			{From: "node-4", To: "node-2"},
		},
	)

	p := New(registry.Default(slog.Default()), slog.Default())
	result := p.Run(t.Context(), doc)

	require.False(t, result.Valid())
	assert.Contains(t, result.Defects, "Circular dependency detected in workflow connections")
	assert.Equal(t, "workflow validation failed with 1 defects", result.Message())
}

func TestPipeline_IdempotentExceptTimestamp(t *testing.T) {
	p := New(registry.Default(slog.Default()), slog.Default())

	first := p.Run(t.Context(), messyCandidate())
	require.True(t, first.Valid())

	// Snapshot before the second run, which mutates the same document.
	first.Document.ExportedAt = ""
	a, err := json.Marshal(first.Document)
	require.NoError(t, err)

	second := p.Run(t.Context(), first.Document)
	require.True(t, second.Valid())

	second.Document.ExportedAt = ""
	b, err := json.Marshal(second.Document)
	require.NoError(t, err)

	assert.JSONEq(t, string(a), string(b))
}

func TestPipeline_CustomRepairStrategy(t *testing.T) {
	p := New(registry.Default(slog.Default()), slog.Default(),
		WithRepairStrategy(noRepairStrategy{}))

	result := p.Run(t.Context(), messyCandidate())

	require.False(t, result.Valid())
	assert.Contains(t, result.Defects, "node-3 (Record outcome): Orphaned node - no incoming connections")
}

// noRepairStrategy declines every repair, so defects reach the validator.
type noRepairStrategy struct{}

func (noRepairStrategy) Predecessor([]*models.Node, int) *models.Node { return nil }

func (noRepairStrategy) BranchTarget([]*models.Node, int, int) *models.Node { return nil }
