package pipeline

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

func validGraphDocument() *models.Document {
	return testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{
				ID: "node-2", Type: models.NodeTypeCondition, Label: "Is blocked?",
				Config: map[string]any{"condition": map[string]any{
					"left": "{{node-1.ip}}", "operator": "eq", "right": `"blocked"`,
				}},
			},
			{ID: "node-3", Type: models.NodeTypeLog, Label: "Blocked", Config: map[string]any{"message": "y"}},
			{ID: "node-4", Type: models.NodeTypeLog, Label: "Clean", Config: map[string]any{"message": "n"}},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
			{From: "node-2", To: "node-3", BranchLabel: models.BranchTrue},
			{From: "node-2", To: "node-4", BranchLabel: models.BranchFalse},
		},
	)
}

func newValidator() *Validator {
	return NewValidator(registry.Default(slog.Default()))
}

func TestValidator_ValidGraph(t *testing.T) {
	assert.Empty(t, newValidator().Validate(validGraphDocument()))
}

func TestValidator_DuplicateIDs(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-1", Type: models.NodeTypeLog, Label: "Dup"},
		},
		[]*models.Connection{{From: "node-1", To: "node-1"}},
	)

	defects := newValidator().Validate(doc)
	require.NotEmpty(t, defects)
	assert.Equal(t, "Duplicate node IDs found: node-1", defects[0])
}

func TestValidator_DanglingEndpoints(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Connections = append(doc.Graph().Data.Connections,
		&models.Connection{From: "node-9", To: "node-3"},
		&models.Connection{From: "node-3", To: "node-99"},
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "Connection references non-existent source node: node-9")
	assert.Contains(t, defects, "Connection references non-existent target node: node-99")
}

func TestValidator_StartNodeRules(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeLog, Label: "Log"},
		},
		[]*models.Connection{
			{From: "node-2", To: "node-1"},
		},
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-1 (Start): Start node should have no incoming connections")
	assert.Contains(t, defects, "node-2 (Log): Orphaned node - no incoming connections")
}

func TestValidator_ExactlyOneStart(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "A"},
			{ID: "node-2", Type: models.NodeTypeTrigger, Label: "B"},
		},
		nil,
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "Workflow must have exactly one trigger node, found 2")
}

func TestValidator_ConditionBranchRules(t *testing.T) {
	doc := validGraphDocument()

	// Drop the false branch.
	doc.Graph().Data.Connections = doc.Graph().Data.Connections[:2]

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects,
		"node-2 (Is blocked?): Condition must have exactly 2 outgoing connections (true/false)")
}

func TestValidator_ConditionBranchLabelsMustDiffer(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Connections[2].BranchLabel = models.BranchTrue

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects,
		"node-2 (Is blocked?): Condition must have exactly 2 outgoing connections (true/false)")
}

func TestValidator_BranchLabelOnNonCondition(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Connections[0].BranchLabel = models.BranchTrue

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-1 (Start): Branch label 'true' on non-condition node")
}

func TestValidator_MissingRequiredParameters(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{
				ID: "node-2", Type: models.NodeTypeIntegration, Label: "Notify",
				IntegrationTypeName: "Email", Task: "send_email",
				Params: map[string]any{"subject": "x"},
			},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	defects := newValidator().Validate(doc)

	var paramDefects []string
	for _, d := range defects {
		if strings.Contains(d, "Missing required parameter") {
			paramDefects = append(paramDefects, d)
		}
	}

	require.Len(t, paramDefects, 2, "one defect per missing parameter")
	assert.Equal(t, "node-2 (Notify): Missing required parameter 'to' for Email.send_email", paramDefects[0])
	assert.Equal(t, "node-2 (Notify): Missing required parameter 'body' for Email.send_email", paramDefects[1])
}

func TestValidator_EmptyParameterValues(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{
				ID: "node-2", Type: models.NodeTypeIntegration, Label: "Notify",
				IntegrationTypeName: "Email", Task: "send_email",
				Params: map[string]any{"to": "", "subject": "x", "body": "y"},
			},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-2 (Notify): Missing required parameter 'to' for Email.send_email")
}

func TestValidator_UnknownFamilySkipped(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{
				ID: "node-2", Type: models.NodeTypeIntegration, Label: "Mystery",
				IntegrationTypeName: "Slack", Task: "post_message",
			},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	for _, d := range newValidator().Validate(doc) {
		assert.NotContains(t, d, "Missing required parameter")
	}
}

func TestValidator_InvalidOperator(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Nodes[1].Condition()["operator"] = "equals"

	defects := newValidator().Validate(doc)

	var operatorDefects []string
	for _, d := range defects {
		if strings.Contains(d, "Invalid operator") {
			operatorDefects = append(operatorDefects, d)
		}
	}

	require.Len(t, operatorDefects, 1)
	assert.Equal(t,
		"node-2 (Is blocked?): Invalid operator 'equals'. Must be one of: eq, ne, gt, lt, gte, lte, contains, not_contains",
		operatorDefects[0])
}

func TestValidator_MissingOperator(t *testing.T) {
	doc := validGraphDocument()
	delete(doc.Graph().Data.Nodes[1].Condition(), "operator")

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-2 (Is blocked?): Missing operator in condition")
}

func TestValidator_CycleRejectedNotRepaired(t *testing.T) {
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

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "Circular dependency detected in workflow connections")

	cycleDefects := 0
	for _, d := range defects {
		if strings.Contains(d, "Circular dependency") {
			cycleDefects++
		}
	}

	assert.Equal(t, 1, cycleDefects, "detection stops at the first cycle")
}

func TestValidator_DisconnectedCycleStillDetected(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Nodes = append(doc.Graph().Data.Nodes,
		&models.Node{ID: "node-5", Type: models.NodeTypeHTTP, Label: "X"},
		&models.Node{ID: "node-6", Type: models.NodeTypeHTTP, Label: "Y"},
	)
	doc.Graph().Data.Connections = append(doc.Graph().Data.Connections,
		&models.Connection{From: "node-5", To: "node-6"},
		&models.Connection{From: "node-6", To: "node-5"},
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "Circular dependency detected in workflow connections",
		"traversal covers every component, not just the start node's")
}

func TestValidator_UnsupportedNodeType(t *testing.T) {
	doc := validGraphDocument()
	doc.Graph().Data.Nodes[2].Type = models.NodeTypeScript

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-3 (Blocked): Unsupported node type 'script'")
}

func TestValidator_DeadEndDetection(t *testing.T) {
	doc := testDocument(
		[]*models.Node{
			{ID: "node-1", Type: models.NodeTypeWebhook, Label: "Start"},
			{ID: "node-2", Type: models.NodeTypeHTTP, Label: "Call"},
		},
		[]*models.Connection{
			{From: "node-1", To: "node-2"},
		},
	)

	defects := newValidator().Validate(doc)
	assert.Contains(t, defects, "node-2 (Call): Potential dead end - no outgoing connections")
}
