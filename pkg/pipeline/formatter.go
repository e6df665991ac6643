package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/planweave/planweave/pkg/models"
)

const (
	defaultHTTPTimeout = 30

	// Layout defaults for nodes the planner left unplaced. Spacing is keyed
	// by array index so re-running the stage reproduces the same positions.
	layoutOriginX  = 100
	layoutSpacingX = 260
	layoutRowY     = 240
)

// checkTaskPrefixes marks task names that only read state. Everything else
// is categorized as an action.
var checkTaskPrefixes = []string{"list_", "get_", "check_", "query_", "fetch_", "read_", "describe_"}

// FormatNormalizer fills the type-specific defaults the execution engine
// requires but planner models routinely omit. It never changes graph
// topology, and apart from the export timestamp it is idempotent.
type FormatNormalizer struct {
	now func() time.Time
}

// NewFormatNormalizer creates the formatting stage.
func NewFormatNormalizer() *FormatNormalizer {
	return &FormatNormalizer{now: time.Now}
}

func (f *FormatNormalizer) Name() string { return "format_normalizer" }

// Apply normalizes the document envelope and every node and connection.
func (f *FormatNormalizer) Apply(doc *models.Document) {
	if doc.Version == "" {
		doc.Version = models.DocumentVersion
	}

	doc.ExportedAt = f.now().UTC().Format(time.RFC3339)

	if doc.Comments == nil {
		doc.Comments = map[string]any{}
	}

	for _, graph := range doc.Workflows {
		f.normalizeGraph(&graph.Data)
	}
}

func (f *FormatNormalizer) normalizeGraph(data *models.GraphData) {
	for i, node := range data.Nodes {
		f.normalizeNode(node, i)
	}

	for _, conn := range data.Connections {
		if conn.Branched() && conn.Condition == nil {
			conn.Condition = map[string]any{
				"format": "simple",
				"type":   "boolean",
				"value":  string(conn.BranchLabel),
			}
		}
	}
}

func (f *FormatNormalizer) normalizeNode(node *models.Node, index int) {
	if node.Position == nil {
		node.Position = &models.Position{
			X: layoutOriginX + layoutSpacingX*index,
			Y: layoutRowY,
		}
	}

	if node.Config == nil {
		node.Config = map[string]any{}
	}

	if node.Params == nil {
		node.Params = map[string]any{}
	}

	switch node.Type {
	case models.NodeTypeWebhook:
		setDefault(node.Config, "accept_json_only", true)
	case models.NodeTypeLog:
		setDefault(node.Config, "level", "info")
	case models.NodeTypeHTTP:
		setDefault(node.Config, "headers", map[string]any{})
		setDefault(node.Config, "body", map[string]any{})
		setDefault(node.Config, "query_params", map[string]any{})
		setDefault(node.Config, "timeout_seconds", defaultHTTPTimeout)
	case models.NodeTypeCondition:
		f.normalizeCondition(node)
	case models.NodeTypeIntegration:
		f.normalizeIntegration(node)
	}
}

func (f *FormatNormalizer) normalizeCondition(node *models.Node) {
	cond := node.Condition()
	if cond == nil {
		return
	}

	setDefault(cond, "format", "simple")
	setDefault(cond, "type", "simple")

	if right, ok := cond["right"]; ok {
		cond["right"] = quoteLiteral(right)
	}
}

func (f *FormatNormalizer) normalizeIntegration(node *models.Node) {
	node.Params["task_category"] = taskCategory(node.Task)

	// The engine reads the timeout as text.
	switch v := node.Params["timeout_seconds"].(type) {
	case int:
		node.Params["timeout_seconds"] = strconv.Itoa(v)
	case float64:
		node.Params["timeout_seconds"] = strconv.Itoa(int(v))
	}
}

func taskCategory(task string) string {
	for _, prefix := range checkTaskPrefixes {
		if strings.HasPrefix(task, prefix) {
			return "check"
		}
	}

	return "action"
}

// quoteLiteral wraps the right-hand comparison value in double quotes unless
// it is already quoted or is a template placeholder.
func quoteLiteral(value any) any {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}

	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s
	}

	if strings.Contains(s, "{{") {
		return s
	}

	return `"` + s + `"`
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
