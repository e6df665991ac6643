package models

// NodeType identifies the behavior of a workflow node.
type NodeType string

const (
	NodeTypeWebhook     NodeType = "webhook"
	NodeTypeTrigger     NodeType = "trigger"
	NodeTypeCondition   NodeType = "condition"
	NodeTypeIntegration NodeType = "integration"
	NodeTypeLog         NodeType = "log"
	NodeTypeHTTP        NodeType = "http"

	// NodeTypeScript is emitted by some planner models but is not supported
	// by the execution engine. The schema enforcer demotes script nodes to
	// log nodes; the type must never appear in pipeline output.
	NodeTypeScript NodeType = "script"
)

// SupportedNodeTypes is the closed set of types the execution engine accepts.
var SupportedNodeTypes = []NodeType{
	NodeTypeWebhook,
	NodeTypeTrigger,
	NodeTypeCondition,
	NodeTypeIntegration,
	NodeTypeLog,
	NodeTypeHTTP,
}

// IsSupportedNodeType reports whether t is accepted by the execution engine.
func IsSupportedNodeType(t NodeType) bool {
	for _, supported := range SupportedNodeTypes {
		if t == supported {
			return true
		}
	}

	return false
}

// Position is the node's 2-D layout position in the visual editor.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is a single step in a workflow graph. The integration root fields
// (IntegrationID through RunAllTasks) are populated only for integration
// nodes; the schema enforcer strips them from everything else.
type Node struct {
	ID             string         `json:"id"                   validate:"required"`
	Type           NodeType       `json:"type"                 validate:"required"`
	Label          string         `json:"label"                validate:"required"`
	SequenceNumber int            `json:"nodeNumber,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
	Params         map[string]any `json:"params,omitempty"`
	Position       *Position      `json:"position,omitempty"`

	IntegrationID       int    `json:"integration_id,omitempty"`
	IntegrationTypeName string `json:"integration_type_name,omitempty"`
	Task                string `json:"task,omitempty"`
	TaskDisplayName     string `json:"task_display_name,omitempty"`
	ContinueOnError     *bool  `json:"continue_on_error,omitempty"`
	RunAllTasks         *bool  `json:"run_all_tasks,omitempty"`
}

// IsStart reports whether the node starts the workflow. Exactly one start
// node must exist per graph.
func (n *Node) IsStart() bool {
	return n.Type == NodeTypeWebhook || n.Type == NodeTypeTrigger
}

// Condition returns the comparison object of a condition node's config,
// or nil when absent or malformed.
func (n *Node) Condition() map[string]any {
	if n.Config == nil {
		return nil
	}

	cond, _ := n.Config["condition"].(map[string]any)

	return cond
}

// ConditionOperators is the fixed operator set condition nodes may use.
var ConditionOperators = []string{"eq", "ne", "gt", "lt", "gte", "lte", "contains", "not_contains"}

// IsConditionOperator reports whether op is in the legal operator set.
func IsConditionOperator(op string) bool {
	for _, legal := range ConditionOperators {
		if op == legal {
			return true
		}
	}

	return false
}
