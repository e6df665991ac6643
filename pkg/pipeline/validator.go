package pipeline

import (
	"fmt"
	"strings"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

// Validator is the final read-only gate. It checks the repaired document
// against the execution engine's structural contract and returns every
// residual defect as a human-readable string naming the offending node or
// connection. Checks run in a fixed order so defect lists are stable and
// reproducible. The validator never mutates the document.
type Validator struct {
	registry *registry.Registry
}

// NewValidator creates a validator over the given integration registry.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate returns the full defect list for the document. An empty list
// means every invariant holds.
func (v *Validator) Validate(doc *models.Document) []string {
	var defects []string

	for _, graph := range doc.Workflows {
		defects = append(defects, v.validateGraph(&graph.Data)...)
	}

	return defects
}

func (v *Validator) validateGraph(data *models.GraphData) []string {
	var defects []string

	defects = append(defects, checkDuplicateIDs(data)...)
	defects = append(defects, checkEndpoints(data)...)
	defects = append(defects, checkConnectivity(data)...)
	defects = append(defects, v.checkIntegrationParams(data)...)
	defects = append(defects, checkConditionOperators(data)...)
	defects = append(defects, checkCycles(data)...)

	return defects
}

func checkDuplicateIDs(data *models.GraphData) []string {
	seen := make(map[string]int, len(data.Nodes))
	for _, node := range data.Nodes {
		seen[node.ID]++
	}

	var duplicates []string

	for _, node := range data.Nodes {
		if seen[node.ID] > 1 {
			duplicates = append(duplicates, node.ID)
			seen[node.ID] = 0
		}
	}

	if len(duplicates) == 0 {
		return nil
	}

	return []string{fmt.Sprintf("Duplicate node IDs found: %s", strings.Join(duplicates, ", "))}
}

func checkEndpoints(data *models.GraphData) []string {
	ids := make(map[string]bool, len(data.Nodes))
	for _, node := range data.Nodes {
		ids[node.ID] = true
	}

	var defects []string

	for _, conn := range data.Connections {
		if conn.From == "" {
			defects = append(defects, "Connection missing 'from' field")

			continue
		}

		if conn.To == "" {
			defects = append(defects, "Connection missing 'to' field")

			continue
		}

		if !ids[conn.From] {
			defects = append(defects, fmt.Sprintf("Connection references non-existent source node: %s", conn.From))
		}

		if !ids[conn.To] {
			defects = append(defects, fmt.Sprintf("Connection references non-existent target node: %s", conn.To))
		}
	}

	return defects
}

func checkConnectivity(data *models.GraphData) []string {
	var defects []string

	incoming := data.IncomingCounts()
	outgoing := data.OutgoingByNode()

	startCount := 0
	for _, node := range data.Nodes {
		if node.IsStart() {
			startCount++
		}
	}

	if startCount != 1 {
		defects = append(defects,
			fmt.Sprintf("Workflow must have exactly one trigger node, found %d", startCount))
	}

	for _, node := range data.Nodes {
		if !models.IsSupportedNodeType(node.Type) {
			defects = append(defects,
				fmt.Sprintf("%s (%s): Unsupported node type '%s'", node.ID, labelOrUnknown(node), node.Type))
		}

		if node.IsStart() {
			if incoming[node.ID] > 0 {
				defects = append(defects,
					fmt.Sprintf("%s (%s): Start node should have no incoming connections", node.ID, labelOrUnknown(node)))
			}

			if len(outgoing[node.ID]) == 0 {
				defects = append(defects,
					fmt.Sprintf("%s (%s): Start node must have at least 1 outgoing connection", node.ID, labelOrUnknown(node)))
			}
		} else if incoming[node.ID] == 0 {
			defects = append(defects,
				fmt.Sprintf("%s (%s): Orphaned node - no incoming connections", node.ID, labelOrUnknown(node)))
		}

		if node.Type == models.NodeTypeCondition {
			defects = append(defects, checkConditionBranches(node, outgoing[node.ID])...)
		} else {
			for _, conn := range outgoing[node.ID] {
				if conn.Branched() {
					defects = append(defects,
						fmt.Sprintf("%s (%s): Branch label '%s' on non-condition node", node.ID, labelOrUnknown(node), conn.BranchLabel))
				}
			}
		}

		// A node with inflow but no outflow that is not a terminal log node
		// usually means the planner forgot the rest of the flow.
		if len(outgoing[node.ID]) == 0 && node.Type != models.NodeTypeLog &&
			len(data.Nodes) > 1 && incoming[node.ID] > 0 {
			defects = append(defects,
				fmt.Sprintf("%s (%s): Potential dead end - no outgoing connections", node.ID, labelOrUnknown(node)))
		}
	}

	return defects
}

func checkConditionBranches(node *models.Node, outgoing []*models.Connection) []string {
	trueCount, falseCount := 0, 0

	for _, conn := range outgoing {
		switch conn.BranchLabel {
		case models.BranchTrue:
			trueCount++
		case models.BranchFalse:
			falseCount++
		}
	}

	if len(outgoing) == 2 && trueCount == 1 && falseCount == 1 {
		return nil
	}

	return []string{fmt.Sprintf("%s (%s): Condition must have exactly 2 outgoing connections (true/false)",
		node.ID, labelOrUnknown(node))}
}

func (v *Validator) checkIntegrationParams(data *models.GraphData) []string {
	var defects []string

	for _, node := range data.Nodes {
		if node.Type != models.NodeTypeIntegration {
			continue
		}

		// Families outside the registry were already demoted by the schema
		// enforcer; anything left unknown here is skipped, not failed.
		required, ok := v.registry.RequiredParams(node.IntegrationTypeName, node.Task)
		if !ok {
			continue
		}

		for _, param := range required {
			if emptyParam(node.Params[param]) {
				defects = append(defects,
					fmt.Sprintf("%s (%s): Missing required parameter '%s' for %s.%s",
						node.ID, labelOrUnknown(node), param, node.IntegrationTypeName, node.Task))
			}
		}
	}

	return defects
}

// emptyParam mirrors the engine's notion of an unset parameter: absent, nil,
// empty string, zero, false, or an empty collection.
func emptyParam(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case float64:
		return v == 0
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func labelOrUnknown(node *models.Node) string {
	if node.Label != "" {
		return node.Label
	}

	return "Unknown"
}

func checkConditionOperators(data *models.GraphData) []string {
	var defects []string

	for _, node := range data.Nodes {
		if node.Type != models.NodeTypeCondition {
			continue
		}

		operator, _ := node.Condition()["operator"].(string)

		switch {
		case operator == "":
			defects = append(defects,
				fmt.Sprintf("%s (%s): Missing operator in condition", node.ID, labelOrUnknown(node)))
		case !models.IsConditionOperator(operator):
			defects = append(defects,
				fmt.Sprintf("%s (%s): Invalid operator '%s'. Must be one of: %s",
					node.ID, labelOrUnknown(node), operator, strings.Join(models.ConditionOperators, ", ")))
		}
	}

	return defects
}

// checkCycles runs a depth-first forest traversal with a recursion stack. A
// back-edge to a node on the stack is a cycle. Detection stops at the first
// cycle found; enumerating all of them buys the caller nothing since the
// document is rejected either way.
func checkCycles(data *models.GraphData) []string {
	adjacency := make(map[string][]string, len(data.Nodes))
	for _, conn := range data.Connections {
		adjacency[conn.From] = append(adjacency[conn.From], conn.To)
	}

	visited := make(map[string]bool, len(data.Nodes))
	onStack := make(map[string]bool, len(data.Nodes))

	var visit func(id string) bool

	visit = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range adjacency[id] {
			if !visited[next] {
				if visit(next) {
					return true
				}
			} else if onStack[next] {
				return true
			}
		}

		onStack[id] = false

		return false
	}

	for _, node := range data.Nodes {
		if !visited[node.ID] && visit(node.ID) {
			return []string{"Circular dependency detected in workflow connections"}
		}
	}

	return nil
}
