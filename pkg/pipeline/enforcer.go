package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

// defaultIntegrationTimeout is injected into integration node params when the
// planner omitted one. The format normalizer later stringifies it for the
// engine.
const defaultIntegrationTimeout = 300

// SchemaEnforcer stamps registry-defined identity onto integration nodes and
// demotes nodes the engine cannot run (unknown integrations, script nodes) to
// log nodes. Demotion is the designed degradation path for capability
// requests outside the catalog, not a validation failure. No node is ever
// deleted here.
type SchemaEnforcer struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewSchemaEnforcer creates the enforcement stage.
func NewSchemaEnforcer(reg *registry.Registry, logger *slog.Logger) *SchemaEnforcer {
	return &SchemaEnforcer{registry: reg, logger: logger}
}

func (e *SchemaEnforcer) Name() string { return "schema_enforcer" }

// Apply mutates every workflow's nodes in place.
func (e *SchemaEnforcer) Apply(doc *models.Document) {
	for _, graph := range doc.Workflows {
		for _, node := range graph.Data.Nodes {
			switch node.Type {
			case models.NodeTypeIntegration:
				e.enforceIntegration(node)
			case models.NodeTypeScript:
				demoteToLog(node, "Log: Unsupported Node Type",
					fmt.Sprintf("Script nodes are not supported: %s", nodeLabel(node)))
			}
		}
	}
}

func (e *SchemaEnforcer) enforceIntegration(node *models.Node) {
	family, ok := e.registry.Match(node.IntegrationTypeName, node.Label)
	if !ok {
		demoteToLog(node, "Log: Unsupported Integration",
			fmt.Sprintf("No integrations available for this requirement: %s", nodeLabel(node)))

		return
	}

	// Identity fields are immutable and always come from the registry.
	node.IntegrationID = family.ID
	node.IntegrationTypeName = family.TypeName

	// Task defaults fill gaps only; an explicit task is never overwritten.
	if node.Task == "" {
		node.Task = family.DefaultTask
	}

	if node.TaskDisplayName == "" {
		node.TaskDisplayName = e.registry.TaskDisplayName(family.TypeName, node.Task)
	}

	if node.ContinueOnError == nil {
		node.ContinueOnError = boolPtr(false)
	}

	if node.RunAllTasks == nil {
		node.RunAllTasks = boolPtr(false)
	}

	if node.Params == nil {
		node.Params = map[string]any{}
	}

	if _, ok := node.Params["timeout_seconds"]; !ok {
		node.Params["timeout_seconds"] = defaultIntegrationTimeout
	}

	node.Params["integration_types"] = family.TypeName
}

// demoteToLog converts a node into a log node carrying the given message and
// strips every integration-only field.
func demoteToLog(node *models.Node, label, message string) {
	node.Type = models.NodeTypeLog
	node.Label = label
	node.Config = map[string]any{"message": message}
	node.Params = map[string]any{}

	node.IntegrationID = 0
	node.IntegrationTypeName = ""
	node.Task = ""
	node.TaskDisplayName = ""
	node.ContinueOnError = nil
	node.RunAllTasks = nil
}

func nodeLabel(node *models.Node) string {
	if node.Label != "" {
		return node.Label
	}

	return "Missing Integration"
}

func boolPtr(v bool) *bool {
	return &v
}
