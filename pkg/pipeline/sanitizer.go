package pipeline

import (
	"log/slog"

	"github.com/planweave/planweave/pkg/models"
)

// ConnectionSanitizer deletes branch-labeled connections whose source node is
// not a condition node. Planner models frequently attach true/false handles
// to integration or log nodes; such edges are meaningless to the engine and
// must not survive into the repaired graph.
//
// Connections whose source id does not resolve to any node are kept: the
// validator reports those as dangling endpoints, and deleting them here would
// hide the defect.
type ConnectionSanitizer struct {
	logger *slog.Logger
}

// NewConnectionSanitizer creates the sanitization stage.
func NewConnectionSanitizer(logger *slog.Logger) *ConnectionSanitizer {
	return &ConnectionSanitizer{logger: logger}
}

func (s *ConnectionSanitizer) Name() string { return "connection_sanitizer" }

// Apply removes illegal branch-labeled connections from every workflow.
func (s *ConnectionSanitizer) Apply(doc *models.Document) {
	for _, graph := range doc.Workflows {
		s.sanitizeGraph(&graph.Data)
	}
}

func (s *ConnectionSanitizer) sanitizeGraph(data *models.GraphData) {
	kept := data.Connections[:0]

	for _, conn := range data.Connections {
		if s.keep(data, conn) {
			kept = append(kept, conn)
		}
	}

	data.Connections = kept
}

func (s *ConnectionSanitizer) keep(data *models.GraphData, conn *models.Connection) bool {
	if !conn.Branched() {
		return true
	}

	source := data.FindNode(conn.From)
	if source == nil {
		// Dangling source, the validator owns this defect.
		return true
	}

	if source.Type == models.NodeTypeCondition {
		return true
	}

	s.logger.Debug("Removed branch-labeled connection from non-condition node",
		"from", conn.From,
		"to", conn.To,
		"branch", string(conn.BranchLabel),
		"source_type", string(source.Type),
	)

	return false
}
