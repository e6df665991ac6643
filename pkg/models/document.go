// Package models defines the workflow graph document exchanged between the
// planner, the repair pipeline, and the execution engine.
package models

// DocumentVersion is the export format version the execution engine consumes.
const DocumentVersion = "1.0"

// Document is the root export envelope produced by the planner. The engine
// imports documents in exactly this shape; the format normalizer guarantees
// the envelope fields are present before a document leaves the pipeline.
type Document struct {
	Version    string           `json:"version"`
	ExportedAt string           `json:"exported_at,omitempty"`
	Workflows  []*WorkflowGraph `json:"workflows"            validate:"required,min=1"`
	Comments   map[string]any   `json:"workflow_comments"`
}

// Graph returns the first workflow graph in the document, or nil. Planner
// candidates carry exactly one workflow; the envelope is a list only because
// the engine's import format allows batch exports.
func (d *Document) Graph() *WorkflowGraph {
	if d == nil || len(d.Workflows) == 0 {
		return nil
	}

	return d.Workflows[0]
}

// WorkflowGraph is a single workflow inside a document.
type WorkflowGraph struct {
	Name        string    `json:"name"          validate:"required"`
	Description string    `json:"description"   validate:"required"`
	Data        GraphData `json:"workflow_data"`
	Active      bool      `json:"is_active"`
}

// GraphData holds the node and connection sets. Node order is authoring
// order and is significant: the connection auto-repairer uses positional
// adjacency as its repair heuristic.
type GraphData struct {
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
}

// FindNode returns the node with the given id, or nil.
func (g *GraphData) FindNode(id string) *Node {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// IncomingCounts returns the number of incoming connections per node id.
// Connections referencing unknown ids are ignored; the validator reports
// those separately as dangling endpoints.
func (g *GraphData) IncomingCounts() map[string]int {
	counts := make(map[string]int, len(g.Nodes))
	for _, node := range g.Nodes {
		counts[node.ID] = 0
	}

	for _, conn := range g.Connections {
		if _, ok := counts[conn.To]; ok {
			counts[conn.To]++
		}
	}

	return counts
}

// OutgoingByNode returns the outgoing connections per node id, in the order
// they appear in the connection list.
func (g *GraphData) OutgoingByNode() map[string][]*Connection {
	outgoing := make(map[string][]*Connection, len(g.Nodes))
	for _, node := range g.Nodes {
		outgoing[node.ID] = nil
	}

	for _, conn := range g.Connections {
		if _, ok := outgoing[conn.From]; ok {
			outgoing[conn.From] = append(outgoing[conn.From], conn)
		}
	}

	return outgoing
}
