package models

// BranchLabel marks which branch of a condition node a connection follows.
type BranchLabel string

const (
	BranchTrue  BranchLabel = "true"
	BranchFalse BranchLabel = "false"
)

// Connection is a directed edge between two nodes. A branch label is legal
// only when the source node is a condition node; the sanitizer removes
// labeled connections from any other node type.
type Connection struct {
	From        string      `json:"from" validate:"required"`
	To          string      `json:"to"   validate:"required"`
	BranchLabel BranchLabel `json:"sourceHandle,omitempty"`

	// Condition is a display-only expression object the format normalizer
	// synthesizes for branch-labeled connections. The engine ignores it.
	Condition map[string]any `json:"condition,omitempty"`
}

// Branched reports whether the connection carries a branch label.
func (c *Connection) Branched() bool {
	return c.BranchLabel != ""
}
