package pipeline

import "github.com/planweave/planweave/pkg/models"

// RepairStrategy decides which node a synthesized connection should attach
// to. It exists so the positional heuristic can be swapped for a smarter one
// (e.g. inferring links from shared template references) without touching the
// repairer.
type RepairStrategy interface {
	// Predecessor returns the node a connection for the orphan at the given
	// array index should originate from, or nil when no repair is possible.
	Predecessor(nodes []*models.Node, index int) *models.Node

	// BranchTarget returns the node a missing condition branch at the given
	// array index should point to, offset positions ahead, or nil when no
	// such node exists.
	BranchTarget(nodes []*models.Node, index, offset int) *models.Node
}

// PositionalStrategy repairs by authoring-order adjacency: an orphan is fed
// by the node immediately before it, and a condition's missing true/false
// branches point one and two positions ahead. Authoring order approximates
// intended sequential flow; when it does not, the repair yields a valid but
// semantically wrong graph, a tradeoff that favors forward progress over
// rejection.
type PositionalStrategy struct{}

func (PositionalStrategy) Predecessor(nodes []*models.Node, index int) *models.Node {
	if index <= 0 || index >= len(nodes) {
		return nil
	}

	return nodes[index-1]
}

func (PositionalStrategy) BranchTarget(nodes []*models.Node, index, offset int) *models.Node {
	target := index + offset
	if target < 0 || target >= len(nodes) {
		return nil
	}

	return nodes[target]
}
