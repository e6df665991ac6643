package pipeline

import (
	"log/slog"

	"github.com/planweave/planweave/pkg/models"
)

// AutoRepairer synthesizes the connections a candidate graph is missing, in
// two deterministic passes: orphaned nodes get one incoming edge from their
// strategy-chosen predecessor, then condition nodes get their missing
// true/false branches. Both passes are best-effort; anything the strategy
// cannot place is left for the validator to report.
type AutoRepairer struct {
	strategy RepairStrategy
	logger   *slog.Logger
}

// NewAutoRepairer creates the repair stage with the given strategy.
func NewAutoRepairer(strategy RepairStrategy, logger *slog.Logger) *AutoRepairer {
	return &AutoRepairer{strategy: strategy, logger: logger}
}

func (r *AutoRepairer) Name() string { return "auto_repairer" }

// Apply repairs every workflow in the document.
func (r *AutoRepairer) Apply(doc *models.Document) {
	for _, graph := range doc.Workflows {
		r.attachOrphans(&graph.Data)
		r.completeBranches(&graph.Data)
	}
}

// attachOrphans adds one unlabeled incoming connection to every non-start
// node that has none. Condition nodes are not special-cased: an orphaned
// condition is attached here first, then branch completion runs on it like
// on any other condition node.
func (r *AutoRepairer) attachOrphans(data *models.GraphData) {
	incoming := data.IncomingCounts()

	for i, node := range data.Nodes {
		if node.IsStart() || incoming[node.ID] > 0 {
			continue
		}

		prev := r.strategy.Predecessor(data.Nodes, i)
		if prev == nil {
			continue
		}

		data.Connections = append(data.Connections, &models.Connection{
			From: prev.ID,
			To:   node.ID,
		})
		incoming[node.ID]++

		r.logger.Debug("Attached orphaned node",
			"node", node.ID,
			"label", node.Label,
			"from", prev.ID,
		)
	}
}

// completeBranches synthesizes missing true/false branches for condition
// nodes. A missing true branch targets the next node in authoring order, a
// missing false branch the one after; when no such node exists the branch
// stays missing and the validator reports it.
func (r *AutoRepairer) completeBranches(data *models.GraphData) {
	outgoing := data.OutgoingByNode()

	for i, node := range data.Nodes {
		if node.Type != models.NodeTypeCondition {
			continue
		}

		hasTrue, hasFalse := false, false
		for _, conn := range outgoing[node.ID] {
			switch conn.BranchLabel {
			case models.BranchTrue:
				hasTrue = true
			case models.BranchFalse:
				hasFalse = true
			}
		}

		if !hasTrue {
			r.synthesizeBranch(data, node, i, 1, models.BranchTrue)
		}

		if !hasFalse {
			r.synthesizeBranch(data, node, i, 2, models.BranchFalse)
		}
	}
}

func (r *AutoRepairer) synthesizeBranch(data *models.GraphData, node *models.Node, index, offset int, label models.BranchLabel) {
	target := r.strategy.BranchTarget(data.Nodes, index, offset)
	if target == nil {
		return
	}

	data.Connections = append(data.Connections, &models.Connection{
		From:        node.ID,
		To:          target.ID,
		BranchLabel: label,
	})

	r.logger.Debug("Synthesized condition branch",
		"node", node.ID,
		"branch", string(label),
		"to", target.ID,
	)
}
