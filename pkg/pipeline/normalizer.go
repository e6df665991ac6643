package pipeline

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/planweave/planweave/pkg/models"
)

// referencePattern matches every historical placeholder variant that
// addresses a node: one to three brace pairs, an optional $ sigil, "node"
// followed by an optional hyphen/underscore/space separator, a positive
// integer, and an optional dotted field path.
var referencePattern = regexp.MustCompile(`\{{1,3}\s*\$?\s*[Nn]ode[-_ ]?([0-9]+)((?:\.[A-Za-z0-9_]+)*)\s*\}{1,3}`)

// ReferenceNormalizer rewrites node identifiers to the canonical
// "node-<sequence>" scheme, repoints every connection endpoint, and collapses
// all template placeholder variants in config/params string values to the
// single canonical form "{{node-N}}" / "{{node-N.path}}". The rewrite is a
// pure text transform over string values and is idempotent: authored
// sequence numbers are kept whenever positive and unique, so placeholders
// keep addressing the node they always addressed.
type ReferenceNormalizer struct{}

// NewReferenceNormalizer creates the normalization stage.
func NewReferenceNormalizer() *ReferenceNormalizer {
	return &ReferenceNormalizer{}
}

func (n *ReferenceNormalizer) Name() string { return "reference_normalizer" }

// Apply normalizes every workflow in the document.
func (n *ReferenceNormalizer) Apply(doc *models.Document) {
	for _, graph := range doc.Workflows {
		n.normalizeGraph(&graph.Data)
	}
}

func (n *ReferenceNormalizer) normalizeGraph(data *models.GraphData) {
	assignSequenceNumbers(data.Nodes)

	// Canonical ids. When source ids collide, the first occurrence claims
	// the old id, so connections referencing it stay attached to the node
	// the author most plausibly meant.
	idMap := make(map[string]string, len(data.Nodes))

	for _, node := range data.Nodes {
		canonical := fmt.Sprintf("node-%d", node.SequenceNumber)
		if _, claimed := idMap[node.ID]; !claimed && node.ID != "" {
			idMap[node.ID] = canonical
		}

		node.ID = canonical
	}

	for _, conn := range data.Connections {
		if canonical, ok := idMap[conn.From]; ok {
			conn.From = canonical
		}

		if canonical, ok := idMap[conn.To]; ok {
			conn.To = canonical
		}
	}

	for _, node := range data.Nodes {
		rewriteValue(node.Config)
		rewriteValue(node.Params)
	}
}

// assignSequenceNumbers makes sequence numbers positive and pairwise unique.
// The authored value is kept when valid; a missing, non-positive, or
// duplicated value is replaced by the smallest unused positive integer, in
// authoring order. On a duplicate the first occurrence keeps the number.
func assignSequenceNumbers(nodes []*models.Node) {
	used := make(map[int]bool, len(nodes))

	// Valid authored numbers are reserved up front so a fallback assignment
	// for an early node never steals a later node's authored number.
	for _, node := range nodes {
		if node.SequenceNumber > 0 && !used[node.SequenceNumber] {
			used[node.SequenceNumber] = true
		} else {
			node.SequenceNumber = 0
		}
	}

	next := 1

	for _, node := range nodes {
		if node.SequenceNumber > 0 {
			continue
		}

		for used[next] {
			next++
		}

		node.SequenceNumber = next
		used[next] = true
	}
}

// rewriteValue walks a JSON-shaped value in place and rewrites placeholder
// references inside string leaves. Non-reference content is never altered.
func rewriteValue(value any) any {
	switch v := value.(type) {
	case string:
		return rewriteReferences(v)
	case map[string]any:
		for key, item := range v {
			v[key] = rewriteValue(item)
		}

		return v
	case []any:
		for i, item := range v {
			v[i] = rewriteValue(item)
		}

		return v
	default:
		return v
	}
}

func rewriteReferences(s string) string {
	return referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := referencePattern.FindStringSubmatch(match)

		seq, err := strconv.Atoi(groups[1])
		if err != nil || seq <= 0 {
			return match
		}

		return fmt.Sprintf("{{node-%d%s}}", seq, groups[2])
	})
}
