package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCandidate = `{
	"workflows": [
		{
			"name": "Test",
			"description": "test workflow",
			"workflow_data": {
				"nodes": [{"id": "node-1", "type": "webhook", "label": "Start", "nodeNumber": 1}],
				"connections": []
			},
			"is_active": true
		}
	]
}`

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with prose", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"no fence", "  {\"a\": 1}\n", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", `{"a": 1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFence(tc.input))
		})
	}
}

func TestParseCandidate(t *testing.T) {
	doc, err := ParseCandidate("```json\n" + minimalCandidate + "\n```")
	require.NoError(t, err)
	require.NotNil(t, doc.Graph())
	assert.Equal(t, "Test", doc.Graph().Name)
	assert.Len(t, doc.Graph().Data.Nodes, 1)
}

func TestParseCandidate_UnparsableJSON(t *testing.T) {
	_, err := ParseCandidate("I could not generate a workflow, sorry.")
	require.ErrorIs(t, err, ErrUnparsableCandidate)

	var candidateErr *CandidateError
	require.ErrorAs(t, err, &candidateErr)
	assert.NotEmpty(t, candidateErr.Problems)
}

func TestParseCandidate_IncompleteStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing workflows", `{"version": "1.0"}`},
		{"empty workflows", `{"workflows": []}`},
		{"workflow without name", `{"workflows": [{"description": "d", "workflow_data": {"nodes": [], "connections": []}}]}`},
		{"empty name", `{"workflows": [{"name": "", "description": "d", "workflow_data": {"nodes": [], "connections": []}}]}`},
		{"missing workflow_data", `{"workflows": [{"name": "n", "description": "d"}]}`},
		{"missing connections", `{"workflows": [{"name": "n", "description": "d", "workflow_data": {"nodes": []}}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCandidate(tc.input)
			require.ErrorIs(t, err, ErrIncompleteCandidate)

			var candidateErr *CandidateError
			require.ErrorAs(t, err, &candidateErr)
			assert.NotEmpty(t, candidateErr.Problems)
		})
	}
}
