package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/planweave/planweave/pkg/models"
)

var (
	// ErrUnparsableCandidate indicates the model text is not valid JSON at
	// all. There is nothing to repair; the caller should regenerate.
	ErrUnparsableCandidate = errors.New("candidate is not valid JSON")

	// ErrIncompleteCandidate indicates the JSON parsed but lacks the minimum
	// document structure the pipeline needs to operate on.
	ErrIncompleteCandidate = errors.New("candidate is structurally incomplete")
)

// CandidateError carries the individual problems found while parsing a
// candidate, so callers can show them without string-splitting the error.
type CandidateError struct {
	Err      error
	Problems []string
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, strings.Join(e.Problems, "; "))
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// candidateSchema is the minimum shape a candidate must have before the
// pipeline can run. Everything beyond this is the pipeline's job to repair
// or report.
const candidateSchema = `{
	"type": "object",
	"required": ["workflows"],
	"properties": {
		"workflows": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "description", "workflow_data"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string", "minLength": 1},
					"workflow_data": {
						"type": "object",
						"required": ["nodes", "connections"],
						"properties": {
							"nodes": {"type": "array"},
							"connections": {"type": "array"}
						}
					}
				}
			}
		}
	}
}`

var candidateSchemaLoader = gojsonschema.NewStringLoader(candidateSchema)

// StripCodeFence removes a surrounding markdown code fence from model output.
// Text without a fence is returned trimmed but otherwise unchanged.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)

	for _, marker := range []string{"```json", "```"} {
		if _, after, found := strings.Cut(text, marker); found {
			if body, _, closed := strings.Cut(after, "```"); closed {
				return strings.TrimSpace(body)
			}

			return strings.TrimSpace(after)
		}
	}

	return text
}

// ParseCandidate converts raw model text into a candidate document. It
// distinguishes unparseable JSON from parseable-but-incomplete structure so
// callers can report the right failure tier.
func ParseCandidate(raw string) (*models.Document, error) {
	text := StripCodeFence(raw)

	var probe any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, &CandidateError{
			Err:      ErrUnparsableCandidate,
			Problems: []string{err.Error()},
		}
	}

	result, err := gojsonschema.Validate(candidateSchemaLoader, gojsonschema.NewGoLoader(probe))
	if err != nil {
		return nil, fmt.Errorf("failed to validate candidate structure: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, &CandidateError{
			Err:      ErrIncompleteCandidate,
			Problems: problems,
		}
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &CandidateError{
			Err:      ErrIncompleteCandidate,
			Problems: []string{err.Error()},
		}
	}

	return &doc, nil
}
