package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Source loads an integration catalog from external configuration. Catalogs
// are versioned data, not code: deployments swap sources without rebuilding
// the pipeline.
type Source interface {
	Load(ctx context.Context) ([]Family, error)
}

// catalogSchema validates the shape of a catalog file before it replaces the
// live catalog. A malformed file must never half-load.
const catalogSchema = `{
	"type": "object",
	"required": ["families"],
	"properties": {
		"families": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["keyword", "integration_id", "type_name", "default_task"],
				"properties": {
					"keyword": {"type": "string", "minLength": 1},
					"integration_id": {"type": "integer"},
					"type_name": {"type": "string", "minLength": 1},
					"default_task": {"type": "string", "minLength": 1},
					"default_display_name": {"type": "string"},
					"tasks": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"display_name": {"type": "string"},
								"required_params": {"type": "array", "items": {"type": "string"}}
							}
						}
					}
				}
			}
		}
	}
}`

// FileSource loads the catalog from a JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a catalog source reading from the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type catalogFile struct {
	Families []Family `json:"families"`
}

// Load reads, schema-validates, and decodes the catalog file.
func (s *FileSource) Load(_ context.Context) ([]Family, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate catalog file %s: %w", s.path, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, fmt.Errorf("catalog file %s is invalid: %s", s.path, strings.Join(problems, "; "))
	}

	var catalog catalogFile
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", s.path, err)
	}

	for i := range catalog.Families {
		catalog.Families[i].Keyword = strings.ToLower(catalog.Families[i].Keyword)
	}

	return catalog.Families, nil
}
