package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresSource loads the catalog from the workflow database's
// integration_types and integrations tables. Only active integration
// instances contribute families; the first active instance of a type
// supplies the integration id.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource opens a connection to the workflow database.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to registry database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}

	return &PostgresSource{db: db}, nil
}

// Close releases the database connection.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// taskRow mirrors the JSON task descriptors stored on integration_types.
type taskRow struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Parameters  []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	} `json:"parameters"`
}

// Load queries active integrations joined with their type metadata and
// builds the catalog in type-name order.
func (s *PostgresSource) Load(ctx context.Context) ([]Family, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (it.name) i.id, it.name, it.tasks
		FROM integrations i
		JOIN integration_types it ON it.id = i.integration_type_id
		WHERE i.is_active = true
		ORDER BY it.name, i.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query integration catalog: %w", err)
	}
	defer rows.Close()

	var families []Family

	for rows.Next() {
		var (
			id       int
			typeName string
			rawTasks []byte
		)

		if err := rows.Scan(&id, &typeName, &rawTasks); err != nil {
			return nil, fmt.Errorf("failed to scan integration row: %w", err)
		}

		var taskRows []taskRow
		if len(rawTasks) > 0 {
			if err := json.Unmarshal(rawTasks, &taskRows); err != nil {
				return nil, fmt.Errorf("failed to decode tasks for %s: %w", typeName, err)
			}
		}

		family := Family{
			Keyword:  strings.ToLower(typeName),
			ID:       id,
			TypeName: typeName,
		}

		for _, tr := range taskRows {
			required := make([]string, 0, len(tr.Parameters))
			for _, p := range tr.Parameters {
				if p.Required {
					required = append(required, p.Name)
				}
			}

			display := tr.DisplayName
			if display == "" {
				display = tr.Name
			}

			family.Tasks = append(family.Tasks, Task{
				Name:           tr.Name,
				DisplayName:    display,
				RequiredParams: required,
			})

			if family.DefaultTask == "" {
				family.DefaultTask = tr.Name
				family.DefaultDisplayName = display
			}
		}

		if family.DefaultTask == "" {
			continue // a family with no tasks cannot serve integration nodes
		}

		families = append(families, family)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read integration catalog: %w", err)
	}

	return families, nil
}
