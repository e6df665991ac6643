// Package registry provides the read-only integration catalog the pipeline
// consults when enforcing integration node schemas and validating required
// parameters.
package registry

import (
	"log/slog"
	"strings"
	"sync"
)

// Task describes one task an integration family offers.
type Task struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	RequiredParams []string `json:"required_params"`
}

// Family is one integration family in the catalog. Keyword is the
// lower-case token the schema enforcer matches node type names and labels
// against.
type Family struct {
	Keyword            string `json:"keyword"`
	ID                 int    `json:"integration_id"`
	TypeName           string `json:"type_name"`
	DefaultTask        string `json:"default_task"`
	DefaultDisplayName string `json:"default_display_name"`
	Tasks              []Task `json:"tasks"`
}

// Registry is a concurrency-safe integration catalog. The family slice
// order is the match priority order: the first family whose keyword appears
// in a node's type name or label wins.
type Registry struct {
	mu       sync.RWMutex
	families []Family
	logger   *slog.Logger
}

// New creates a registry over the given families. Family order is preserved
// and defines match priority.
func New(logger *slog.Logger, families []Family) *Registry {
	return &Registry{
		families: families,
		logger:   logger,
	}
}

// Match resolves a node's declared type name and label against the catalog.
// Matching is case-insensitive substring containment, checked in catalog
// order; the first matching family wins.
func (r *Registry) Match(typeName, label string) (Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeName = strings.ToLower(typeName)
	label = strings.ToLower(label)

	for _, family := range r.families {
		if strings.Contains(typeName, family.Keyword) || strings.Contains(label, family.Keyword) {
			return family, true
		}
	}

	return Family{}, false
}

// RequiredParams returns the mandatory parameter names for the given
// (canonical type name, task) pair. The second return is false when either
// the family or the task is unknown.
func (r *Registry) RequiredParams(typeName, task string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, family := range r.families {
		if !strings.EqualFold(family.TypeName, typeName) {
			continue
		}

		for _, t := range family.Tasks {
			if t.Name == task {
				return t.RequiredParams, true
			}
		}

		return nil, false
	}

	return nil, false
}

// TaskDisplayName returns the display name registered for the given task,
// falling back to the task name itself.
func (r *Registry) TaskDisplayName(typeName, task string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, family := range r.families {
		if !strings.EqualFold(family.TypeName, typeName) {
			continue
		}

		for _, t := range family.Tasks {
			if t.Name == task && t.DisplayName != "" {
				return t.DisplayName
			}
		}
	}

	return task
}

// Families returns a copy of the catalog in priority order.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Family, len(r.families))
	copy(out, r.families)

	return out
}

// Replace swaps the catalog atomically. Used by the refresher when a
// registry source publishes an update.
func (r *Registry) Replace(families []Family) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.families = families
}

// HealthCheck reports whether the catalog has at least one family loaded.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.families) == 0 {
		return "Integration catalog is empty", false
	}

	return "Integration catalog is loaded", true
}
