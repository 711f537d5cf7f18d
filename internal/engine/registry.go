// internal/engine/registry.go
package engine

import (
	"fmt"
	"sort"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Comparator registry.
 *
 * A typed registry of versioned comparators behind one capability
 * interface, populated by explicit registration at process start. No
 * reflection, no package-level singletons: the registry is constructed by
 * the service's startup code and passed into the evaluator, keeping
 * evaluation testable in isolation.
 */

// Comparator is one named, versioned, stateless evaluator. Evaluate must
// be deterministic for a fixed context snapshot and must not mutate the
// context; the evaluator enforces the per-comparator timeout externally.
type Comparator interface {
	Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult
	Version() string
}

// Registry maps comparator ids to implementations.
type Registry struct {
	comparators map[string]Comparator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{comparators: make(map[string]Comparator)}
}

// Register adds a comparator under id. Duplicate registration is a
// programming error and is rejected.
func (r *Registry) Register(id string, c Comparator) error {
	if _, exists := r.comparators[id]; exists {
		return fmt.Errorf("comparator %q already registered", id)
	}
	r.comparators[id] = c
	return nil
}

// Lookup returns the comparator for id.
func (r *Registry) Lookup(id string) (Comparator, bool) {
	c, ok := r.comparators[id]
	return c, ok
}

// Version returns the registered version for id.
func (r *Registry) Version(id string) (string, bool) {
	c, ok := r.comparators[id]
	if !ok {
		return "", false
	}
	return c.Version(), true
}

// IDs returns all registered comparator ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.comparators))
	for id := range r.comparators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultRegistry returns a registry with all built-in comparators.
// Registration cannot fail for built-ins; a duplicate id here is a bug
// caught by the panic in tests.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	builtins := map[string]Comparator{
		ComparatorMinApprovals:     minApprovals{},
		ComparatorRequiredChecks:   requiredChecks{},
		ComparatorNoSecretFindings: noSecretFindings{},
		ComparatorMaxDiffSize:      maxDiffSize{},
		ComparatorLabelPresent:     labelPresent{},
		ComparatorTitleMatches:     titleMatches{},
	}
	for id, c := range builtins {
		if err := r.Register(id, c); err != nil {
			panic(err)
		}
	}
	return r
}
