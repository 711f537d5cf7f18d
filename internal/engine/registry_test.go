// internal/engine/registry_test.go
package engine

import (
	"testing"

	"github.com/solatis/packgate/internal/types"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("CUSTOM", minApprovals{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("CUSTOM", minApprovals{}); err == nil {
		t.Error("duplicate registration should error")
	}

	if _, ok := r.Lookup("CUSTOM"); !ok {
		t.Error("registered comparator not found")
	}
	if _, ok := r.Lookup("MISSING"); ok {
		t.Error("unregistered comparator should not resolve")
	}

	v, ok := r.Version("CUSTOM")
	if !ok || v != "1.2.0" {
		t.Errorf("Version() = %q/%v, want 1.2.0/true", v, ok)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	builtins := []string{
		ComparatorMinApprovals,
		ComparatorRequiredChecks,
		ComparatorNoSecretFindings,
		ComparatorMaxDiffSize,
		ComparatorLabelPresent,
		ComparatorTitleMatches,
	}
	for _, id := range builtins {
		c, ok := r.Lookup(id)
		if !ok {
			t.Errorf("builtin %s not registered", id)
			continue
		}
		if c.Version() == "" {
			t.Errorf("builtin %s has no version", id)
		}
	}
	if len(r.IDs()) != len(builtins) {
		t.Errorf("registry has %d comparators, want %d", len(r.IDs()), len(builtins))
	}
}

func TestFactCatalog(t *testing.T) {
	catalog := NewFactCatalog()
	if catalog.Version() != FactCatalogVersion {
		t.Errorf("Version() = %q, want %q", catalog.Version(), FactCatalogVersion)
	}

	ctx := &types.PRContext{
		Author: "alice",
		Title:  "fix: nil check",
		Labels: []string{"backend"},
		Files:  []types.ChangedFile{{Filename: "a.go", Additions: 3, Deletions: 1}},
	}
	facts := catalog.ResolveAll(ctx)

	if facts["actor.user"] != "alice" {
		t.Errorf("actor.user = %v", facts["actor.user"])
	}
	if facts["diff.total"] != 4 {
		t.Errorf("diff.total = %v, want 4", facts["diff.total"])
	}
	// Reviews never fetched: the fact resolves to the absent sentinel,
	// not zero.
	if !IsAbsent(facts["pr.approvals.count"]) {
		t.Errorf("pr.approvals.count should be absent on nil reviews, got %v", facts["pr.approvals.count"])
	}

	ctx.Reviews = []types.Review{}
	facts = catalog.ResolveAll(ctx)
	if facts["pr.approvals.count"] != 0 {
		t.Errorf("fetched-but-empty reviews should resolve to 0, got %v", facts["pr.approvals.count"])
	}
}
