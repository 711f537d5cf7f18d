// internal/engine/trigger_test.go
package engine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/packgate/internal/types"
)

func TestEvaluateTrigger_Basics(t *testing.T) {
	ctx := &types.PRContext{}

	tests := []struct {
		name    string
		trigger *types.Trigger
		files   []string
		want    bool
	}{
		{
			name:    "nil trigger always fires",
			trigger: nil,
			files:   nil,
			want:    true,
		},
		{
			name:    "always fires on empty file set",
			trigger: &types.Trigger{Always: true},
			files:   nil,
			want:    true,
		},
		{
			name:    "empty trigger fires, no preconditions no any-list",
			trigger: &types.Trigger{},
			files:   []string{"README.md"},
			want:    true,
		},
		{
			name:    "anyChangedPaths match",
			trigger: &types.Trigger{AnyChangedPaths: []string{"src/**/*.go"}},
			files:   []string{"src/api/server.go"},
			want:    true,
		},
		{
			name:    "anyChangedPaths no match",
			trigger: &types.Trigger{AnyChangedPaths: []string{"src/**/*.go"}},
			files:   []string{"docs/guide.md"},
			want:    false,
		},
		{
			name: "allChangedPaths satisfied when every pattern matches something",
			trigger: &types.Trigger{
				AllChangedPaths: []string{"migrations/**", "**/*.go"},
			},
			files: []string{"migrations/001.sql", "store/db.go"},
			want:  true,
		},
		{
			name: "allChangedPaths is a hard precondition",
			trigger: &types.Trigger{
				AllChangedPaths: []string{"migrations/**"},
				AnyChangedPaths: []string{"**/*.go"},
			},
			files: []string{"store/db.go"},
			want:  false,
		},
		{
			name:    "extension match without leading dot",
			trigger: &types.Trigger{AnyFileExtensions: []string{"tf"}},
			files:   []string{"modules/vpc/main.tf"},
			want:    true,
		},
		{
			name:    "extension match with leading dot",
			trigger: &types.Trigger{AnyFileExtensions: []string{".sql"}},
			files:   []string{"db/001_init.sql"},
			want:    true,
		},
		{
			name:    "extension no match",
			trigger: &types.Trigger{AnyFileExtensions: []string{".sql"}},
			files:   []string{"main.go"},
			want:    false,
		},
		{
			name:    "change surface glob match",
			trigger: &types.Trigger{ChangeSurface: []string{"infrastructure"}},
			files:   []string{"terraform/prod/main.tf"},
			want:    true,
		},
		{
			name:    "change surface no match",
			trigger: &types.Trigger{ChangeSurface: []string{"infrastructure"}},
			files:   []string{"README.md"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateTrigger(tt.trigger, tt.files, ctx); got != tt.want {
				t.Errorf("EvaluateTrigger() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTrigger_AnyListComposes(t *testing.T) {
	// Two any-clauses: either one firing fires the rule.
	trigger := &types.Trigger{
		AnyChangedPaths:   []string{"infra/**"},
		AnyFileExtensions: []string{".sql"},
	}
	ctx := &types.PRContext{}

	if !EvaluateTrigger(trigger, []string{"db/001.sql"}, ctx) {
		t.Error("second any-clause should fire the trigger")
	}
	if !EvaluateTrigger(trigger, []string{"infra/vpc.tf"}, ctx) {
		t.Error("first any-clause should fire the trigger")
	}
	if EvaluateTrigger(trigger, []string{"README.md"}, ctx) {
		t.Error("no any-clause matched, trigger should not fire")
	}
}

func TestEvaluateTrigger_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		trigger    *types.Trigger
		files      []string
		heuristics []string
		want       bool
	}{
		{
			name: "path-backed predicate matches files",
			trigger: &types.Trigger{When: &types.WhenClause{
				Predicates: &types.AnyAllClause{AnyOf: []string{"auth-sensitive"}},
			}},
			files: []string{"internal/auth/token.go"},
			want:  true,
		},
		{
			name: "behavioral predicate falls back to heuristics",
			trigger: &types.Trigger{When: &types.WhenClause{
				Predicates: &types.AnyAllClause{AnyOf: []string{"force-push"}},
			}},
			files:      []string{"README.md"},
			heuristics: []string{"force-push"},
			want:       true,
		},
		{
			name: "behavioral predicate without detected flag",
			trigger: &types.Trigger{When: &types.WhenClause{
				Predicates: &types.AnyAllClause{AnyOf: []string{"force-push"}},
			}},
			files: []string{"README.md"},
			want:  false,
		},
		{
			name: "predicate allOf failure aborts despite matching any-clause",
			trigger: &types.Trigger{
				When: &types.WhenClause{
					Predicates: &types.AnyAllClause{AllOf: []string{"large-refactor"}},
				},
				AnyChangedPaths: []string{"**/*.go"},
			},
			files: []string{"main.go"},
			want:  false,
		},
		{
			name: "predicate allOf satisfied lets any-clause decide",
			trigger: &types.Trigger{
				When: &types.WhenClause{
					Predicates: &types.AnyAllClause{AllOf: []string{"large-refactor"}},
				},
				AnyChangedPaths: []string{"**/*.go"},
			},
			files:      []string{"main.go"},
			heuristics: []string{"large-refactor"},
			want:       true,
		},
		{
			name: "changeSurfaces anyOf",
			trigger: &types.Trigger{When: &types.WhenClause{
				ChangeSurfaces: &types.AnyAllClause{AnyOf: []string{"ci-pipeline", "ownership"}},
			}},
			files: []string{".github/workflows/release.yml"},
			want:  true,
		},
		{
			name: "changeSurfaces allOf abort",
			trigger: &types.Trigger{When: &types.WhenClause{
				ChangeSurfaces: &types.AnyAllClause{AllOf: []string{"database-migration"}},
			}},
			files: []string{"README.md"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &types.PRContext{DetectedHeuristics: tt.heuristics}
			if got := EvaluateTrigger(tt.trigger, tt.files, ctx); got != tt.want {
				t.Errorf("EvaluateTrigger() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTrigger_PathListRef(t *testing.T) {
	ctx := &types.PRContext{
		Workspace: types.WorkspaceDefaults{
			PathLists: map[string][]string{
				"payment-paths": {"billing/**", "payments/**"},
			},
		},
	}

	trigger := &types.Trigger{AnyChangedPathsRef: "payment-paths"}
	if !EvaluateTrigger(trigger, []string{"billing/invoice.go"}, ctx) {
		t.Error("referenced path list should match")
	}
	if EvaluateTrigger(trigger, []string{"docs/README.md"}, ctx) {
		t.Error("referenced path list should not match docs")
	}

	// Unknown list name contributes false instead of aborting; a sibling
	// any-clause can still fire.
	unknown := &types.Trigger{
		AnyChangedPathsRef: "no-such-list",
		AnyFileExtensions:  []string{".go"},
	}
	if !EvaluateTrigger(unknown, []string{"main.go"}, ctx) {
		t.Error("sibling any-clause should still fire with unknown ref")
	}
	if EvaluateTrigger(&types.Trigger{AnyChangedPathsRef: "no-such-list"}, []string{"main.go"}, ctx) {
		t.Error("unknown ref alone should not fire")
	}
}

func TestFilterExcluded(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		excludes []string
		want     []string
	}{
		{
			name:     "no excludes keeps everything",
			files:    []string{"a.go", "b.md"},
			excludes: nil,
			want:     []string{"a.go", "b.md"},
		},
		{
			name:     "generated files removed",
			files:    []string{"api/server.go", "api/server.pb.go", "docs/README.md"},
			excludes: []string{"**/*.pb.go", "docs/**"},
			want:     []string{"api/server.go"},
		},
		{
			name:     "everything excluded leaves empty set",
			files:    []string{"vendor/a.go", "vendor/b.go"},
			excludes: []string{"vendor/**"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterExcluded(tt.files, tt.excludes)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterExcluded() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FilterExcluded()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExcludeThenTrigger(t *testing.T) {
	// A rule whose only matching files are excluded must not fire.
	rule := types.Rule{
		ExcludePaths: []string{"**/*_test.go"},
		Trigger:      &types.Trigger{AnyChangedPaths: []string{"**/*.go"}},
	}
	ctx := &types.PRContext{}

	files := FilterExcluded([]string{"pkg/thing_test.go"}, rule.ExcludePaths)
	if EvaluateTrigger(rule.Trigger, files, ctx) {
		t.Error("trigger fired on a fully excluded diff")
	}

	files = FilterExcluded([]string{"pkg/thing_test.go", "pkg/thing.go"}, rule.ExcludePaths)
	if !EvaluateTrigger(rule.Trigger, files, ctx) {
		t.Error("trigger should fire on the remaining non-excluded file")
	}
}

// Property-based test: trigger evaluation is deterministic and never panics
func TestEvaluateTrigger_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs always produce the same result", prop.ForAll(
		func(paths []string, patterns []string, always bool) bool {
			trigger := &types.Trigger{
				Always:          always,
				AnyChangedPaths: patterns,
			}
			ctx := &types.PRContext{}

			first := EvaluateTrigger(trigger, paths, ctx)
			for i := 0; i < 5; i++ {
				if EvaluateTrigger(trigger, paths, ctx) != first {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.RegexMatch(`[a-z]{1,8}/[a-z]{1,8}\.[a-z]{1,3}`)),
		gen.SliceOf(gen.RegexMatch(`[a-z*]{1,6}/\*\*`)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
