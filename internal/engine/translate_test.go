// internal/engine/translate_test.go
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/solatis/packgate/internal/types"
)

func TestTranslateComparator(t *testing.T) {
	tests := []struct {
		name         string
		comparatorID string
		params       map[string]any
		wantErr      bool
	}{
		{name: "min approvals", comparatorID: ComparatorMinApprovals, params: map[string]any{"minCount": 2}},
		{name: "max diff size", comparatorID: ComparatorMaxDiffSize, params: map[string]any{"maxTotalLines": 500}},
		{name: "no secret findings", comparatorID: ComparatorNoSecretFindings},
		{name: "label present single", comparatorID: ComparatorLabelPresent, params: map[string]any{"label": "approved"}},
		{name: "label present multi becomes OR", comparatorID: ComparatorLabelPresent, params: map[string]any{"labels": []any{"a", "b"}}},
		{name: "title matches", comparatorID: ComparatorTitleMatches, params: map[string]any{"pattern": "^feat"}},
		{name: "required checks has no fact equivalent", comparatorID: ComparatorRequiredChecks, wantErr: true},
		{name: "unknown comparator", comparatorID: "NO_SUCH", wantErr: true},
		{name: "label present without labels", comparatorID: ComparatorLabelPresent, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conds, err := TranslateComparator(tt.comparatorID, tt.params)
			if tt.wantErr {
				if !errors.Is(err, types.ErrTranslationUnavailable) {
					t.Fatalf("error = %v, want ErrTranslationUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TranslateComparator() error = %v", err)
			}
			if len(conds) == 0 {
				t.Fatal("translation produced no conditions")
			}
		})
	}
}

func TestTranslatable(t *testing.T) {
	if !Translatable(ComparatorMinApprovals) {
		t.Error("MIN_APPROVALS should be translatable")
	}
	if Translatable(ComparatorRequiredChecks) {
		t.Error("REQUIRED_CHECKS should not be translatable")
	}
}

// The translated condition must agree with the comparator on fully
// fetched contexts.
func TestTranslation_AgreesWithComparator(t *testing.T) {
	now := time.Now()
	contexts := []*types.PRContext{
		{
			Reviews: []types.Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: now},
				{Reviewer: "bob", State: "approved", SubmittedAt: now},
			},
			Files:          []types.ChangedFile{{Filename: "a.go", Additions: 50}},
			SecretFindings: []types.SecretFinding{},
			Labels:         []string{"security-reviewed"},
			Title:          "fix: close file handle",
		},
		{
			Reviews:        []types.Review{},
			Files:          []types.ChangedFile{{Filename: "a.go", Additions: 5000}},
			SecretFindings: []types.SecretFinding{{Path: "x.env", RuleID: "key", Line: 1}},
			Labels:         []string{},
			Title:          "stuff",
		},
	}

	cases := []struct {
		comparatorID string
		params       map[string]any
	}{
		{ComparatorMinApprovals, map[string]any{"minCount": 2}},
		{ComparatorMaxDiffSize, map[string]any{"maxTotalLines": 1000}},
		{ComparatorNoSecretFindings, nil},
		{ComparatorLabelPresent, map[string]any{"label": "security-reviewed"}},
		{ComparatorTitleMatches, map[string]any{"pattern": `^(feat|fix):`}},
	}

	registry := DefaultRegistry()
	catalog := NewFactCatalog()

	for _, ctx := range contexts {
		facts := catalog.ResolveAll(ctx)
		for _, c := range cases {
			comp, ok := registry.Lookup(c.comparatorID)
			if !ok {
				t.Fatalf("comparator %s not registered", c.comparatorID)
			}
			compResult := comp.Evaluate(ctx, c.params)

			conds, err := TranslateComparator(c.comparatorID, c.params)
			if err != nil {
				t.Fatalf("translate %s: %v", c.comparatorID, err)
			}
			condResult := EvaluateConditions(conds, facts)

			wantSatisfied := compResult.Status == types.StatusPass
			if condResult.Satisfied != wantSatisfied {
				t.Errorf("%s: comparator %v but condition satisfied=%v",
					c.comparatorID, compResult.Status, condResult.Satisfied)
			}
		}
	}
}
