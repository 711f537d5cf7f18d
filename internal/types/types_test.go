// internal/types/types_test.go
package types

import (
	"testing"
	"time"
)

func TestWorstDecision(t *testing.T) {
	tests := []struct {
		a, b, want Decision
	}{
		{DecisionPass, DecisionPass, DecisionPass},
		{DecisionPass, DecisionWarn, DecisionWarn},
		{DecisionWarn, DecisionPass, DecisionWarn},
		{DecisionWarn, DecisionBlock, DecisionBlock},
		{DecisionBlock, DecisionPass, DecisionBlock},
		{DecisionBlock, DecisionWarn, DecisionBlock},
	}
	for _, tt := range tests {
		if got := WorstDecision(tt.a, tt.b); got != tt.want {
			t.Errorf("WorstDecision(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDecisionValid(t *testing.T) {
	for _, d := range []Decision{DecisionPass, DecisionWarn, DecisionBlock} {
		if !d.Valid() {
			t.Errorf("%v should be valid", d)
		}
	}
	if Decision("maybe").Valid() || Decision("").Valid() {
		t.Error("unknown decisions must not validate")
	}
}

func TestApprovalCount(t *testing.T) {
	base := time.Unix(1000, 0)

	tests := []struct {
		name    string
		reviews []Review
		want    int
	}{
		{name: "no reviews", reviews: []Review{}, want: 0},
		{
			name: "single approval",
			reviews: []Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: base},
			},
			want: 1,
		},
		{
			name: "re-approval by same reviewer counts once",
			reviews: []Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: base},
				{Reviewer: "alice", State: "approved", SubmittedAt: base.Add(time.Hour)},
			},
			want: 1,
		},
		{
			name: "later changes_requested revokes",
			reviews: []Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: base},
				{Reviewer: "alice", State: "changes_requested", SubmittedAt: base.Add(time.Hour)},
			},
			want: 0,
		},
		{
			name: "approval after changes_requested counts",
			reviews: []Review{
				{Reviewer: "alice", State: "changes_requested", SubmittedAt: base},
				{Reviewer: "alice", State: "approved", SubmittedAt: base.Add(time.Hour)},
			},
			want: 1,
		},
		{
			name: "distinct reviewers counted independently",
			reviews: []Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: base},
				{Reviewer: "bob", State: "approved", SubmittedAt: base},
				{Reviewer: "carol", State: "commented", SubmittedAt: base},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &PRContext{Reviews: tt.reviews}
			if got := ctx.ApprovalCount(); got != tt.want {
				t.Errorf("ApprovalCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDiffTotals(t *testing.T) {
	ctx := &PRContext{
		Files: []ChangedFile{
			{Filename: "a.go", Additions: 10, Deletions: 3},
			{Filename: "b.go", Additions: 2, Deletions: 1},
		},
	}
	a, d, total := ctx.DiffTotals()
	if a != 12 || d != 4 || total != 16 {
		t.Errorf("DiffTotals() = %d, %d, %d", a, d, total)
	}
}

func TestHasLabel(t *testing.T) {
	ctx := &PRContext{Labels: []string{"Security-Reviewed"}}
	if !ctx.HasLabel("security-reviewed") {
		t.Error("label comparison should be case-insensitive")
	}
	if ctx.HasLabel("qa-signed") {
		t.Error("absent label should not match")
	}
}

func TestIDs(t *testing.T) {
	a := NewEvaluationID()
	b := NewEvaluationID()
	if a == b {
		t.Error("evaluation ids must be unique")
	}
	if len(a) != 36 {
		t.Errorf("id %q is not a canonical UUID", a)
	}
}
