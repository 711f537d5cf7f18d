// internal/engine/comparators_test.go
package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/solatis/packgate/internal/types"
)

func TestMinApprovals(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		reviews    []types.Review
		params     map[string]any
		wantStatus types.ComparatorStatus
		wantReason string
	}{
		{
			name:       "nil reviews means evidence never fetched",
			reviews:    nil,
			params:     map[string]any{"minCount": 1},
			wantStatus: types.StatusUnknown,
			wantReason: ReasonEvidenceMissing,
		},
		{
			name:       "fetched but empty fails",
			reviews:    []types.Review{},
			params:     map[string]any{"minCount": 1},
			wantStatus: types.StatusFail,
			wantReason: ReasonApprovalsInsufficient,
		},
		{
			name: "enough approvals",
			reviews: []types.Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: now},
				{Reviewer: "bob", State: "approved", SubmittedAt: now},
			},
			params:     map[string]any{"minCount": 2},
			wantStatus: types.StatusPass,
		},
		{
			name: "later changes_requested revokes approval",
			reviews: []types.Review{
				{Reviewer: "alice", State: "approved", SubmittedAt: now},
				{Reviewer: "alice", State: "changes_requested", SubmittedAt: now.Add(time.Hour)},
			},
			params:     map[string]any{"minCount": 1},
			wantStatus: types.StatusFail,
			wantReason: ReasonApprovalsInsufficient,
		},
		{
			name:       "minCount defaults to 1",
			reviews:    []types.Review{{Reviewer: "alice", State: "approved", SubmittedAt: now}},
			params:     nil,
			wantStatus: types.StatusPass,
		},
		{
			name:       "non-numeric minCount degrades to unknown",
			reviews:    []types.Review{},
			params:     map[string]any{"minCount": "two"},
			wantStatus: types.StatusUnknown,
			wantReason: ReasonParamsInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &types.PRContext{Reviews: tt.reviews}
			result := minApprovals{}.Evaluate(ctx, tt.params)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.wantStatus, result.Message)
			}
			if tt.wantReason != "" && result.ReasonCode != tt.wantReason {
				t.Errorf("ReasonCode = %v, want %v", result.ReasonCode, tt.wantReason)
			}
		})
	}
}

func TestRequiredChecks(t *testing.T) {
	tests := []struct {
		name       string
		checks     []types.CheckRun
		params     map[string]any
		wantStatus types.ComparatorStatus
		wantReason string
	}{
		{
			name:       "nil check runs is unknown",
			checks:     nil,
			wantStatus: types.StatusUnknown,
			wantReason: ReasonEvidenceMissing,
		},
		{
			name: "all named checks green",
			checks: []types.CheckRun{
				{Name: "build", Status: "completed", Conclusion: "success"},
				{Name: "test", Status: "completed", Conclusion: "success"},
			},
			params:     map[string]any{"checks": []any{"build", "test"}},
			wantStatus: types.StatusPass,
		},
		{
			name: "named check failing",
			checks: []types.CheckRun{
				{Name: "build", Status: "completed", Conclusion: "failure"},
			},
			params:     map[string]any{"checks": []any{"build"}},
			wantStatus: types.StatusFail,
			wantReason: ReasonChecksFailing,
		},
		{
			name:   "named check absent counts as pending",
			checks: []types.CheckRun{},
			params: map[string]any{"checks": []any{"build"}},
			wantStatus: types.StatusUnknown,
			wantReason: ReasonChecksPending,
		},
		{
			name: "in-progress check is pending",
			checks: []types.CheckRun{
				{Name: "build", Status: "in_progress"},
			},
			params:     map[string]any{"checks": []any{"build"}},
			wantStatus: types.StatusUnknown,
			wantReason: ReasonChecksPending,
		},
		{
			name: "no names means every check run",
			checks: []types.CheckRun{
				{Name: "build", Status: "completed", Conclusion: "success"},
				{Name: "lint", Status: "completed", Conclusion: "neutral"},
			},
			wantStatus: types.StatusPass,
		},
		{
			name: "failing beats pending",
			checks: []types.CheckRun{
				{Name: "build", Status: "completed", Conclusion: "failure"},
				{Name: "test", Status: "queued"},
			},
			params:     map[string]any{"checks": []any{"build", "test"}},
			wantStatus: types.StatusFail,
			wantReason: ReasonChecksFailing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &types.PRContext{CheckRuns: tt.checks}
			result := requiredChecks{}.Evaluate(ctx, tt.params)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.wantStatus, result.Message)
			}
			if tt.wantReason != "" && result.ReasonCode != tt.wantReason {
				t.Errorf("ReasonCode = %v, want %v", result.ReasonCode, tt.wantReason)
			}
		})
	}
}

func TestNoSecretFindings(t *testing.T) {
	if r := (noSecretFindings{}).Evaluate(&types.PRContext{}, nil); r.Status != types.StatusUnknown {
		t.Errorf("nil findings should be unknown, got %v", r.Status)
	}
	if r := (noSecretFindings{}).Evaluate(&types.PRContext{SecretFindings: []types.SecretFinding{}}, nil); r.Status != types.StatusPass {
		t.Errorf("empty findings should pass, got %v", r.Status)
	}

	ctx := &types.PRContext{
		SecretFindings: []types.SecretFinding{
			{Path: "config/prod.env", RuleID: "aws-access-key", Line: 12},
		},
	}
	r := (noSecretFindings{}).Evaluate(ctx, nil)
	if r.Status != types.StatusFail || r.ReasonCode != ReasonSecretsFound {
		t.Errorf("findings should fail with secrets.found, got %v/%v", r.Status, r.ReasonCode)
	}
	if len(r.Evidence) != 1 || r.Evidence[0].Ref != "config/prod.env" {
		t.Errorf("evidence should reference the finding path: %+v", r.Evidence)
	}
}

func TestNoSecretFindings_EvidenceCapped(t *testing.T) {
	ctx := &types.PRContext{}
	for i := 0; i < maxEvidenceItems+5; i++ {
		ctx.SecretFindings = append(ctx.SecretFindings, types.SecretFinding{
			Path: fmt.Sprintf("file%d.env", i), RuleID: "generic", Line: i,
		})
	}
	r := (noSecretFindings{}).Evaluate(ctx, nil)
	if len(r.Evidence) > maxEvidenceItems {
		t.Errorf("evidence not capped: %d items", len(r.Evidence))
	}
}

func TestMaxDiffSize(t *testing.T) {
	big := &types.PRContext{Files: []types.ChangedFile{{Filename: "a.go", Additions: 900, Deletions: 200}}}
	small := &types.PRContext{Files: []types.ChangedFile{{Filename: "a.go", Additions: 10, Deletions: 2}}}

	if r := (maxDiffSize{}).Evaluate(big, map[string]any{"maxTotalLines": 1000}); r.Status != types.StatusFail {
		t.Errorf("1100 changed lines should fail, got %v", r.Status)
	}
	if r := (maxDiffSize{}).Evaluate(small, map[string]any{"maxTotalLines": 1000}); r.Status != types.StatusPass {
		t.Errorf("12 changed lines should pass, got %v", r.Status)
	}

	many := &types.PRContext{}
	for i := 0; i < 30; i++ {
		many.Files = append(many.Files, types.ChangedFile{Filename: fmt.Sprintf("f%d.go", i), Additions: 1})
	}
	if r := (maxDiffSize{}).Evaluate(many, map[string]any{"maxTotalLines": 1000, "maxFiles": 25}); r.Status != types.StatusFail {
		t.Errorf("30 files over a 25 file limit should fail, got %v", r.Status)
	}
}

func TestLabelPresent(t *testing.T) {
	ctx := &types.PRContext{Labels: []string{"Security-Reviewed", "backend"}}

	if r := (labelPresent{}).Evaluate(ctx, map[string]any{"label": "security-reviewed"}); r.Status != types.StatusPass {
		t.Errorf("label match is case-insensitive, got %v (%s)", r.Status, r.Message)
	}
	if r := (labelPresent{}).Evaluate(ctx, map[string]any{"labels": []any{"qa-signed", "security-reviewed"}}); r.Status != types.StatusPass {
		t.Errorf("any listed label should satisfy, got %v", r.Status)
	}
	if r := (labelPresent{}).Evaluate(ctx, map[string]any{"label": "qa-signed"}); r.Status != types.StatusFail || r.ReasonCode != ReasonLabelMissing {
		t.Errorf("missing label should fail, got %v/%v", r.Status, r.ReasonCode)
	}
	if r := (labelPresent{}).Evaluate(ctx, nil); r.Status != types.StatusUnknown || r.ReasonCode != ReasonParamsInvalid {
		t.Errorf("no label params should be invalid, got %v/%v", r.Status, r.ReasonCode)
	}
}

func TestTitleMatches(t *testing.T) {
	ctx := &types.PRContext{Title: "feat(api): add pagination"}

	if r := (titleMatches{}).Evaluate(ctx, map[string]any{"pattern": `^(feat|fix)\(`}); r.Status != types.StatusPass {
		t.Errorf("matching title should pass, got %v", r.Status)
	}
	if r := (titleMatches{}).Evaluate(ctx, map[string]any{"pattern": `^chore:`}); r.Status != types.StatusFail || r.ReasonCode != ReasonTitleMismatch {
		t.Errorf("mismatching title should fail, got %v/%v", r.Status, r.ReasonCode)
	}
	if r := (titleMatches{}).Evaluate(ctx, map[string]any{"pattern": `[`}); r.Status != types.StatusUnknown || r.ReasonCode != ReasonParamsInvalid {
		t.Errorf("invalid regex should be unknown/params.invalid, got %v/%v", r.Status, r.ReasonCode)
	}
	if r := (titleMatches{}).Evaluate(ctx, nil); r.Status != types.StatusUnknown {
		t.Errorf("missing pattern should be unknown, got %v", r.Status)
	}
}
