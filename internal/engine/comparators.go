// internal/engine/comparators.go
package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Built-in comparators.
 *
 * Each comparator is stateless and versioned independently of the
 * evaluator: the version bumps whenever its judgment changes, so the
 * engine fingerprint can attribute a decision to the exact logic that
 * produced it. Comparators needing external evidence (reviews, check
 * runs, secret scans) report unknown with an evidence-missing reason code
 * when the host never fetched that data (nil slice on the context).
 *
 * Reason codes are stable strings consumed by the external check
 * renderer; changing one is a breaking change for report templates.
 */

// Built-in comparator ids.
const (
	ComparatorMinApprovals     = "MIN_APPROVALS"
	ComparatorRequiredChecks   = "REQUIRED_CHECKS"
	ComparatorNoSecretFindings = "NO_SECRET_FINDINGS"
	ComparatorMaxDiffSize      = "MAX_DIFF_SIZE"
	ComparatorLabelPresent     = "LABEL_PRESENT"
	ComparatorTitleMatches     = "TITLE_MATCHES"
)

// Reason codes shared across comparators and the evaluator.
const (
	ReasonEvidenceMissing       = "evidence.missing"
	ReasonParamsInvalid         = "params.invalid"
	ReasonComparatorTimeout     = "comparator.timeout"
	ReasonComparatorUnknown     = "comparator.unregistered"
	ReasonComparatorPanic       = "comparator.panic"
	ReasonEvaluationCancelled   = "evaluation.cancelled"
	ReasonApprovalGate          = "approval.gate"
	ReasonApprovalsInsufficient = "approvals.insufficient"
	ReasonChecksFailing         = "checks.failing"
	ReasonChecksPending         = "checks.pending"
	ReasonSecretsFound          = "secrets.found"
	ReasonDiffTooLarge          = "diff.too_large"
	ReasonLabelMissing          = "label.missing"
	ReasonTitleMismatch         = "title.mismatch"
)

// Evidence caps keep findings renderable; counts beyond the cap are
// summarized rather than listed.
const maxEvidenceItems = 10

// minApprovals requires at least minCount distinct current approvals.
type minApprovals struct{}

func (minApprovals) Version() string { return "1.2.0" }

func (minApprovals) Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult {
	minCount, err := intParam(params, "minCount", 1)
	if err != nil {
		return invalidParams(err)
	}
	if ctx.Reviews == nil {
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonEvidenceMissing,
			Message:    "review data not supplied on context",
		}
	}

	count := ctx.ApprovalCount()
	evidence := approvalEvidence(ctx)
	if count >= minCount {
		return types.ComparatorResult{
			Status:   types.StatusPass,
			Evidence: evidence,
			Message:  fmt.Sprintf("%d of %d required approvals", count, minCount),
		}
	}
	return types.ComparatorResult{
		Status:     types.StatusFail,
		Evidence:   evidence,
		ReasonCode: ReasonApprovalsInsufficient,
		Message:    fmt.Sprintf("%d of %d required approvals", count, minCount),
	}
}

// approvalEvidence lists current approvers, capped.
func approvalEvidence(ctx *types.PRContext) []types.EvidenceItem {
	var items []types.EvidenceItem
	seen := make(map[string]bool)
	for _, r := range ctx.Reviews {
		if !strings.EqualFold(r.State, "approved") || seen[r.Reviewer] {
			continue
		}
		seen[r.Reviewer] = true
		if len(items) == maxEvidenceItems {
			break
		}
		items = append(items, types.EvidenceItem{
			Kind:    "review",
			Summary: "approved",
			Ref:     r.Reviewer,
		})
	}
	return items
}

// requiredChecks requires the named check runs (or, with no names, every
// check run) to have completed successfully.
type requiredChecks struct{}

func (requiredChecks) Version() string { return "1.1.0" }

func (requiredChecks) Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult {
	names, err := stringSliceParam(params, "checks")
	if err != nil {
		return invalidParams(err)
	}
	if ctx.CheckRuns == nil {
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonEvidenceMissing,
			Message:    "check-run data not supplied on context",
		}
	}

	byName := make(map[string]types.CheckRun, len(ctx.CheckRuns))
	for _, cr := range ctx.CheckRuns {
		byName[cr.Name] = cr
	}
	if len(names) == 0 {
		for _, cr := range ctx.CheckRuns {
			names = append(names, cr.Name)
		}
	}

	var failing, pending []types.EvidenceItem
	for _, name := range names {
		cr, ok := byName[name]
		switch {
		case !ok || cr.Status != "completed":
			pending = append(pending, types.EvidenceItem{Kind: "check", Summary: "not completed", Ref: name})
		case cr.Conclusion != "success" && cr.Conclusion != "neutral" && cr.Conclusion != "skipped":
			failing = append(failing, types.EvidenceItem{Kind: "check", Summary: cr.Conclusion, Ref: name})
		}
	}

	if len(failing) > 0 {
		return types.ComparatorResult{
			Status:     types.StatusFail,
			Evidence:   capEvidence(failing),
			ReasonCode: ReasonChecksFailing,
			Message:    fmt.Sprintf("%d required check(s) failing", len(failing)),
		}
	}
	if len(pending) > 0 {
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			Evidence:   capEvidence(pending),
			ReasonCode: ReasonChecksPending,
			Message:    fmt.Sprintf("%d required check(s) not completed", len(pending)),
		}
	}
	return types.ComparatorResult{
		Status:  types.StatusPass,
		Message: fmt.Sprintf("%d required check(s) green", len(names)),
	}
}

// noSecretFindings fails when the secret scan reported any finding.
type noSecretFindings struct{}

func (noSecretFindings) Version() string { return "1.0.1" }

func (noSecretFindings) Evaluate(ctx *types.PRContext, _ map[string]any) types.ComparatorResult {
	if ctx.SecretFindings == nil {
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonEvidenceMissing,
			Message:    "secret-scan data not supplied on context",
		}
	}
	if len(ctx.SecretFindings) == 0 {
		return types.ComparatorResult{Status: types.StatusPass, Message: "no secret findings"}
	}

	var items []types.EvidenceItem
	for _, f := range ctx.SecretFindings {
		items = append(items, types.EvidenceItem{
			Kind:    "secret",
			Summary: fmt.Sprintf("%s at line %d", f.RuleID, f.Line),
			Ref:     f.Path,
		})
	}
	return types.ComparatorResult{
		Status:     types.StatusFail,
		Evidence:   capEvidence(items),
		ReasonCode: ReasonSecretsFound,
		Message:    fmt.Sprintf("%d secret finding(s) in diff", len(ctx.SecretFindings)),
	}
}

// maxDiffSize fails when the diff exceeds maxTotalLines changed lines or
// maxFiles changed files.
type maxDiffSize struct{}

func (maxDiffSize) Version() string { return "1.0.0" }

func (maxDiffSize) Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult {
	maxLines, err := intParam(params, "maxTotalLines", 1000)
	if err != nil {
		return invalidParams(err)
	}
	maxFiles, err := intParam(params, "maxFiles", 0) // 0 = no file limit
	if err != nil {
		return invalidParams(err)
	}

	_, _, total := ctx.DiffTotals()
	if total > maxLines {
		return types.ComparatorResult{
			Status:     types.StatusFail,
			ReasonCode: ReasonDiffTooLarge,
			Message:    fmt.Sprintf("%d changed lines exceed limit %d", total, maxLines),
		}
	}
	if maxFiles > 0 && len(ctx.Files) > maxFiles {
		return types.ComparatorResult{
			Status:     types.StatusFail,
			ReasonCode: ReasonDiffTooLarge,
			Message:    fmt.Sprintf("%d changed files exceed limit %d", len(ctx.Files), maxFiles),
		}
	}
	return types.ComparatorResult{
		Status:  types.StatusPass,
		Message: fmt.Sprintf("%d changed lines across %d files", total, len(ctx.Files)),
	}
}

// labelPresent requires one of the configured labels on the PR.
type labelPresent struct{}

func (labelPresent) Version() string { return "1.0.0" }

func (labelPresent) Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult {
	labels, err := stringSliceParam(params, "labels")
	if err != nil {
		return invalidParams(err)
	}
	if single, serr := stringParam(params, "label", ""); serr == nil && single != "" {
		labels = append(labels, single)
	}
	if len(labels) == 0 {
		return invalidParams(fmt.Errorf("requires %q or %q", "label", "labels"))
	}

	for _, l := range labels {
		if ctx.HasLabel(l) {
			return types.ComparatorResult{
				Status:   types.StatusPass,
				Evidence: []types.EvidenceItem{{Kind: "label", Summary: "present", Ref: l}},
				Message:  fmt.Sprintf("label %q present", l),
			}
		}
	}
	return types.ComparatorResult{
		Status:     types.StatusFail,
		ReasonCode: ReasonLabelMissing,
		Message:    fmt.Sprintf("none of the required labels present: %s", strings.Join(labels, ", ")),
	}
}

// titleMatches requires the PR title to match an RE2 pattern.
type titleMatches struct{}

func (titleMatches) Version() string { return "1.0.0" }

func (titleMatches) Evaluate(ctx *types.PRContext, params map[string]any) types.ComparatorResult {
	pattern, err := stringParam(params, "pattern", "")
	if err != nil || pattern == "" {
		return invalidParams(fmt.Errorf("requires a %q string", "pattern"))
	}
	re, rerr := regexp.Compile(pattern)
	if rerr != nil {
		return invalidParams(fmt.Errorf("invalid pattern %q: %v", pattern, rerr))
	}
	if re.MatchString(ctx.Title) {
		return types.ComparatorResult{Status: types.StatusPass, Message: "title matches pattern"}
	}
	return types.ComparatorResult{
		Status:     types.StatusFail,
		ReasonCode: ReasonTitleMismatch,
		Message:    fmt.Sprintf("title does not match %q", pattern),
	}
}

// invalidParams builds the unknown result for malformed params.
// Configuration errors degrade to unknown findings, never to panics.
func invalidParams(err error) types.ComparatorResult {
	return types.ComparatorResult{
		Status:     types.StatusUnknown,
		ReasonCode: ReasonParamsInvalid,
		Message:    err.Error(),
	}
}

// capEvidence truncates evidence lists to maxEvidenceItems.
func capEvidence(items []types.EvidenceItem) []types.EvidenceItem {
	if len(items) <= maxEvidenceItems {
		return items
	}
	capped := items[:maxEvidenceItems]
	capped = append(capped, types.EvidenceItem{
		Kind:    "summary",
		Summary: fmt.Sprintf("and %d more", len(items)-maxEvidenceItems),
	})
	return capped
}

// intParam extracts an integer parameter, accepting JSON/YAML numeric
// decodings. Missing keys return the default.
func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("param %q must be an integer, got %T", key, v)
	}
}

// stringParam extracts a string parameter. Missing keys return the default.
func stringParam(params map[string]any, key, def string) (string, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	return s, nil
}

// stringSliceParam extracts a string-list parameter, accepting []any from
// JSON/YAML decoding. Missing keys return nil.
func stringSliceParam(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, nil
	}
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("param %q must be a list of strings, got element %T", key, e)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %q must be a list of strings, got %T", key, v)
	}
}
