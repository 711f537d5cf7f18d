// internal/engine/translate.go
package engine

import (
	"fmt"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Comparator-to-condition translation.
 *
 * A finite, explicit mapping table rewriting a subset of comparators into
 * an equivalent fact condition. The translated condition powers hybrid
 * mode, where the evaluator cross-checks both mechanisms and logs
 * divergence; the comparator result stays authoritative.
 *
 * Not every comparator has a fact equivalent: REQUIRED_CHECKS needs
 * per-check detail that no single fact carries. Untranslatable ids return
 * ErrTranslationUnavailable with an explanation; callers treat that as
 * "hybrid mode unavailable for this obligation", not as an evaluation
 * error. No general-purpose translation is attempted.
 */

// translator builds the condition equivalent for one comparator's params.
type translator func(params map[string]any) ([]types.Condition, error)

// translations is the complete mapping table.
var translations = map[string]translator{
	ComparatorMinApprovals: func(params map[string]any) ([]types.Condition, error) {
		minCount, err := intParam(params, "minCount", 1)
		if err != nil {
			return nil, err
		}
		return []types.Condition{
			{Fact: "pr.approvals.count", Operator: OpGte, Value: minCount},
		}, nil
	},

	ComparatorMaxDiffSize: func(params map[string]any) ([]types.Condition, error) {
		maxLines, err := intParam(params, "maxTotalLines", 1000)
		if err != nil {
			return nil, err
		}
		return []types.Condition{
			{Fact: "diff.total", Operator: OpLte, Value: maxLines},
		}, nil
	},

	ComparatorNoSecretFindings: func(_ map[string]any) ([]types.Condition, error) {
		return []types.Condition{
			{Fact: "secrets.findings.count", Operator: OpEq, Value: 0},
		}, nil
	},

	ComparatorLabelPresent: func(params map[string]any) ([]types.Condition, error) {
		labels, err := stringSliceParam(params, "labels")
		if err != nil {
			return nil, err
		}
		if single, serr := stringParam(params, "label", ""); serr == nil && single != "" {
			labels = append(labels, single)
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("no labels configured")
		}
		children := make([]types.Condition, 0, len(labels))
		for _, l := range labels {
			children = append(children, types.Condition{Fact: "pr.labels", Operator: OpContains, Value: l})
		}
		if len(children) == 1 {
			return children, nil
		}
		return []types.Condition{{Operator: OpOr, Conditions: children}}, nil
	},

	ComparatorTitleMatches: func(params map[string]any) ([]types.Condition, error) {
		pattern, err := stringParam(params, "pattern", "")
		if err != nil || pattern == "" {
			return nil, fmt.Errorf("no pattern configured")
		}
		return []types.Condition{
			{Fact: "pr.title", Operator: OpMatches, Value: pattern},
		}, nil
	},
}

// TranslateComparator rewrites a comparator obligation into an equivalent
// condition list, or reports why it cannot.
func TranslateComparator(comparatorID string, params map[string]any) ([]types.Condition, error) {
	t, ok := translations[comparatorID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTranslationUnavailable, comparatorID)
	}
	conds, err := t(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrTranslationUnavailable, comparatorID, err)
	}
	return conds, nil
}

// Translatable reports whether a comparator id has a condition equivalent.
func Translatable(comparatorID string) bool {
	_, ok := translations[comparatorID]
	return ok
}
