// internal/engine/conditions.go
package engine

import (
	"fmt"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Condition tree evaluation.
 *
 * Evaluates a boolean expression tree over resolved facts. Leaf conditions
 * look up the fact by name; an absent or uncataloged fact evaluates to
 * unsatisfied with an explanatory error rather than satisfied - conditions
 * never silently pass on missing data.
 *
 * Composite semantics: AND short-circuits on the first unsatisfied child,
 * OR on the first satisfied child. ExplainCondition evaluates every child
 * regardless, for auditability. Child errors never abort sibling
 * evaluation; the first error encountered is recorded on the composite.
 *
 * EvaluateConditions (plural) aggregates a top-level condition list with
 * all-must-be-satisfied semantics, recording the first error.
 */

// ConditionOutcome is the result of evaluating one condition node.
type ConditionOutcome struct {
	Satisfied bool
	Err       string
	Children  []ConditionOutcome
}

// EvaluateCondition evaluates a single condition against resolved facts,
// short-circuiting composites. Depth is bounded by MaxConditionDepth;
// exceeding it yields an unsatisfied outcome with an error.
func EvaluateCondition(cond types.Condition, facts map[string]any) ConditionOutcome {
	return evalCondition(cond, facts, 0, false)
}

// ExplainCondition evaluates a condition without short-circuiting, so the
// outcome carries a result for every child node.
func ExplainCondition(cond types.Condition, facts map[string]any) ConditionOutcome {
	return evalCondition(cond, facts, 0, true)
}

// EvaluateConditions aggregates a condition list: all must be satisfied.
// Every condition is evaluated (no short-circuit across the list) and the
// first error encountered is returned.
func EvaluateConditions(conds []types.Condition, facts map[string]any) types.ConditionResult {
	result := types.ConditionResult{Satisfied: true}
	for _, cond := range conds {
		out := EvaluateCondition(cond, facts)
		if !out.Satisfied {
			result.Satisfied = false
		}
		if out.Err != "" && result.Error == "" {
			result.Error = out.Err
		}
	}
	if len(conds) == 0 {
		result.Satisfied = false
		result.Error = types.ErrMalformedCondition.Error() + ": empty condition list"
	}
	return result
}

// evalCondition dispatches leaf vs composite evaluation.
func evalCondition(cond types.Condition, facts map[string]any, depth int, explain bool) ConditionOutcome {
	if depth > types.MaxConditionDepth {
		return ConditionOutcome{Err: types.ErrConditionTooDeep.Error()}
	}

	if cond.IsComposite() {
		return evalComposite(cond, facts, depth, explain)
	}
	return evalLeaf(cond, facts)
}

// evalComposite evaluates AND/OR over child conditions.
func evalComposite(cond types.Condition, facts map[string]any, depth int, explain bool) ConditionOutcome {
	out := ConditionOutcome{}

	isAnd := cond.Operator == OpAnd
	isOr := cond.Operator == OpOr
	if !isAnd && !isOr {
		out.Err = fmt.Sprintf("%v: composite operator must be AND or OR, got %q", types.ErrMalformedCondition, cond.Operator)
		return out
	}

	out.Satisfied = isAnd // AND starts true, OR starts false
	decided := false
	for _, child := range cond.Conditions {
		if decided && !explain {
			break
		}
		childOut := evalCondition(child, facts, depth+1, explain)
		out.Children = append(out.Children, childOut)
		if childOut.Err != "" && out.Err == "" {
			out.Err = childOut.Err
		}
		if !decided {
			if isAnd && !childOut.Satisfied {
				out.Satisfied = false
				decided = true
			}
			if isOr && childOut.Satisfied {
				out.Satisfied = true
				decided = true
			}
		}
	}
	return out
}

// evalLeaf resolves the fact and applies the operator. The exists operator
// is answered directly from presence so it can test absence without
// tripping the missing-fact error path.
func evalLeaf(cond types.Condition, facts map[string]any) ConditionOutcome {
	if cond.Fact == "" {
		return ConditionOutcome{Err: types.ErrMalformedCondition.Error() + ": leaf condition missing fact name"}
	}

	value, ok := facts[cond.Fact]
	present := ok && !IsAbsent(value)

	if cond.Operator == OpExists {
		return ConditionOutcome{Satisfied: present}
	}

	if !present {
		return ConditionOutcome{
			Err: fmt.Sprintf("%v: %q", types.ErrFactAbsent, cond.Fact),
		}
	}

	matched, err := compare(cond.Operator, value, cond.Value)
	if err != nil {
		return ConditionOutcome{Err: err.Error()}
	}
	return ConditionOutcome{Satisfied: matched}
}
