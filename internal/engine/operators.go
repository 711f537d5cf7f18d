// internal/engine/operators.go
package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Condition operator comparison logic.
 *
 * Implements the leaf operators with type-aware comparison rules. Values
 * come straight from fact resolution and YAML/JSON decoding, so numeric
 * comparison handles float64/int/int64 mixing.
 *
 * Operators:
 *   - exists: presence check (absent sentinel handled by the caller)
 *   - eq/neq: equality with numeric tolerance
 *   - lt/lte/gt/gte: numeric comparison; non-numeric operands error
 *   - matches: RE2 pattern match on string values
 *   - in: membership of the fact value in the condition's value list
 *   - contains: list-fact contains value, or string-fact substring
 *
 * Why function-based: a switch over ten operators is cleaner than ten
 * interface implementations with minimal behavior variation.
 */

// Operator names accepted in pack conditions.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpLt       = "lt"
	OpLte      = "lte"
	OpGt       = "gt"
	OpGte      = "gte"
	OpMatches  = "matches"
	OpIn       = "in"
	OpContains = "contains"
	OpExists   = "exists"

	// Composite operators.
	OpAnd = "AND"
	OpOr  = "OR"
)

// KnownOperator reports whether op is a recognized leaf operator.
func KnownOperator(op string) bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpMatches, OpIn, OpContains, OpExists:
		return true
	}
	return false
}

// compare applies a leaf operator to the fact value and condition value.
// Returns an error for unknown operators, non-numeric ordering operands,
// and invalid regex patterns; the caller converts errors into unsatisfied
// results so a bad condition never silently passes.
func compare(op string, value, target any) (bool, error) {
	switch op {
	case OpEq:
		return compareEqual(value, target), nil
	case OpNeq:
		return !compareEqual(value, target), nil
	case OpLt, OpLte, OpGt, OpGte:
		return compareOrdered(op, value, target)
	case OpMatches:
		return compareMatches(value, target)
	case OpIn:
		return compareIn(value, target)
	case OpContains:
		return compareContains(value, target)
	case OpExists:
		// Absent values never reach compare; anything present exists.
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", types.ErrUnknownOperator, op)
	}
}

// compareEqual performs equality comparison with numeric type coercion.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa == sb
		}
	}
	return a == b
}

// compareOrdered performs numeric comparison for lt/lte/gt/gte.
func compareOrdered(op string, a, b any) (bool, error) {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return false, fmt.Errorf("operator %q requires numeric operands, got %T and %T", op, a, b)
	}
	switch op {
	case OpLt:
		return na < nb, nil
	case OpLte:
		return na <= nb, nil
	case OpGt:
		return na > nb, nil
	default:
		return na >= nb, nil
	}
}

// compareMatches applies an RE2 pattern to a string fact value.
func compareMatches(value, pattern any) (bool, error) {
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("operator %q requires a string fact value, got %T", OpMatches, value)
	}
	ps, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("operator %q requires a string pattern, got %T", OpMatches, pattern)
	}
	re, err := regexp.Compile(ps)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", ps, err)
	}
	return re.MatchString(vs), nil
}

// compareIn checks membership of the fact value in the condition's list.
func compareIn(value, set any) (bool, error) {
	elems, err := anySlice(set)
	if err != nil {
		return false, fmt.Errorf("operator %q requires a list value: %w", OpIn, err)
	}
	for _, e := range elems {
		if compareEqual(value, e) {
			return true, nil
		}
	}
	return false, nil
}

// compareContains checks that a list fact contains the value, or that a
// string fact contains the value as a substring.
func compareContains(value, target any) (bool, error) {
	switch v := value.(type) {
	case string:
		ts, ok := target.(string)
		if !ok {
			return false, fmt.Errorf("operator %q on a string fact requires a string value, got %T", OpContains, target)
		}
		return strings.Contains(v, ts), nil
	default:
		elems, err := anySlice(value)
		if err != nil {
			return false, fmt.Errorf("operator %q requires a list or string fact: %w", OpContains, err)
		}
		for _, e := range elems {
			if compareEqual(e, target) {
				return true, nil
			}
		}
		return false, nil
	}
}

// asNumbers attempts to convert both values to float64.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it is a numeric type.
// Handles float64 (JSON), int (Go literals, YAML), and int64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// anySlice normalizes []any and []string into []any.
func anySlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("got %T", v)
	}
}
