// Package types provides domain models shared across PackGate components.
//
// Zero-dependency design: types.go, packs.go, context.go, results.go and
// errors.go use only the standard library so the evaluation engine can be
// embedded without pulling in storage or CLI dependencies. ID utilities in
// ids.go import uuid but are isolated for selective inclusion.
package types

// Decision is a gate decision with strict precedence block > warn > pass.
// String-typed for stable JSON/YAML serialization in audit output.
type Decision string

const (
	DecisionPass  Decision = "pass"
	DecisionWarn  Decision = "warn"
	DecisionBlock Decision = "block"
)

// decisionRank orders decisions for worst-case aggregation.
var decisionRank = map[Decision]int{
	DecisionPass:  0,
	DecisionWarn:  1,
	DecisionBlock: 2,
}

// Valid reports whether d is one of the three recognized decisions.
func (d Decision) Valid() bool {
	_, ok := decisionRank[d]
	return ok
}

// Rank returns the precedence rank of the decision (pass=0, warn=1, block=2).
// Unrecognized decisions rank as pass so malformed config can never escalate.
func (d Decision) Rank() int {
	return decisionRank[d]
}

// WorstDecision returns the higher-precedence of two decisions.
func WorstDecision(a, b Decision) Decision {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ComparatorStatus is the outcome of one comparator evaluation.
type ComparatorStatus string

const (
	StatusPass    ComparatorStatus = "pass"
	StatusFail    ComparatorStatus = "fail"
	StatusUnknown ComparatorStatus = "unknown"
)

// EvidenceItem is one piece of supporting evidence attached to a finding.
// Ref carries an optional locator (file path, check name, reviewer login).
type EvidenceItem struct {
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
	Ref     string `json:"ref,omitempty"`
}

// Resource limits enforced at pack validation time to bound one evaluation.
const (
	// MaxRulesPerPack bounds rule iteration per evaluation.
	// 256 rules covers the largest observed policy sets with margin.
	MaxRulesPerPack = 256

	// MaxObligationsPerRule bounds the obligation loop per rule.
	MaxObligationsPerRule = 32

	// MaxConditionDepth prevents stack overflow during recursive condition
	// evaluation. 16 levels handles deeply nested AND/OR trees.
	MaxConditionDepth = 16

	// MaxGlobPatterns bounds path-glob lists per trigger clause.
	MaxGlobPatterns = 64

	// MaxGlobLength bounds a single glob pattern.
	MaxGlobLength = 256
)
