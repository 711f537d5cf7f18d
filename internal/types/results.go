// internal/types/results.go
package types

import "time"

/*
 * Evaluation output types.
 *
 * Findings are append-only within one evaluation and never mutated after
 * creation. PackEvaluationResult is produced once per (pack, PR context)
 * pair and is otherwise immutable. The EngineFingerprint records exactly
 * which evaluator, comparator, and fact-catalog versions produced a
 * decision so it can be explained after the implementations evolve - it is
 * evidence of which logic ran, not a cache key.
 */

// ComparatorResult is the outcome of one comparator invocation.
type ComparatorResult struct {
	Status     ComparatorStatus `json:"status"`
	Evidence   []EvidenceItem   `json:"evidence,omitempty"`
	ReasonCode string           `json:"reasonCode,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// ConditionResult is the outcome of one condition-obligation evaluation.
// Error is non-empty when a fact was absent or the expression was
// malformed; such results derive the obligation's unknown decision.
type ConditionResult struct {
	Satisfied bool   `json:"satisfied"`
	Error     string `json:"error,omitempty"`
}

// Finding is the recorded outcome of one obligation evaluation. Comparator
// and Condition are both set only in hybrid mode, where the translated
// condition is evaluated for cross-check visibility; the comparator result
// stays authoritative for the decision.
type Finding struct {
	RuleID          string `json:"ruleId"`
	ObligationIndex int    `json:"obligationIndex"`

	Comparator *ComparatorResult `json:"comparatorResult,omitempty"`
	Condition  *ConditionResult  `json:"conditionResult,omitempty"`

	DecisionOnFail    Decision `json:"decisionOnFail"`
	DecisionOnUnknown Decision `json:"decisionOnUnknown"`

	// Decision is the per-finding decision derived at creation time.
	Decision Decision `json:"decision"`
}

// EngineFingerprint captures which logic produced a decision.
// ComparatorVersions holds exactly the comparator ids invoked in the run.
type EngineFingerprint struct {
	EvaluatorVersion   string            `json:"evaluatorVersion"`
	ComparatorVersions map[string]string `json:"comparatorVersions"`
	FactCatalogVersion string            `json:"factCatalogVersion"`
	Timestamp          time.Time         `json:"timestamp"`
}

// PackEvaluationResult is the output contract for one (pack, PR) pair.
type PackEvaluationResult struct {
	Decision         Decision          `json:"decision"`
	Findings         []Finding         `json:"findings"`
	TriggeredRules   []string          `json:"triggeredRules"`
	PackHash         string            `json:"packHash"`
	PackSource       string            `json:"packSource"`
	EvaluationTimeMs int64             `json:"evaluationTimeMs"`
	BudgetExhausted  bool              `json:"budgetExhausted"`
	Fingerprint      EngineFingerprint `json:"engineFingerprint"`
}
