// internal/engine/evaluate.go
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/solatis/packgate/internal/core/metrics"
	"github.com/solatis/packgate/internal/types"
)

/*
 * Pack evaluation orchestration.
 *
 * Evaluates one pack against one PR context: skip checks, trigger
 * evaluation against the exclude-filtered file set, obligation evaluation
 * under budget, decision aggregation with strict BLOCK > WARN > PASS
 * precedence, and fingerprint construction.
 *
 * Ordering: rules and obligations run sequentially in pack order. Finding
 * order is significant for reproducibility and is never parallelized.
 * The only concurrency primitive is the per-comparator timeout race; a
 * late comparator result is discarded, not cancelled.
 *
 * Error handling: comparator/condition errors, timeouts, and
 * configuration errors (unknown comparator id, malformed condition) all
 * degrade to unknown findings with a diagnostic reason code. A single bad
 * rule never prevents the rest of the pack from being evaluated, and
 * nothing here is fatal to the host process.
 */

// EvaluatorVersion identifies the evaluator build for fingerprinting.
const EvaluatorVersion = "0.3.0"

// Evaluator evaluates packs against PR contexts. Construct once at
// startup and share across evaluations; it holds no per-evaluation state.
type Evaluator struct {
	registry *Registry
	catalog  *FactCatalog
	logger   *slog.Logger
	metrics  *metrics.EngineMetrics
	hybrid   bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithHybridMode cross-checks translatable comparators against their
// condition equivalent and logs divergence. The comparator result stays
// authoritative.
func WithHybridMode() Option {
	return func(e *Evaluator) { e.hybrid = true }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// NewEvaluator creates an evaluator over an explicit registry and fact
// catalog. A nil logger falls back to slog.Default.
func NewEvaluator(registry *Registry, catalog *FactCatalog, logger *slog.Logger, opts ...Option) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		registry: registry,
		catalog:  catalog,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluatePack evaluates one pack against one PR context and returns the
// immutable result. The pack is never mutated.
func (e *Evaluator) EvaluatePack(ctx context.Context, pack *types.Pack, pr *types.PRContext) *types.PackEvaluationResult {
	budget := NewBudget(pack.Budgets)
	facts := e.catalog.ResolveAll(pr)
	invoked := make(map[string]string)

	result := &types.PackEvaluationResult{
		Decision:       types.DecisionPass,
		Findings:       []types.Finding{},
		TriggeredRules: []string{},
		PackHash:       pack.Hash,
		PackSource:     pack.Source,
	}

	changedPaths := pr.ChangedPaths()

rules:
	for ri := range pack.Rules {
		rule := &pack.Rules[ri]

		if budget.Exceeded() {
			result.BudgetExhausted = true
			break
		}
		if skipRule(rule, pr) {
			continue
		}

		files := FilterExcluded(changedPaths, rule.ExcludePaths)
		if !EvaluateTrigger(rule.Trigger, files, pr) {
			continue
		}
		result.TriggeredRules = append(result.TriggeredRules, rule.ID)

		if len(rule.Obligations) == 0 {
			finding := approvalGateFinding(rule)
			result.Findings = append(result.Findings, finding)
			result.Decision = types.WorstDecision(result.Decision, finding.Decision)
			if budget.Exceeded() {
				result.BudgetExhausted = true
				break
			}
			continue
		}

		for oi := range rule.Obligations {
			finding := e.evaluateObligation(ctx, rule, oi, pr, facts, budget, invoked)
			result.Findings = append(result.Findings, finding)
			result.Decision = types.WorstDecision(result.Decision, finding.Decision)

			if budget.Exceeded() {
				result.BudgetExhausted = true
				break rules
			}
		}
	}

	result.EvaluationTimeMs = budget.Elapsed().Milliseconds()
	result.Fingerprint = types.EngineFingerprint{
		EvaluatorVersion:   EvaluatorVersion,
		ComparatorVersions: invoked,
		FactCatalogVersion: e.catalog.Version(),
		Timestamp:          time.Now().UTC(),
	}

	e.metrics.ObserveEvaluation(string(result.Decision), budget.Elapsed().Seconds(), result.BudgetExhausted)
	e.logger.Debug("pack evaluated",
		"pack", pack.Metadata.ID,
		"decision", result.Decision,
		"findings", len(result.Findings),
		"triggered", len(result.TriggeredRules),
		"budget_exhausted", result.BudgetExhausted,
	)
	return result
}

// EvaluateAll evaluates multiple packs concurrently and combines their
// decisions with worst-case precedence. Results keep input order; each
// pack's evaluation is independent (fresh budget, fresh fact map).
func (e *Evaluator) EvaluateAll(ctx context.Context, packs []*types.Pack, pr *types.PRContext) ([]*types.PackEvaluationResult, types.Decision) {
	results := make([]*types.PackEvaluationResult, len(packs))
	var wg sync.WaitGroup
	for i, pack := range packs {
		wg.Add(1)
		go func(i int, pack *types.Pack) {
			defer wg.Done()
			results[i] = e.EvaluatePack(ctx, pack, pr)
		}(i, pack)
	}
	wg.Wait()

	combined := types.DecisionPass
	for _, r := range results {
		combined = types.WorstDecision(combined, r.Decision)
	}
	return results, combined
}

// skipRule applies skipIf: a matching label or PR-body substring skips the
// rule entirely, recording no finding.
func skipRule(rule *types.Rule, pr *types.PRContext) bool {
	if rule.SkipIf == nil {
		return false
	}
	for _, label := range rule.SkipIf.Labels {
		if pr.HasLabel(label) {
			return true
		}
	}
	for _, substr := range rule.SkipIf.BodyContains {
		if substr != "" && strings.Contains(pr.Body, substr) {
			return true
		}
	}
	return false
}

// approvalGateFinding synthesizes the placeholder finding for a triggered
// rule with no obligations. The decision comes from the rule's own
// violation/missing-evidence decisions when present, defaulting to warn.
func approvalGateFinding(rule *types.Rule) types.Finding {
	decision := types.DecisionWarn
	if rule.DecisionOnViolation.Valid() {
		decision = rule.DecisionOnViolation
	} else if rule.DecisionOnMissingEvidence.Valid() {
		decision = rule.DecisionOnMissingEvidence
	}
	return types.Finding{
		RuleID:          rule.ID,
		ObligationIndex: 0,
		Comparator: &types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonApprovalGate,
			Message:    "rule carries no obligations; approval gate placeholder",
		},
		DecisionOnFail:    decision,
		DecisionOnUnknown: decision,
		Decision:          decision,
	}
}

// evaluateObligation evaluates a single obligation and derives the
// per-finding decision.
func (e *Evaluator) evaluateObligation(ctx context.Context, rule *types.Rule, index int, pr *types.PRContext, facts map[string]any, budget *Budget, invoked map[string]string) types.Finding {
	obligation := rule.Obligations[index]

	finding := types.Finding{
		RuleID:            rule.ID,
		ObligationIndex:   index,
		DecisionOnFail:    obligation.DecisionOnFail,
		DecisionOnUnknown: obligation.DecisionOnUnknown,
	}
	if !finding.DecisionOnFail.Valid() {
		finding.DecisionOnFail = types.DecisionWarn
	}
	if !finding.DecisionOnUnknown.Valid() {
		finding.DecisionOnUnknown = types.DecisionWarn
	}

	switch {
	case obligation.Comparator != nil:
		compResult := e.runComparator(ctx, obligation.Comparator, pr, budget, invoked)
		finding.Comparator = &compResult

		if e.hybrid {
			if condResult, ok := e.hybridCheck(rule.ID, obligation.Comparator, compResult, facts); ok {
				finding.Condition = condResult
			}
		}

		switch compResult.Status {
		case types.StatusPass:
			finding.Decision = types.DecisionPass
		case types.StatusFail:
			finding.Decision = finding.DecisionOnFail
		default:
			finding.Decision = finding.DecisionOnUnknown
		}

	case obligation.Condition != nil:
		condResult := EvaluateConditions(obligation.Condition.Conditions, facts)
		finding.Condition = &condResult

		switch {
		case condResult.Error != "":
			finding.Decision = finding.DecisionOnUnknown
		case !condResult.Satisfied:
			finding.Decision = finding.DecisionOnFail
		default:
			finding.Decision = types.DecisionPass
		}

	default:
		// Validation rejects this shape; degrade to unknown if one
		// slips through a hand-built pack.
		finding.Comparator = &types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonParamsInvalid,
			Message:    types.ErrObligationShape.Error(),
		}
		finding.Decision = finding.DecisionOnUnknown
	}

	return finding
}

// runComparator resolves and invokes a comparator, racing it against the
// per-comparator timeout. The in-flight goroutine is abandoned on expiry;
// its result, if it arrives late, is discarded via the buffered channel.
// Panics inside a comparator degrade to an unknown finding.
func (e *Evaluator) runComparator(ctx context.Context, spec *types.ComparatorObligation, pr *types.PRContext, budget *Budget, invoked map[string]string) types.ComparatorResult {
	comp, ok := e.registry.Lookup(spec.ComparatorID)
	if !ok {
		e.logger.Warn("comparator not registered", "comparator", spec.ComparatorID)
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonComparatorUnknown,
			Message:    fmt.Sprintf("%v: %s", types.ErrUnknownComparator, spec.ComparatorID),
		}
	}
	invoked[spec.ComparatorID] = comp.Version()

	resultCh := make(chan types.ComparatorResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- types.ComparatorResult{
					Status:     types.StatusUnknown,
					ReasonCode: ReasonComparatorPanic,
					Message:    fmt.Sprintf("comparator %s panicked: %v", spec.ComparatorID, r),
				}
			}
		}()
		resultCh <- comp.Evaluate(pr, spec.Params)
	}()

	timer := time.NewTimer(budget.ComparatorTimeout())
	defer timer.Stop()

	select {
	case result := <-resultCh:
		return result
	case <-timer.C:
		e.metrics.ObserveComparatorTimeout()
		e.logger.Warn("comparator timed out", "comparator", spec.ComparatorID, "timeout", budget.ComparatorTimeout())
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonComparatorTimeout,
			Message:    fmt.Sprintf("comparator %s exceeded %s", spec.ComparatorID, budget.ComparatorTimeout()),
		}
	case <-ctx.Done():
		return types.ComparatorResult{
			Status:     types.StatusUnknown,
			ReasonCode: ReasonEvaluationCancelled,
			Message:    ctx.Err().Error(),
		}
	}
}

// hybridCheck evaluates the auto-translated condition for a comparator
// obligation and logs divergence between the two mechanisms. Translation
// failure means hybrid mode is unavailable for this obligation, not an
// evaluation error.
func (e *Evaluator) hybridCheck(ruleID string, spec *types.ComparatorObligation, compResult types.ComparatorResult, facts map[string]any) (*types.ConditionResult, bool) {
	conds, err := TranslateComparator(spec.ComparatorID, spec.Params)
	if err != nil {
		e.logger.Debug("hybrid mode unavailable", "rule", ruleID, "comparator", spec.ComparatorID, "reason", err)
		return nil, false
	}

	condResult := EvaluateConditions(conds, facts)
	comparatorSatisfied := compResult.Status == types.StatusPass
	if condResult.Error == "" && compResult.Status != types.StatusUnknown && condResult.Satisfied != comparatorSatisfied {
		e.logger.Warn("hybrid divergence",
			"rule", ruleID,
			"comparator", spec.ComparatorID,
			"comparator_status", compResult.Status,
			"condition_satisfied", condResult.Satisfied,
		)
	}
	return &condResult, true
}
