// internal/types/packs.go
package types

/*
 * Domain types for policy packs.
 *
 * Provides Pack, Rule, Trigger, Obligation, and Condition structures used by
 * internal/engine for evaluation and internal/packfile for loading. These
 * types are wire-format agnostic - YAML-to-types conversion happens at the
 * packfile boundary.
 *
 * Key types:
 *   - Pack: versioned, scoped bundle of rules; immutable once loaded
 *   - Rule: trigger plus obligations; the unit of policy
 *   - Obligation: two-variant tagged union (comparator-based or
 *     condition-based); exactly one variant is set
 *   - Condition: boolean expression tree over named facts
 *
 * A Pack is loaded once and reused across many evaluations; nothing in the
 * engine mutates it.
 */

// PackMode controls whether callers gate on the decision.
type PackMode string

const (
	ModeEnforce PackMode = "enforce"
	ModeObserve PackMode = "observe"
)

// ScopeLevel orders pack applicability: workspace > service > repo.
type ScopeLevel string

const (
	ScopeWorkspace ScopeLevel = "workspace"
	ScopeService   ScopeLevel = "service"
	ScopeRepo      ScopeLevel = "repo"
)

// scopeRank orders scope levels for precedence; higher wins.
var scopeRank = map[ScopeLevel]int{
	ScopeRepo:      0,
	ScopeService:   1,
	ScopeWorkspace: 2,
}

// Rank returns the precedence rank of the scope level.
func (s ScopeLevel) Rank() int {
	return scopeRank[s]
}

// Valid reports whether s is a recognized scope level.
func (s ScopeLevel) Valid() bool {
	_, ok := scopeRank[s]
	return ok
}

// Scope restricts where a pack applies. Workspace is always required;
// Service narrows to one owning service; Repos and Branches are glob lists
// matched against "org/repo" and the PR base branch respectively. Empty
// lists mean no constraint at that level.
type Scope struct {
	Level     ScopeLevel `json:"level" yaml:"level"`
	Workspace string     `json:"workspace" yaml:"workspace"`
	Service   string     `json:"service,omitempty" yaml:"service,omitempty"`
	Repos     []string   `json:"repos,omitempty" yaml:"repos,omitempty"`
	Branches  []string   `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// PackMetadata identifies a pack.
type PackMetadata struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Version string   `json:"version" yaml:"version"`
	Mode    PackMode `json:"packMode" yaml:"packMode"`
}

// BudgetConfig is the time/call ceiling for one evaluation.
type BudgetConfig struct {
	MaxTotalMs             int `json:"maxTotalMs" yaml:"maxTotalMs"`
	PerComparatorTimeoutMs int `json:"perComparatorTimeoutMs" yaml:"perComparatorTimeoutMs"`
	MaxGitHubAPICalls      int `json:"maxGitHubApiCalls" yaml:"maxGitHubApiCalls"`
}

// DefaultBudgetConfig returns the budget defaults (30s total, 5s per
// comparator, 50 API calls).
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxTotalMs:             30000,
		PerComparatorTimeoutMs: 5000,
		MaxGitHubAPICalls:      50,
	}
}

// RoutingConfig maps decisions to host-specific check conclusions,
// e.g. pass/warn -> "success", block -> "failure".
type RoutingConfig struct {
	ConclusionMapping map[Decision]string `json:"conclusionMapping,omitempty" yaml:"conclusionMapping,omitempty"`
}

// Pack is a versioned, identified bundle of rules. Hash is the SHA-256
// content hash of the pack document, set by the loader; Source names the
// scope that resolved it, set by the selector.
type Pack struct {
	Metadata PackMetadata  `json:"metadata" yaml:"metadata"`
	Scope    Scope         `json:"scope" yaml:"scope"`
	Budgets  BudgetConfig  `json:"budgets" yaml:"budgets"`
	Routing  RoutingConfig `json:"routing" yaml:"routing"`
	Rules    []Rule        `json:"rules" yaml:"rules"`

	Hash   string `json:"-" yaml:"-"`
	Source string `json:"-" yaml:"-"`
}

// SkipCondition skips a rule entirely when the PR carries one of the labels
// or the PR body contains one of the substrings.
type SkipCondition struct {
	Labels       []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	BodyContains []string `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
}

// AnyAllClause holds predicate or change-surface identifiers. AllOf entries
// are hard preconditions; AnyOf entries contribute to the trigger's any-list.
type AnyAllClause struct {
	AnyOf []string `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	AllOf []string `json:"allOf,omitempty" yaml:"allOf,omitempty"`
}

// WhenClause groups semantic trigger constraints.
type WhenClause struct {
	Predicates     *AnyAllClause `json:"predicates,omitempty" yaml:"predicates,omitempty"`
	ChangeSurfaces *AnyAllClause `json:"changeSurfaces,omitempty" yaml:"changeSurfaces,omitempty"`
}

// Trigger is a composable match expression over the changed-file set and
// actor/label metadata. AllChangedPaths patterns are hard preconditions;
// the remaining clauses each contribute one entry to an any-of list.
type Trigger struct {
	Always             bool        `json:"always,omitempty" yaml:"always,omitempty"`
	AllChangedPaths    []string    `json:"allChangedPaths,omitempty" yaml:"allChangedPaths,omitempty"`
	AnyChangedPaths    []string    `json:"anyChangedPaths,omitempty" yaml:"anyChangedPaths,omitempty"`
	AnyChangedPathsRef string      `json:"anyChangedPathsRef,omitempty" yaml:"anyChangedPathsRef,omitempty"`
	AnyFileExtensions  []string    `json:"anyFileExtensions,omitempty" yaml:"anyFileExtensions,omitempty"`
	ChangeSurface      []string    `json:"changeSurface,omitempty" yaml:"changeSurface,omitempty"`
	When               *WhenClause `json:"when,omitempty" yaml:"when,omitempty"`
}

// ComparatorObligation selects a registered comparator by id.
type ComparatorObligation struct {
	ComparatorID string         `json:"comparatorId" yaml:"comparatorId"`
	Params       map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ConditionObligation evaluates a fact-condition tree; all top-level
// conditions must be satisfied.
type ConditionObligation struct {
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

// Obligation is one checkable requirement within a rule. Exactly one of
// Comparator and Condition is set (enforced by packfile validation).
type Obligation struct {
	Comparator *ComparatorObligation `json:"comparator,omitempty" yaml:"comparator,omitempty"`
	Condition  *ConditionObligation  `json:"condition,omitempty" yaml:"condition,omitempty"`

	DecisionOnFail    Decision `json:"decisionOnFail" yaml:"decisionOnFail"`
	DecisionOnUnknown Decision `json:"decisionOnUnknown" yaml:"decisionOnUnknown"`
}

// Condition is a leaf (Fact, Operator, Value) or a composite
// (Operator AND/OR, Conditions non-empty).
type Condition struct {
	Fact     string `json:"fact,omitempty" yaml:"fact,omitempty"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`

	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// IsComposite reports whether the condition is an AND/OR composite.
func (c Condition) IsComposite() bool {
	return len(c.Conditions) > 0
}

// Rule is a trigger plus a set of obligations. A rule with a nil Trigger
// always fires (used for approval-only rules). ExcludePaths globs are
// subtracted from the changed-file set before trigger and obligation
// evaluation. DecisionOnViolation and DecisionOnMissingEvidence back the
// synthesized approval-gate finding when the rule has no obligations.
type Rule struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Trigger      *Trigger       `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	SkipIf       *SkipCondition `json:"skipIf,omitempty" yaml:"skipIf,omitempty"`
	ExcludePaths []string       `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty"`
	Obligations  []Obligation   `json:"obligations,omitempty" yaml:"obligations,omitempty"`

	DecisionOnViolation       Decision `json:"decisionOnViolation,omitempty" yaml:"decisionOnViolation,omitempty"`
	DecisionOnMissingEvidence Decision `json:"decisionOnMissingExternalEvidence,omitempty" yaml:"decisionOnMissingExternalEvidence,omitempty"`
}
