package packfile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/solatis/packgate/internal/engine"
	"github.com/solatis/packgate/internal/types"
)

// Issue is one lint finding, addressed by a dotted path into the pack
// document ("rules[3].obligations[0]").
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Validate lints the pack and returns an error wrapping ErrPackInvalid when
// any issue is found. The pack is not mutated; defaults are the loader's job.
func Validate(pack *types.Pack) error {
	issues := Lint(pack)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, iss := range issues {
		msgs[i] = iss.String()
	}
	return fmt.Errorf("%w: %s", types.ErrPackInvalid, strings.Join(msgs, "; "))
}

// Lint checks pack structure and returns every issue found. An empty slice
// means the pack is servable.
func Lint(pack *types.Pack) []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if pack.Metadata.ID == "" {
		add("metadata.id", "pack id is required")
	}
	if pack.Metadata.Version == "" {
		add("metadata.version", "pack version is required")
	}
	if pack.Metadata.Mode != types.ModeEnforce && pack.Metadata.Mode != types.ModeObserve {
		add("metadata.packMode", "unknown mode %q", pack.Metadata.Mode)
	}

	if pack.Scope.Workspace == "" {
		add("scope.workspace", "workspace is required")
	}
	if !pack.Scope.Level.Valid() {
		add("scope.level", "unknown scope level %q", pack.Scope.Level)
	}
	if pack.Scope.Level == types.ScopeService && pack.Scope.Service == "" {
		add("scope.service", "service-level pack must name a service")
	}
	lintGlobs(&issues, "scope.repos", pack.Scope.Repos)
	lintGlobs(&issues, "scope.branches", pack.Scope.Branches)

	for decision := range pack.Routing.ConclusionMapping {
		if !decision.Valid() {
			add("routing.checks.conclusionMapping", "unknown decision %q", decision)
		}
	}

	if pack.Budgets.MaxTotalMs < 0 || pack.Budgets.PerComparatorTimeoutMs < 0 || pack.Budgets.MaxGitHubAPICalls < 0 {
		add("evaluation.budgets", "budget values must not be negative")
	}

	if len(pack.Rules) > types.MaxRulesPerPack {
		add("rules", "%v: %d rules, limit %d", types.ErrTooManyRules, len(pack.Rules), types.MaxRulesPerPack)
	}

	seen := make(map[string]bool, len(pack.Rules))
	for i := range pack.Rules {
		lintRule(&issues, fmt.Sprintf("rules[%d]", i), &pack.Rules[i], seen)
	}

	return issues
}

func lintRule(issues *[]Issue, path string, rule *types.Rule, seen map[string]bool) {
	add := func(sub, format string, args ...any) {
		*issues = append(*issues, Issue{Path: path + sub, Message: fmt.Sprintf(format, args...)})
	}

	if rule.ID == "" {
		add(".id", "rule id is required")
	} else if seen[rule.ID] {
		add(".id", "duplicate rule id %q", rule.ID)
	} else {
		seen[rule.ID] = true
	}

	if rule.DecisionOnViolation != "" && !rule.DecisionOnViolation.Valid() {
		add(".decisionOnViolation", "unknown decision %q", rule.DecisionOnViolation)
	}
	if rule.DecisionOnMissingEvidence != "" && !rule.DecisionOnMissingEvidence.Valid() {
		add(".decisionOnMissingExternalEvidence", "unknown decision %q", rule.DecisionOnMissingEvidence)
	}

	lintGlobs(issues, path+".excludePaths", rule.ExcludePaths)
	if rule.Trigger != nil {
		lintTrigger(issues, path+".trigger", rule.Trigger)
	}

	if len(rule.Obligations) > types.MaxObligationsPerRule {
		add(".obligations", "%d obligations, limit %d", len(rule.Obligations), types.MaxObligationsPerRule)
	}
	for j := range rule.Obligations {
		lintObligation(issues, fmt.Sprintf("%s.obligations[%d]", path, j), &rule.Obligations[j])
	}
}

func lintTrigger(issues *[]Issue, path string, t *types.Trigger) {
	lintGlobs(issues, path+".allChangedPaths", t.AllChangedPaths)
	lintGlobs(issues, path+".anyChangedPaths", t.AnyChangedPaths)

	for _, id := range t.ChangeSurface {
		if !engine.KnownSurface(id) {
			*issues = append(*issues, Issue{
				Path:    path + ".changeSurface",
				Message: fmt.Sprintf("unknown change surface %q", id),
			})
		}
	}
	if t.When != nil && t.When.ChangeSurfaces != nil {
		for _, id := range append(t.When.ChangeSurfaces.AnyOf, t.When.ChangeSurfaces.AllOf...) {
			if !engine.KnownSurface(id) {
				*issues = append(*issues, Issue{
					Path:    path + ".when.changeSurfaces",
					Message: fmt.Sprintf("unknown change surface %q", id),
				})
			}
		}
	}
}

func lintObligation(issues *[]Issue, path string, ob *types.Obligation) {
	add := func(sub, format string, args ...any) {
		*issues = append(*issues, Issue{Path: path + sub, Message: fmt.Sprintf(format, args...)})
	}

	hasComparator := ob.Comparator != nil
	hasCondition := ob.Condition != nil
	if hasComparator == hasCondition {
		add("", "%v", types.ErrObligationShape)
		return
	}

	if !ob.DecisionOnFail.Valid() {
		add(".decisionOnFail", "unknown decision %q", ob.DecisionOnFail)
	}
	if !ob.DecisionOnUnknown.Valid() {
		add(".decisionOnUnknown", "unknown decision %q", ob.DecisionOnUnknown)
	}

	if hasComparator {
		if strings.TrimSpace(ob.Comparator.ComparatorID) == "" {
			add(".comparatorId", "comparator id is required")
		}
		return
	}

	if len(ob.Condition.Conditions) == 0 {
		add(".conditions", "condition obligation needs at least one condition")
	}
	for k := range ob.Condition.Conditions {
		lintCondition(issues, fmt.Sprintf("%s.conditions[%d]", path, k), &ob.Condition.Conditions[k], 1)
	}
}

func lintCondition(issues *[]Issue, path string, c *types.Condition, depth int) {
	add := func(format string, args ...any) {
		*issues = append(*issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if depth > types.MaxConditionDepth {
		add("%v", types.ErrConditionTooDeep)
		return
	}

	if c.IsComposite() {
		if c.Operator != engine.OpAnd && c.Operator != engine.OpOr {
			add("composite operator must be AND or OR, got %q", c.Operator)
		}
		for k := range c.Conditions {
			lintCondition(issues, fmt.Sprintf("%s.conditions[%d]", path, k), &c.Conditions[k], depth+1)
		}
		return
	}

	if c.Fact == "" {
		add("%v: leaf condition needs a fact", types.ErrMalformedCondition)
	}
	if !engine.KnownOperator(c.Operator) {
		add("%v: %q", types.ErrUnknownOperator, c.Operator)
	}
	if c.Operator == engine.OpMatches {
		pattern, ok := c.Value.(string)
		if !ok {
			add("matches value must be a string pattern")
		} else if _, err := regexp.Compile(pattern); err != nil {
			add("invalid regex pattern: %v", err)
		}
	}
}

func lintGlobs(issues *[]Issue, path string, patterns []string) {
	add := func(format string, args ...any) {
		*issues = append(*issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(patterns) > types.MaxGlobPatterns {
		add("%d patterns, limit %d", len(patterns), types.MaxGlobPatterns)
	}
	for _, p := range patterns {
		if len(p) > types.MaxGlobLength {
			add("%v: pattern exceeds %d characters", types.ErrBadGlobPattern, types.MaxGlobLength)
			continue
		}
		if !doublestar.ValidatePattern(p) {
			add("%v: %q", types.ErrBadGlobPattern, p)
		}
	}
}
