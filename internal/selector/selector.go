// Package selector resolves which policy pack applies to a pull request
// by scope precedence.
//
// Resolution is pure: it ranks the supplied pack records and performs no
// I/O. Precedence is workspace-scoped > service-scoped > repo-scoped;
// ties within a scope break on filter specificity, then most recent
// publish time. No applicable pack is not an error - Resolve returns nil
// and the caller falls back to its legacy/default policy.
package selector

import (
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/solatis/packgate/internal/types"
)

// PackRecord is one published pack as stored by the pack store.
type PackRecord struct {
	ID          types.PackRecordID
	Pack        *types.Pack
	PublishedAt time.Time
}

// Query identifies the evaluation target. Service is the owning service
// id supplied by the host's ownership mapping; empty when unknown.
type Query struct {
	Workspace string
	Org       string
	Repo      string
	Branch    string
	Service   string
}

// Resolve returns the single highest-precedence applicable pack record,
// or nil when no pack applies. The winning record's pack gets its Source
// set to the resolving scope level.
func Resolve(q Query, records []PackRecord) *PackRecord {
	applicable := make([]PackRecord, 0, len(records))
	for _, r := range records {
		if r.Pack != nil && scopeMatches(r.Pack.Scope, q) {
			applicable = append(applicable, r)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		si, sj := applicable[i].Pack.Scope, applicable[j].Pack.Scope
		if si.Level.Rank() != sj.Level.Rank() {
			return si.Level.Rank() > sj.Level.Rank()
		}
		if a, b := specificity(si), specificity(sj); a != b {
			return a > b
		}
		return applicable[i].PublishedAt.After(applicable[j].PublishedAt)
	})

	winner := applicable[0]
	winner.Pack.Source = string(winner.Pack.Scope.Level)
	return &winner
}

// scopeMatches reports whether a pack scope applies to the query target.
func scopeMatches(s types.Scope, q Query) bool {
	if s.Workspace != q.Workspace {
		return false
	}
	switch s.Level {
	case types.ScopeWorkspace:
		// Workspace packs apply to every repo in the workspace.
	case types.ScopeService:
		if s.Service == "" || s.Service != q.Service {
			return false
		}
	case types.ScopeRepo:
		if !matchesAny(s.Repos, q.Org+"/"+q.Repo) {
			return false
		}
	default:
		return false
	}

	if len(s.Branches) > 0 && !matchesAny(s.Branches, q.Branch) {
		return false
	}
	return true
}

// specificity counts the constraint fields a scope sets; more constrained
// scopes win ties within the same level.
func specificity(s types.Scope) int {
	n := 0
	if s.Service != "" {
		n++
	}
	if len(s.Repos) > 0 {
		n++
	}
	if len(s.Branches) > 0 {
		n++
	}
	return n
}

// matchesAny applies glob patterns; invalid patterns match nothing.
func matchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if matched, err := doublestar.Match(p, value); err == nil && matched {
			return true
		}
	}
	return false
}
