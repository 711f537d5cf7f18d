// internal/engine/trigger.go
package engine

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/solatis/packgate/internal/types"
)

/*
 * Trigger evaluation.
 *
 * The rule-matching state machine. Evaluation order, exactly:
 *   1. always: true fires unconditionally.
 *   2. allChangedPaths: every pattern must match at least one file
 *      (hard precondition; failure stops evaluation).
 *   3. Collect any-of entries, each evaluated independently without early
 *      return so multiple clauses compose: changeSurface globs,
 *      when.predicates (dual-mode: surface globs first, heuristic flag
 *      fallback), when.changeSurfaces (always globs), anyChangedPaths,
 *      anyChangedPathsRef (named workspace path list), anyFileExtensions.
 *      allOf under predicates and changeSurfaces are hard preconditions,
 *      matching step 2's semantics.
 *   4. Non-empty any-list fires iff at least one entry is true; an empty
 *      any-list fires (all preconditions already passed).
 *
 * The caller subtracts excludePaths from the file set before calling;
 * FilterExcluded exists for that. Malformed glob patterns match nothing
 * at evaluation time - packfile validation rejects them up front.
 */

// EvaluateTrigger reports whether a rule fires against the
// exclude-filtered changed-file set. A nil trigger always fires
// (approval-only rules).
func EvaluateTrigger(t *types.Trigger, files []string, ctx *types.PRContext) bool {
	if t == nil {
		return true
	}

	if t.Always {
		return true
	}

	// Hard precondition: every all-of pattern matches at least one file.
	for _, pattern := range t.AllChangedPaths {
		if !anyPathMatches(files, pattern) {
			return false
		}
	}

	var anyList []bool

	if len(t.ChangeSurface) > 0 {
		anyList = append(anyList, anyGlobMatches(files, SurfaceGlobsAll(t.ChangeSurface)))
	}

	if t.When != nil {
		if p := t.When.Predicates; p != nil {
			for _, id := range p.AllOf {
				if !resolvePredicate(id, files, ctx) {
					return false
				}
			}
			if len(p.AnyOf) > 0 {
				matched := false
				for _, id := range p.AnyOf {
					if resolvePredicate(id, files, ctx) {
						matched = true
					}
				}
				anyList = append(anyList, matched)
			}
		}

		if cs := t.When.ChangeSurfaces; cs != nil {
			for _, id := range cs.AllOf {
				if !anyGlobMatches(files, SurfaceGlobs(id)) {
					return false
				}
			}
			if len(cs.AnyOf) > 0 {
				matched := false
				for _, id := range cs.AnyOf {
					if anyGlobMatches(files, SurfaceGlobs(id)) {
						matched = true
					}
				}
				anyList = append(anyList, matched)
			}
		}
	}

	if len(t.AnyChangedPaths) > 0 {
		anyList = append(anyList, anyGlobMatches(files, t.AnyChangedPaths))
	}

	if t.AnyChangedPathsRef != "" {
		patterns := ctx.Workspace.PathLists[t.AnyChangedPathsRef]
		// Unknown list name contributes false rather than aborting;
		// other any-clauses can still fire the rule.
		anyList = append(anyList, len(patterns) > 0 && anyGlobMatches(files, patterns))
	}

	if len(t.AnyFileExtensions) > 0 {
		anyList = append(anyList, anyExtensionMatches(files, t.AnyFileExtensions))
	}

	if len(anyList) == 0 {
		return true
	}
	for _, matched := range anyList {
		if matched {
			return true
		}
	}
	return false
}

// resolvePredicate implements dual-mode predicate resolution: a predicate
// id naming a path-backed change surface is tested against the files; an
// id with no globs (behavioral surface or plain flag) is tested against
// the detected heuristics.
func resolvePredicate(id string, files []string, ctx *types.PRContext) bool {
	globs := SurfaceGlobs(id)
	if len(globs) > 0 {
		return anyGlobMatches(files, globs)
	}
	return ctx.HasHeuristic(id)
}

// FilterExcluded returns the files not matched by any exclude glob. The
// file set is filtered, not the rule skipped, so partially excluded diffs
// still trigger on their remaining files.
func FilterExcluded(files []string, excludePaths []string) []string {
	if len(excludePaths) == 0 {
		return files
	}
	kept := make([]string, 0, len(files))
	for _, f := range files {
		excluded := false
		for _, pattern := range excludePaths {
			if pathMatches(f, pattern) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, f)
		}
	}
	return kept
}

// anyGlobMatches reports whether any file matches any pattern.
func anyGlobMatches(files []string, patterns []string) bool {
	for _, pattern := range patterns {
		if anyPathMatches(files, pattern) {
			return true
		}
	}
	return false
}

// anyPathMatches reports whether any file matches the pattern.
func anyPathMatches(files []string, pattern string) bool {
	for _, f := range files {
		if pathMatches(f, pattern) {
			return true
		}
	}
	return false
}

// pathMatches applies one doublestar glob. Invalid patterns match
// nothing; packfile validation rejects them before they reach here.
func pathMatches(path, pattern string) bool {
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}

// anyExtensionMatches reports whether any file carries one of the
// extensions, compared with or without the leading dot.
func anyExtensionMatches(files []string, extensions []string) bool {
	for _, f := range files {
		for _, ext := range extensions {
			e := ext
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if strings.HasSuffix(f, e) {
				return true
			}
		}
	}
	return false
}
