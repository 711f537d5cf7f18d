// internal/types/context.go
package types

import (
	"strings"
	"time"
)

/*
 * Pull-request evaluation context.
 *
 * The host supplies a fully pre-fetched snapshot of the PR before evaluation
 * starts: files, reviews, check runs, secret-scan findings, and detected
 * heuristic flags. The engine performs no network calls of its own; a nil
 * slice means "never fetched" (external evidence missing) while an empty
 * slice means "fetched, none present". Comparators rely on that distinction
 * to report unknown instead of pass/fail.
 */

// ChangedFile is one file in the PR diff.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// Review is one review on the PR. State follows the host's vocabulary
// (approved, changes_requested, commented, dismissed).
type Review struct {
	Reviewer    string    `json:"reviewer"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CheckRun is one CI check run on the head commit.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`     // queued, in_progress, completed
	Conclusion string `json:"conclusion"` // success, failure, neutral, ...
}

// SecretFinding is one secret-scan hit in the diff.
type SecretFinding struct {
	Path   string `json:"path"`
	RuleID string `json:"ruleId"`
	Line   int    `json:"line"`
}

// WorkspaceDefaults carries workspace-level configuration referenced by
// packs, currently named path lists for anyChangedPathsRef.
type WorkspaceDefaults struct {
	PathLists map[string][]string `json:"pathLists,omitempty"`
}

// PRContext is the input contract for one evaluation. Immutable from the
// engine's point of view; the fact cache lives in the engine, not here.
type PRContext struct {
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	PRNumber int    `json:"prNumber"`
	HeadSHA  string `json:"headSha"`
	BaseSHA  string `json:"baseSha"`

	Author     string   `json:"author"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	BaseBranch string   `json:"baseBranch"`
	Labels     []string `json:"labels"`

	Files          []ChangedFile   `json:"files"`
	Reviews        []Review        `json:"reviews"`
	CheckRuns      []CheckRun      `json:"checkRuns"`
	SecretFindings []SecretFinding `json:"secretFindings"`

	DetectedHeuristics []string          `json:"detectedHeuristics,omitempty"`
	Workspace          WorkspaceDefaults `json:"workspace,omitempty"`
}

// ChangedPaths returns the filenames of all changed files, in diff order.
func (c *PRContext) ChangedPaths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.Filename)
	}
	return paths
}

// HasLabel reports whether the PR carries the label (case-insensitive,
// matching host behavior).
func (c *PRContext) HasLabel(label string) bool {
	for _, l := range c.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// HasHeuristic reports whether a heuristic flag was detected upstream.
func (c *PRContext) HasHeuristic(id string) bool {
	for _, h := range c.DetectedHeuristics {
		if h == id {
			return true
		}
	}
	return false
}

// ApprovalCount returns the number of distinct reviewers whose most recent
// review approved the PR. A later changes_requested or dismissed review
// revokes an earlier approval by the same reviewer.
func (c *PRContext) ApprovalCount() int {
	latest := make(map[string]Review)
	for _, r := range c.Reviews {
		prev, ok := latest[r.Reviewer]
		if !ok || r.SubmittedAt.After(prev.SubmittedAt) {
			latest[r.Reviewer] = r
		}
	}
	count := 0
	for _, r := range latest {
		if strings.EqualFold(r.State, "approved") {
			count++
		}
	}
	return count
}

// DiffTotals returns additions, deletions, and their sum across all files.
func (c *PRContext) DiffTotals() (additions, deletions, total int) {
	for _, f := range c.Files {
		additions += f.Additions
		deletions += f.Deletions
	}
	return additions, deletions, additions + deletions
}
