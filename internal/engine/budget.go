// internal/engine/budget.go
package engine

import (
	"time"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Per-evaluation budget.
 *
 * Scopes wall-clock and API-call ceilings to one evaluation. The counters
 * are mutable shared state within the evaluation, which runs
 * single-threaded, so no locking is needed; separate evaluations never
 * share a Budget.
 *
 * Exceeded is checked after every obligation. Exceeding the budget halts
 * further rule/obligation processing without failing the request -
 * already-collected findings are kept and the result is flagged.
 */

// Budget bounds one evaluation run.
type Budget struct {
	maxTotal             time.Duration
	perComparatorTimeout time.Duration
	maxAPICalls          int

	start    time.Time
	apiCalls int
}

// NewBudget starts a budget from the config, applying defaults for
// non-positive values.
func NewBudget(cfg types.BudgetConfig) *Budget {
	def := types.DefaultBudgetConfig()
	if cfg.PerComparatorTimeoutMs <= 0 {
		cfg.PerComparatorTimeoutMs = def.PerComparatorTimeoutMs
	}
	if cfg.MaxGitHubAPICalls <= 0 {
		cfg.MaxGitHubAPICalls = def.MaxGitHubAPICalls
	}
	// MaxTotalMs keeps its configured value even at zero: a zero total
	// budget is a valid way to request an immediately-exhausted run.
	if cfg.MaxTotalMs < 0 {
		cfg.MaxTotalMs = def.MaxTotalMs
	}
	return &Budget{
		maxTotal:             time.Duration(cfg.MaxTotalMs) * time.Millisecond,
		perComparatorTimeout: time.Duration(cfg.PerComparatorTimeoutMs) * time.Millisecond,
		maxAPICalls:          cfg.MaxGitHubAPICalls,
		start:                time.Now(),
	}
}

// Elapsed returns wall-clock time since the evaluation started.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.start)
}

// Exceeded reports whether the total wall-clock budget is spent.
func (b *Budget) Exceeded() bool {
	return b.Elapsed() >= b.maxTotal
}

// ComparatorTimeout returns the per-comparator ceiling.
func (b *Budget) ComparatorTimeout() time.Duration {
	return b.perComparatorTimeout
}

// RecordAPICall counts one host API call, reporting false once the call
// budget is spent. Comparators consuming host data pre-fetched onto the
// context do not call this; it exists for hosts that meter their
// pre-fetch work against the same budget.
func (b *Budget) RecordAPICall() bool {
	if b.apiCalls >= b.maxAPICalls {
		return false
	}
	b.apiCalls++
	return true
}

// APICalls returns the calls recorded so far.
func (b *Budget) APICalls() int {
	return b.apiCalls
}
