// internal/engine/facts.go
package engine

import (
	"sort"

	"github.com/solatis/packgate/internal/types"
)

/*
 * Fact catalog and resolver.
 *
 * Maps a PR context to a flat map of named fact values consumed by
 * condition evaluation. Resolution is total, synchronous, and
 * side-effect-free: every catalog fact resolves to a value or to the
 * typed Absent sentinel, never to an error. Facts describing external
 * state (reviews, checks, secret scans) resolve to Absent when the host
 * never fetched them (nil slice); an empty slice is real data.
 *
 * The catalog is an explicitly constructed object, not package state, so
 * tests can build reduced catalogs. Resolvers are registered once in
 * NewFactCatalog; the version string changes whenever a fact is added,
 * removed, or changes meaning.
 */

// FactCatalogVersion identifies the current fact set for fingerprinting.
const FactCatalogVersion = "2025.08"

// absent is the typed sentinel for facts with no available value.
type absent struct{}

// Absent is the value of a fact that could not be resolved. Conditions over
// absent facts evaluate to unsatisfied with an error, never to satisfied.
var Absent = absent{}

// IsAbsent reports whether a resolved fact value is the absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// factResolver derives one fact value from the context.
type factResolver func(*types.PRContext) any

// FactCatalog resolves all known facts for one evaluation.
type FactCatalog struct {
	resolvers map[string]factResolver
	version   string
}

// NewFactCatalog builds the catalog with all built-in facts registered.
func NewFactCatalog() *FactCatalog {
	c := &FactCatalog{
		resolvers: make(map[string]factResolver),
		version:   FactCatalogVersion,
	}

	c.register("actor.user", func(ctx *types.PRContext) any {
		if ctx.Author == "" {
			return Absent
		}
		return ctx.Author
	})
	c.register("pr.number", func(ctx *types.PRContext) any { return ctx.PRNumber })
	c.register("pr.title", func(ctx *types.PRContext) any { return ctx.Title })
	c.register("pr.body", func(ctx *types.PRContext) any { return ctx.Body })
	c.register("pr.baseBranch", func(ctx *types.PRContext) any {
		if ctx.BaseBranch == "" {
			return Absent
		}
		return ctx.BaseBranch
	})
	c.register("pr.labels", func(ctx *types.PRContext) any { return append([]string(nil), ctx.Labels...) })

	c.register("pr.approvals.count", func(ctx *types.PRContext) any {
		if ctx.Reviews == nil {
			return Absent
		}
		return ctx.ApprovalCount()
	})
	c.register("pr.reviews.count", func(ctx *types.PRContext) any {
		if ctx.Reviews == nil {
			return Absent
		}
		return len(ctx.Reviews)
	})

	c.register("checks.allGreen", func(ctx *types.PRContext) any {
		if ctx.CheckRuns == nil {
			return Absent
		}
		for _, cr := range ctx.CheckRuns {
			if cr.Status != "completed" || cr.Conclusion != "success" {
				return false
			}
		}
		return true
	})
	c.register("checks.count", func(ctx *types.PRContext) any {
		if ctx.CheckRuns == nil {
			return Absent
		}
		return len(ctx.CheckRuns)
	})

	c.register("secrets.findings.count", func(ctx *types.PRContext) any {
		if ctx.SecretFindings == nil {
			return Absent
		}
		return len(ctx.SecretFindings)
	})

	c.register("diff.filesChanged.count", func(ctx *types.PRContext) any { return len(ctx.Files) })
	c.register("diff.filesChanged.paths", func(ctx *types.PRContext) any { return ctx.ChangedPaths() })
	c.register("diff.additions", func(ctx *types.PRContext) any {
		a, _, _ := ctx.DiffTotals()
		return a
	})
	c.register("diff.deletions", func(ctx *types.PRContext) any {
		_, d, _ := ctx.DiffTotals()
		return d
	})
	c.register("diff.total", func(ctx *types.PRContext) any {
		_, _, t := ctx.DiffTotals()
		return t
	})

	c.register("heuristics.detected", func(ctx *types.PRContext) any {
		return append([]string(nil), ctx.DetectedHeuristics...)
	})

	return c
}

// register adds or replaces a resolver.
func (c *FactCatalog) register(name string, r factResolver) {
	c.resolvers[name] = r
}

// Version returns the catalog version for the engine fingerprint.
func (c *FactCatalog) Version() string {
	return c.version
}

// Names returns all catalog fact names, sorted.
func (c *FactCatalog) Names() []string {
	names := make([]string, 0, len(c.resolvers))
	for n := range c.resolvers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveAll resolves every catalog fact against the context. Total: the
// returned map contains an entry for every fact name, with Absent standing
// in for unavailable values.
func (c *FactCatalog) ResolveAll(ctx *types.PRContext) map[string]any {
	facts := make(map[string]any, len(c.resolvers))
	for name, resolve := range c.resolvers {
		v := resolve(ctx)
		if v == nil {
			v = Absent
		}
		facts[name] = v
	}
	return facts
}
