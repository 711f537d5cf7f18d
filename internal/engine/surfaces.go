// internal/engine/surfaces.go
package engine

/*
 * Change-surface catalog.
 *
 * Maps semantic surface identifiers ("database-migration",
 * "auth-sensitive") to path-glob sets. Pure lookup table with no
 * dependencies. Behavioral surfaces carry no globs and return an empty
 * list; trigger evaluation falls back to heuristic-flag membership for
 * those (dual-mode resolution), so callers must not treat an empty list
 * as "matches nothing".
 */

// surfaceGlobs is the catalog. Identifiers are stable API; adding globs to
// an existing surface widens every pack referencing it.
var surfaceGlobs = map[string][]string{
	"database-migration": {
		"**/migrations/**",
		"db/migrate/**",
		"**/*.sql",
	},
	"auth-sensitive": {
		"**/auth/**",
		"**/iam/**",
		"**/rbac/**",
		"**/permissions/**",
	},
	"infrastructure": {
		"infra/**",
		"terraform/**",
		"**/*.tf",
		"helm/**",
		"k8s/**",
		"kubernetes/**",
	},
	"api-contract": {
		"**/openapi.yaml",
		"**/openapi.yml",
		"**/openapi.json",
		"**/*.proto",
		"api/**",
	},
	"ci-pipeline": {
		".github/workflows/**",
		".gitlab-ci.yml",
		"Jenkinsfile",
		".circleci/**",
	},
	"dependency-manifest": {
		"go.mod",
		"go.sum",
		"package.json",
		"package-lock.json",
		"**/requirements*.txt",
		"Gemfile",
		"pom.xml",
	},
	"ownership": {
		"CODEOWNERS",
		".github/CODEOWNERS",
		"**/OWNERS",
	},

	// Behavioral surfaces: resolved against detected heuristic flags,
	// not paths.
	"force-push":       {},
	"large-refactor":   {},
	"binary-artifacts": {},
	"generated-code":   {},
}

// SurfaceGlobs returns the path globs for a surface id. Empty (non-nil)
// slice for behavioral surfaces; nil for unknown ids.
func SurfaceGlobs(id string) []string {
	globs, ok := surfaceGlobs[id]
	if !ok {
		return nil
	}
	return globs
}

// SurfaceGlobsAll flattens the globs for a list of surface ids, skipping
// unknown ids.
func SurfaceGlobsAll(ids []string) []string {
	var out []string
	for _, id := range ids {
		out = append(out, SurfaceGlobs(id)...)
	}
	return out
}

// KnownSurface reports whether id exists in the catalog.
func KnownSurface(id string) bool {
	_, ok := surfaceGlobs[id]
	return ok
}
