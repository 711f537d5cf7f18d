package types

import "errors"

// Sentinel errors for PackGate operations.
var (
	// ErrUnknownComparator indicates an unregistered comparator id.
	ErrUnknownComparator = errors.New("comparator not registered")

	// ErrFactAbsent indicates a condition referenced a fact that resolved
	// to the absent sentinel or is not in the catalog.
	ErrFactAbsent = errors.New("fact absent from evaluation context")

	// ErrUnknownOperator indicates an unrecognized condition operator.
	ErrUnknownOperator = errors.New("unknown condition operator")

	// ErrMalformedCondition indicates a condition that is neither a valid
	// leaf nor a valid composite.
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrConditionTooDeep indicates a condition tree exceeds
	// MaxConditionDepth.
	ErrConditionTooDeep = errors.New("condition tree exceeds maximum depth")

	// ErrTranslationUnavailable indicates no condition equivalent exists
	// for a comparator id.
	ErrTranslationUnavailable = errors.New("no condition translation for comparator")

	// ErrObligationShape indicates an obligation with zero or two variants.
	ErrObligationShape = errors.New("obligation must set exactly one of comparator and condition")

	// ErrTooManyRules indicates a pack exceeds MaxRulesPerPack.
	ErrTooManyRules = errors.New("pack exceeds maximum rule count")

	// ErrBadGlobPattern indicates an invalid path-glob pattern.
	ErrBadGlobPattern = errors.New("invalid glob pattern")

	// ErrPackInvalid indicates pack validation failed.
	ErrPackInvalid = errors.New("pack validation failed")
)
