package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind selects a pattern-authoring helper for rule creation.
// Custom patterns pass through verbatim; the rest are built from escaped
// literal text.
type PatternKind string

const (
	PatternContains   PatternKind = "contains"
	PatternStartsWith PatternKind = "starts_with"
	PatternExact      PatternKind = "exact"
	PatternCustom     PatternKind = "custom"
)

// BuildPattern converts user intent into the stored regex pattern.
//
//	contains X    → .*X.*
//	starts_with X → ^X.*
//	exact X       → ^X$
//	custom X      → X (must compile)
func BuildPattern(kind PatternKind, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("pattern text cannot be empty")
	}

	switch kind {
	case PatternContains:
		return ".*" + regexp.QuoteMeta(trimmed) + ".*", nil
	case PatternStartsWith:
		return "^" + regexp.QuoteMeta(trimmed) + ".*", nil
	case PatternExact:
		return "^" + regexp.QuoteMeta(trimmed) + "$", nil
	case PatternCustom:
		if _, err := compileSearch(trimmed); err != nil {
			return "", fmt.Errorf("invalid custom pattern %q: %w", trimmed, err)
		}
		return trimmed, nil
	default:
		return "", fmt.Errorf("unknown pattern kind %q", kind)
	}
}
