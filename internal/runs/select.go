package runs

import (
	"github.com/bmatcuk/doublestar/v4"
)

// SelectMetrics keeps the metrics matching any of the glob patterns, in
// their original order. Patterns use doublestar syntax, so "train/*" matches
// one level and "eval/**" any depth. No patterns selects everything.
func SelectMetrics(available, patterns []string) []string {
	if len(patterns) == 0 {
		return append([]string(nil), available...)
	}
	var out []string
	for _, m := range available {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, m); ok || p == m {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// ValidatePatterns returns the first malformed pattern, if any.
func ValidatePatterns(patterns []string) (string, bool) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return p, false
		}
	}
	return "", true
}
