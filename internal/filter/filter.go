// Package filter implements glob include/exclude entity filtering for
// PlanOptions.Filter, grounded on the teacher's internal/ir/ignore.go
// (glob patterns with "!"-prefixed negation, matched via filepath.Match).
package filter

import "path/filepath"

// Filter holds glob patterns per entity class. A name is included
// unless it matches a pattern and is not subsequently un-matched by a
// "!"-prefixed negation pattern later in the same list — the same
// two-pass rule the teacher's ignore loader uses.
type Filter struct {
	Tables     []string
	Views      []string
	Functions  []string
	Procedures []string
	Types      []string
	Sequences  []string
}

// Empty reports whether no patterns were configured at all, in which
// case every entity passes.
func (f Filter) Empty() bool {
	return len(f.Tables) == 0 && len(f.Views) == 0 && len(f.Functions) == 0 &&
		len(f.Procedures) == 0 && len(f.Types) == 0 && len(f.Sequences) == 0
}

func (f Filter) ExcludesTable(name string) bool     { return shouldExclude(name, f.Tables) }
func (f Filter) ExcludesView(name string) bool      { return shouldExclude(name, f.Views) }
func (f Filter) ExcludesFunction(name string) bool  { return shouldExclude(name, f.Functions) }
func (f Filter) ExcludesProcedure(name string) bool { return shouldExclude(name, f.Procedures) }
func (f Filter) ExcludesType(name string) bool      { return shouldExclude(name, f.Types) }
func (f Filter) ExcludesSequence(name string) bool  { return shouldExclude(name, f.Sequences) }

// shouldExclude implements the two-pass glob rule: no patterns means
// nothing is excluded; a positive match excludes unless a later
// negation pattern ("!pattern") re-includes it.
func shouldExclude(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	excluded := false
	for _, p := range patterns {
		if negated, pat := isNegated(p); negated {
			if match(name, pat) {
				excluded = false
			}
			continue
		}
		if match(name, p) {
			excluded = true
		}
	}
	return excluded
}

func isNegated(pattern string) (bool, string) {
	if len(pattern) > 0 && pattern[0] == '!' {
		return true, pattern[1:]
	}
	return false, pattern
}

func match(name, pattern string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
