// Package forbidden compiles pattern groups of banned phrases once at load
// time and scans generated text against them, the same pattern-group design
// the teacher uses for data masking (pkg/masking/pattern.go), repurposed
// here for the Gatekeeper's avoid-list rule and the Writer's second-pass
// generic-filler scan (spec §4.4, §4.5 rule 8).
package forbidden

import (
	"regexp"
	"strings"
)

// CompiledPhrase holds a pre-compiled case-insensitive phrase matcher.
type CompiledPhrase struct {
	Group string
	Text  string
	re    *regexp.Regexp
}

// Scanner matches text against one or more named phrase groups.
type Scanner struct {
	groups map[string][]*CompiledPhrase
}

// NewScanner compiles the given named groups of literal phrases into a
// Scanner. Phrases are matched as case-insensitive literal substrings
// (quoted via regexp.QuoteMeta), not general regexes, since the spec's
// forbidden phrases are plain English strings, not patterns.
func NewScanner(groups map[string][]string) *Scanner {
	s := &Scanner{groups: make(map[string][]*CompiledPhrase, len(groups))}
	for name, phrases := range groups {
		compiled := make([]*CompiledPhrase, 0, len(phrases))
		for _, p := range phrases {
			compiled = append(compiled, &CompiledPhrase{
				Group: name,
				Text:  p,
				re:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p)),
			})
		}
		s.groups[name] = compiled
	}
	return s
}

// MatchGroup returns the first phrase from the named group found in text,
// and ok=true if one was found.
func (s *Scanner) MatchGroup(group, text string) (string, bool) {
	for _, cp := range s.groups[group] {
		if cp.re.MatchString(text) {
			return cp.Text, true
		}
	}
	return "", false
}

// MatchAny scans every compiled group and returns the first match found.
func (s *Scanner) MatchAny(text string) (group, phrase string, ok bool) {
	for g, phrases := range s.groups {
		for _, cp := range phrases {
			if cp.re.MatchString(text) {
				return g, cp.Text, true
			}
		}
	}
	return "", "", false
}

// ContainsLiteral reports whether text contains phrase as a case-insensitive
// substring. Used for the teacher-supplied avoid list, which is data rather
// than a compiled-at-load group.
func ContainsLiteral(text, phrase string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}
