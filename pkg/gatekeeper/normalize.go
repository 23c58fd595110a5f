package gatekeeper

import (
	"regexp"
	"strings"
)

// operatorSpacing collapses any whitespace directly around a math operator
// to a single space on each side, so "x = 5" and "x=5" and "x  =  5" all
// normalize identically. This is the published resolution of Open Question
// #3 (spec §9): apply the same normalization to both the generated prompt
// and every topic source before keyword/phrase comparison.
var operatorSpacing = regexp.MustCompile(`\s*([=+−\-*/])\s*`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lowercases text and collapses whitespace, including the
// whitespace directly surrounding arithmetic/comparison operators, into a
// single canonical form suitable for keyword and phrase matching.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	spaced := operatorSpacing.ReplaceAllString(lower, " $1 ")
	collapsed := whitespaceRun.ReplaceAllString(spaced, " ")
	return strings.TrimSpace(collapsed)
}

// stopwords are excluded from topic/domain keyword extraction regardless of
// length, since they carry no grounding signal of their own.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "not": true, "but": true, "its": true,
}

// Keywords extracts the distinct normalized keywords of length >= 3 from
// text, excluding stopwords, for topic-grounding keyword matching
// (spec §4.5 rule 2).
func Keywords(text string) []string {
	norm := Normalize(text)
	fields := strings.Fields(norm)
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]{}\"'")
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
