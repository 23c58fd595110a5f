package bloomtax

import "strings"

// verbTable maps each Bloom level to its canonical action verbs, used both
// to build writer prompt hints (§4.3) and to classify a generated prompt's
// implied Bloom level (§4.4, §4.5 rule 6).
var verbTable = map[Level][]string{
	Remember:   {"list", "name", "define", "identify", "recall", "state", "label", "match"},
	Understand: {"explain", "describe", "summarize", "interpret", "classify", "compare", "discuss"},
	Apply:      {"solve", "calculate", "apply", "use", "demonstrate", "compute", "show", "illustrate"},
	Analyze:    {"analyze", "analyse", "differentiate", "examine", "distinguish", "break down", "organize"},
	Evaluate:   {"evaluate", "justify", "critique", "argue", "assess", "defend", "judge", "recommend"},
	Create:     {"design", "construct", "develop", "compose", "formulate", "devise", "create", "propose"},
}

// explanationVerbs are verbs that indicate explanation/justification even at
// the "remember" level; a remember-level MCQ that *lacks* these is still
// accepted by Gatekeeper rule 6's exemption (§4.5).
var explanationVerbs = []string{"why", "explain", "how", "describe", "interpret", "justify", "analyse", "analyze"}

// VerbsAt returns the canonical verbs for a single Bloom level.
func VerbsAt(l Level) []string {
	return verbTable[l]
}

// VerbsAtOrBelow returns the canonical verbs for l and every level below it,
// used by Gatekeeper rule 6 (cognitive demand).
func VerbsAtOrBelow(l Level) []string {
	var out []string
	for _, lvl := range AtOrBelow(l) {
		out = append(out, verbTable[lvl]...)
	}
	return out
}

// ExplanationVerbs returns the verbs that count as "explanation" for the
// remember-level MCQ exemption in Gatekeeper rule 6.
func ExplanationVerbs() []string {
	out := make([]string, len(explanationVerbs))
	copy(out, explanationVerbs)
	return out
}

// ContainsAnyVerb reports whether text contains any of the given verbs as a
// case-insensitive word-ish substring match. Verbs may be multi-word
// ("break down"), so this is a plain substring test rather than tokenized
// word matching.
func ContainsAnyVerb(text string, verbs []string) bool {
	lower := strings.ToLower(text)
	for _, v := range verbs {
		if strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// ClassifyPrompt infers the highest Bloom level implied by the verbs present
// in a prompt. Returns ("", false) if no recognized verb is found. When
// multiple levels match, the highest (most demanding) one wins, since a
// prompt combining "explain and evaluate" is at least evaluate-level.
func ClassifyPrompt(prompt string) (Level, bool) {
	lower := strings.ToLower(prompt)
	best := -1
	var bestLevel Level
	for _, lvl := range order {
		for _, v := range verbTable[lvl] {
			if strings.Contains(lower, strings.ToLower(v)) {
				if i := index(lvl); i > best {
					best = i
					bestLevel = lvl
				}
				break
			}
		}
	}
	if best < 0 {
		return "", false
	}
	return bestLevel, true
}
