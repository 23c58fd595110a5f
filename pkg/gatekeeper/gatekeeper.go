// Package gatekeeper implements the deterministic per-item validator (C4,
// spec §4.5). ValidateSingle is a pure function: no LLM calls, no I/O, no
// suspension points (spec §5, §9) — this is what makes the per-item
// Gate→Rewrite loop (§4.4) trivially testable with a mock transport.
package gatekeeper

import (
	"fmt"
	"strings"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/forbidden"
	"github.com/andymattick/eduagents/pkg/models"
)

// normalPacingPromptLimit is the prompt length past which a "normal"-paced
// item is flagged (spec §4.5 rule 10).
const normalPacingPromptLimit = 300

// narrowScopeCommaLimit is the comma count past which a "narrow"-scope item
// is flagged (spec §4.5 rule 11).
const narrowScopeCommaLimit = 3

// Gatekeeper validates generated items against their slot and the teacher
// intent. It holds only the configuration it needs (generic-subject list,
// the avoid-list phrase data lives on the intent itself) — no mutable
// state, so one Gatekeeper is safely reused across an entire run.
type Gatekeeper struct {
	cfg *config.Config
}

// New creates a Gatekeeper backed by the given configuration.
func New(cfg *config.Config) *Gatekeeper { return &Gatekeeper{cfg: cfg} }

// ValidateSingle runs all eleven deterministic rules (spec §4.5) against one
// item, returning every violation found. mode is derived from the first
// violation via models.ModeForViolation; ok is true iff no violation fired.
func (g *Gatekeeper) ValidateSingle(
	slot models.Slot,
	item models.GeneratedItem,
	intent models.TeacherIntent,
	scopeWidth models.ScopeWidth,
) models.GateResult {
	var violations []models.Violation
	add := func(t models.ViolationType, msg string) {
		violations = append(violations, models.Violation{SlotID: slot.ID, Type: t, Message: msg})
	}

	// Rule 1: type match.
	if item.QuestionType != slot.QuestionType {
		add(models.ViolationQuestionTypeMismatch,
			fmt.Sprintf("item question type %q does not match slot type %q", item.QuestionType, slot.QuestionType))
	}

	// Rule 2: topic grounding.
	if !g.topicGrounded(item.Prompt, intent) {
		add(models.ViolationTopicMismatch, "prompt does not reference the topic, lesson, or unit")
	}

	// Rule 3: domain grounding.
	if g.courseIsSpecific(intent.Course) && !strings.Contains(Normalize(item.Prompt), Normalize(intent.Course)) {
		add(models.ViolationDomainMismatch, fmt.Sprintf("prompt does not mention the course %q", intent.Course))
	}

	// Rules 4/5: MCQ vs non-MCQ structure.
	if item.QuestionType == models.QuestionMultipleChoice {
		g.validateMCQ(item, &violations, slot.ID)
	} else if len(item.Options) > 0 {
		add(models.ViolationMCQOptionsUnexpected, "non-MCQ item must not carry options")
	}

	// Rule 6: cognitive demand.
	if !g.cognitiveDemandSatisfied(slot, item) {
		add(models.ViolationCognitiveDemandMismatch,
			fmt.Sprintf("prompt does not use a verb at or below Bloom level %q", slot.CognitiveDemand))
	}

	// Rule 7: difficulty heuristic.
	if slot.Difficulty == models.DifficultyEasy && strings.Contains(strings.ToLower(item.Prompt), "prove") {
		add(models.ViolationDifficultyMismatch, "easy item must not require a proof")
	}

	// Rule 8: avoid list.
	for _, avoid := range intent.AvoidList {
		if avoid == "" {
			continue
		}
		if forbidden.ContainsLiteral(item.Prompt, avoid) {
			add(models.ViolationForbiddenContent, fmt.Sprintf("prompt contains forbidden phrase %q", avoid))
			break
		}
	}

	// Rule 9: misconceptions.
	for _, m := range intent.Misconceptions {
		if m == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Prompt), strings.ToLower(m)) {
			add(models.ViolationMissingMisconception, fmt.Sprintf("prompt does not address required misconception %q", m))
		}
	}

	// Rule 10: pacing.
	if slot.Pacing == models.PacingNormal && len(item.Prompt) > normalPacingPromptLimit {
		add(models.ViolationPacingViolation, fmt.Sprintf("prompt exceeds %d characters for normal pacing", normalPacingPromptLimit))
	}

	// Rule 11: scope width.
	if scopeWidth == models.ScopeNarrow && strings.Count(item.Prompt, ",") > narrowScopeCommaLimit {
		add(models.ViolationScopeWidthViolation, fmt.Sprintf("prompt has more than %d commas for narrow scope", narrowScopeCommaLimit))
	}

	result := models.GateResult{OK: len(violations) == 0, Violations: violations}
	if len(violations) > 0 {
		result.Mode = models.ModeForViolation(violations[0].Type)
	}
	return result
}

// topicGrounded implements rule 2: take topic sources in priority
// {topic, lessonName, unitName}; require at least one full-phrase or
// keyword match from any source in the normalized prompt.
func (g *Gatekeeper) topicGrounded(prompt string, intent models.TeacherIntent) bool {
	normPrompt := Normalize(prompt)
	sources := []string{intent.Topic, intent.LessonName, intent.UnitName}
	for _, src := range sources {
		if src == "" {
			continue
		}
		normSrc := Normalize(src)
		if normSrc != "" && strings.Contains(normPrompt, normSrc) {
			return true
		}
		for _, kw := range Keywords(src) {
			if strings.Contains(normPrompt, kw) {
				return true
			}
		}
	}
	return false
}

// courseIsSpecific implements rule 3's "course is specific" predicate:
// more than one word, or a single word longer than 8 characters, or not a
// member of the generic-subject set.
func (g *Gatekeeper) courseIsSpecific(course string) bool {
	trimmed := strings.TrimSpace(course)
	if trimmed == "" {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) > 1 {
		return true
	}
	if len(words[0]) > 8 {
		return true
	}
	lower := strings.ToLower(words[0])
	for _, generic := range g.cfg.GenericSubjects {
		if lower == generic {
			return false
		}
	}
	return true
}

func (g *Gatekeeper) validateMCQ(item models.GeneratedItem, violations *[]models.Violation, slotID string) {
	add := func(t models.ViolationType, msg string) {
		*violations = append(*violations, models.Violation{SlotID: slotID, Type: t, Message: msg})
	}
	letters := []string{"A. ", "B. ", "C. ", "D. "}
	if len(item.Options) != 4 {
		add(models.ViolationMCQOptionsInvalid, fmt.Sprintf("expected exactly 4 options, got %d", len(item.Options)))
		return
	}
	for i, opt := range item.Options {
		if !strings.HasPrefix(opt, letters[i]) {
			add(models.ViolationMCQOptionsInvalid, fmt.Sprintf("option %d must be prefixed %q", i+1, letters[i]))
			return
		}
	}
	if answerMatchesOption(item.Answer, item.Options) {
		return
	}
	add(models.ViolationMCQAnswerMismatch, fmt.Sprintf("answer %q does not match any option", item.Answer))
}

// answerMatchesOption implements rule 4's answer-matching: an exact option
// match, or a bare-letter match (e.g. "B" matches "B. ...").
func answerMatchesOption(answer string, options []string) bool {
	trimmed := strings.TrimSpace(answer)
	for _, opt := range options {
		if trimmed == opt {
			return true
		}
	}
	if len(trimmed) == 1 || (len(trimmed) == 2 && strings.HasSuffix(trimmed, ".")) {
		letter := strings.ToUpper(strings.TrimSuffix(trimmed, "."))
		for _, opt := range options {
			if strings.HasPrefix(opt, letter+". ") {
				return true
			}
		}
	}
	return false
}

// cognitiveDemandSatisfied implements rule 6: the prompt must use a verb at
// the slot's Bloom level or any level below it. Exemption: a remember-level
// MCQ with no such verb is still accepted as long as it also contains no
// explanation verb, since remember-level multiple choice legitimately tests
// recall with no "why/explain" framing.
func (g *Gatekeeper) cognitiveDemandSatisfied(slot models.Slot, item models.GeneratedItem) bool {
	if !bloomtax.Valid(slot.CognitiveDemand) {
		return true // nothing to check against
	}
	verbs := bloomtax.VerbsAtOrBelow(slot.CognitiveDemand)
	if bloomtax.ContainsAnyVerb(item.Prompt, verbs) {
		return true
	}
	if slot.CognitiveDemand == bloomtax.Remember && item.QuestionType == models.QuestionMultipleChoice {
		return !bloomtax.ContainsAnyVerb(item.Prompt, bloomtax.ExplanationVerbs())
	}
	return false
}

