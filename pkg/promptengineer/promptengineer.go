// Package promptengineer implements the deterministic pre-pipeline intent
// validator (C9, spec §4.1): a sanity check that runs before any LLM call,
// flags contradictions in the teacher's request, and estimates how long the
// pipeline will take to produce a draft. Run is pure and O(input size),
// matching the same no-I/O discipline as pkg/gatekeeper.
package promptengineer

import (
	"fmt"
	"math"
	"strings"

	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/models"
)

// gradeAPThreshold is the grade level at or below which AP/advanced-course
// names are considered contradictory (spec §4.1's last rule).
const gradeAPThreshold = 5

var advancedCourseMarkers = []string{"ap ", "calculus", "physics", "chemistry"}

// Result is the Prompt-Engineer's full report for one teacher intent.
type Result struct {
	Contradictions           []string
	MissingInfo              []string
	EstimatedTimeMinutes     int
	EstimatedCreationSeconds int
	Suggestions              []string
	ShouldBlock              bool
}

// Engine runs the pre-validator against a configuration's pacing table and
// constants.
type Engine struct {
	cfg *config.Config
}

// New creates an Engine backed by the given configuration.
func New(cfg *config.Config) *Engine { return &Engine{cfg: cfg} }

// Run implements the Prompt-Engineer contract: run(intent) → {contradictions,
// missingInfo, estimatedTimeMinutes, estimatedCreationSeconds, suggestions,
// shouldBlock}. No LLM calls; deterministic given intent and configuration.
func (e *Engine) Run(intent models.TeacherIntent) Result {
	var result Result

	result.MissingInfo = e.missingInfo(intent)
	result.Contradictions = e.contradictions(intent)
	result.ShouldBlock = len(result.Contradictions) > 0

	impliedQ := e.impliedQuestionCount(intent)
	result.EstimatedTimeMinutes = intent.TimeBudget
	result.EstimatedCreationSeconds = e.estimateCreationSeconds(intent, impliedQ)

	if len(result.MissingInfo) > 0 {
		result.Suggestions = append(result.Suggestions, "Provide the missing fields before generating: "+strings.Join(result.MissingInfo, ", "))
	}

	return result
}

// missingInfo implements spec §4.1's missing-info checks.
func (e *Engine) missingInfo(intent models.TeacherIntent) []string {
	var missing []string
	if len(strings.TrimSpace(intent.Course)) < 2 {
		missing = append(missing, "course")
	}
	topic := strings.ToLower(strings.TrimSpace(intent.Topic))
	if len(topic) < 3 || e.isSentinelTopic(topic) {
		missing = append(missing, "topic")
	}
	if len(intent.GradeLevels) == 0 {
		missing = append(missing, "gradeLevels")
	}
	if intent.TimeBudget <= 0 {
		missing = append(missing, "timeBudgetMinutes")
	}
	return missing
}

func (e *Engine) isSentinelTopic(topic string) bool {
	for _, s := range e.cfg.SentinelTopics {
		if topic == s {
			return true
		}
	}
	return false
}

// contradictions implements spec §4.1's contradiction rules, each producing
// one teacher-facing message.
func (e *Engine) contradictions(intent models.TeacherIntent) []string {
	var out []string

	if intent.TimeBudget < 10 && (intent.AssessmentType == models.AssessmentTest || intent.AssessmentType == models.AssessmentWorksheet) {
		out = append(out, fmt.Sprintf("A %d-minute time budget is too small for a %s; a test or worksheet needs at least 10 minutes.", intent.TimeBudget, intent.AssessmentType))
	}

	if intent.TimeBudget > 15 && (intent.AssessmentType == models.AssessmentBellRinger || intent.AssessmentType == models.AssessmentExitTicket) {
		out = append(out, fmt.Sprintf("A %d-minute time budget is unusually large for a %s; bell ringers and exit tickets are normally under 15 minutes.", intent.TimeBudget, intent.AssessmentType))
	}

	if row, ok := e.cfg.Pacing[intent.AssessmentType]; ok {
		impliedQ := e.impliedQuestionCount(intent)
		if float64(impliedQ) > float64(row.MaxQCount)*1.5 {
			out = append(out, fmt.Sprintf("The implied question count (%d) is more than 1.5x the usual maximum (%d) for %s, implying unworkably tight pacing.", impliedQ, row.MaxQCount, intent.AssessmentType))
		}
	}

	if intent.StudentLevel == models.StudentRemedial && intent.AssessmentType == models.AssessmentTest && intent.TimeBudget < 20 {
		out = append(out, fmt.Sprintf("A remedial-level test with only %d minutes is unlikely to be fair; remedial tests need at least 20 minutes.", intent.TimeBudget))
	}

	if intent.SectionCount > 1 && intent.TimeBudget < 15 {
		out = append(out, fmt.Sprintf("%d sections with only %d minutes leaves too little time per section.", intent.SectionCount, intent.TimeBudget))
	}

	if intent.Adaptive.StandardsAlignment == "ap" && intent.StudentLevel != models.StudentAP {
		out = append(out, fmt.Sprintf("AP standards alignment was requested but the student level is %q, not ap.", intent.StudentLevel))
	}

	if lowestGrade(intent.GradeLevels) <= gradeAPThreshold && containsAdvancedCourseMarker(intent.Course) {
		out = append(out, fmt.Sprintf("Course %q looks like an advanced/AP-level course, but the lowest grade level given is %d or below.", intent.Course, gradeAPThreshold))
	}

	return out
}

// lowestGrade parses the lowest numeric grade level present, ignoring
// non-numeric entries (e.g. "K"); returns a large sentinel if none parse,
// so the AP-course contradiction rule only fires on genuinely low grades.
func lowestGrade(grades []string) int {
	lowest := math.MaxInt32
	for _, g := range grades {
		g = strings.TrimSpace(strings.ToUpper(g))
		var n int
		if g == "K" {
			n = 0
		} else if _, err := fmt.Sscanf(g, "%d", &n); err != nil {
			continue
		}
		if n < lowest {
			lowest = n
		}
	}
	return lowest
}

func containsAdvancedCourseMarker(course string) bool {
	lower := strings.ToLower(course)
	for _, marker := range advancedCourseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// impliedQuestionCount derives the question count from time/avgMinPerQ,
// or uses the teacher-provided override when supplied.
func (e *Engine) impliedQuestionCount(intent models.TeacherIntent) int {
	if intent.QuestionCount > 0 {
		return intent.QuestionCount
	}
	row, ok := e.cfg.Pacing[intent.AssessmentType]
	if !ok || row.AvgMinPerQ <= 0 {
		return 0
	}
	q := int(math.Round(float64(intent.TimeBudget) / row.AvgMinPerQ))
	if q < row.MinQCount {
		q = row.MinQCount
	}
	if q > row.MaxQCount {
		q = row.MaxQCount
	}
	return q
}

// estimateCreationSeconds implements spec §4.1's creation-time formula:
// round((BASE + impliedQ*WRITER_SEC_PER_Q + inputLengthPenalty) * typeComplexity).
func (e *Engine) estimateCreationSeconds(intent models.TeacherIntent, impliedQ int) int {
	ct := e.cfg.CreationTime
	inputChars := len(intent.AdditionalDetails)
	for _, doc := range intent.SourceDocuments {
		inputChars += len(doc.Content)
	}
	penalty := float64(inputChars) / 500.0 * ct.InputPenaltyPer500Chars
	complexity := e.cfg.TypeComplexity[intent.AssessmentType]
	if complexity == 0 {
		complexity = 1.0
	}
	raw := (ct.Base + float64(impliedQ)*ct.WriterSecPerQ + penalty) * complexity
	return int(math.Round(raw))
}
