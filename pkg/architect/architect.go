// Package architect implements the Blueprint Planner (C7, spec §4.2): it
// turns a teacher intent into an ordered BlueprintPlan of Slots, the single
// artifact every downstream component (Writer, Gatekeeper, Bloom Hint
// Budget) plans and validates against. Grounded on the teacher's
// resolve-with-fallback chain style (pkg/config/chain.go,
// pkg/agent/config_resolver.go): derive the ideal plan, and when the ideal
// is unreachable, fall back to the closest achievable one and record why.
package architect

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/models"
)

// Architect plans blueprints against a fixed configuration.
type Architect struct {
	cfg *config.Config
}

// New creates an Architect backed by the given configuration.
func New(cfg *config.Config) *Architect { return &Architect{cfg: cfg} }

// Plan derives a BlueprintPlan obeying the §3 invariants: depthFloor <=
// depthCeiling, slot count equals the derived question count, and every
// slot's cognitive demand lies within [floor, ceiling]. Returns an error
// only for a structurally invalid intent; an unreachable ideal distribution
// degrades to the closest achievable one with a recorded note rather than
// failing.
func (a *Architect) Plan(intent models.TeacherIntent) (*models.BlueprintPlan, error) {
	if intent.Course == "" {
		return nil, fmt.Errorf("architect: intent.course is required")
	}
	if intent.TimeBudget <= 0 {
		return nil, fmt.Errorf("architect: intent.timeBudgetMinutes must be > 0")
	}

	count := a.impliedQuestionCount(intent)
	if count <= 0 {
		return nil, fmt.Errorf("architect: derived question count is zero for assessment type %q", intent.AssessmentType)
	}

	floor, ceiling := a.depthBand(intent)
	demands, notes := a.distributeDemands(count, floor, ceiling, intent)
	types := a.selectQuestionTypes(intent, count)
	difficulties := a.difficultyCurve(count, intent.Adaptive.SectionStructure)
	pacing := a.pacingBand(intent)
	scopeWidth := a.scopeWidth(intent)
	ordering := a.orderingStrategy(intent)

	slots := make([]models.Slot, count)
	for i := 0; i < count; i++ {
		slot := models.Slot{
			ID:              uuid.NewString(),
			QuestionType:    types[i],
			CognitiveDemand: demands[i],
			Difficulty:      difficulties[i],
			Pacing:          pacing,
		}
		if slot.QuestionType == models.QuestionArithmeticFluency {
			slot.Operation = arithmeticOperationFor(i)
		}
		slots[i] = slot
	}

	plan := &models.BlueprintPlan{
		Slots:                slots,
		ScopeWidth:           scopeWidth,
		DepthFloor:           floor,
		DepthCeiling:         ceiling,
		PacingSecondsPerItem: a.secondsPerItem(intent),
		OrderingStrategy:     ordering,
		Constraints:          a.constraints(intent),
		Intent:               intent,
		Notes:                notes,
	}
	return plan, nil
}

func (a *Architect) impliedQuestionCount(intent models.TeacherIntent) int {
	if intent.QuestionCount > 0 {
		return intent.QuestionCount
	}
	row, ok := a.cfg.Pacing[intent.AssessmentType]
	if !ok || row.AvgMinPerQ <= 0 {
		return 0
	}
	q := int(float64(intent.TimeBudget)/row.AvgMinPerQ + 0.5)
	if q < row.MinQCount {
		q = row.MinQCount
	}
	if q > row.MaxQCount {
		q = row.MaxQCount
	}
	return q
}

// depthBand picks [floor, ceiling] from studentLevel and bloomPreference
// (adaptive flag): standard is understand..apply, remedial lowers the floor
// to remember, honors shifts the band to apply..evaluate, and ap to
// analyze..create.
func (a *Architect) depthBand(intent models.TeacherIntent) (bloomtax.Level, bloomtax.Level) {
	floor, ceiling := bloomtax.Understand, bloomtax.Apply
	switch intent.StudentLevel {
	case models.StudentRemedial:
		floor, ceiling = bloomtax.Remember, bloomtax.Apply
	case models.StudentHonors:
		floor, ceiling = bloomtax.Apply, bloomtax.Evaluate
	case models.StudentAP:
		floor, ceiling = bloomtax.Analyze, bloomtax.Create
	}
	switch intent.Adaptive.BloomPreference {
	case "higher":
		if next, ok := raiseLevel(ceiling); ok {
			ceiling = next
		}
	case "lower":
		if prev, ok := lowerLevel(floor); ok {
			floor = prev
		}
	}
	if bloomtax.Before(ceiling, floor) {
		ceiling = floor
	}
	return floor, ceiling
}

func raiseLevel(l bloomtax.Level) (bloomtax.Level, bool) {
	all := bloomtax.All()
	for i, v := range all {
		if v == l && i < len(all)-1 {
			return all[i+1], true
		}
	}
	return l, false
}

func lowerLevel(l bloomtax.Level) (bloomtax.Level, bool) {
	all := bloomtax.All()
	for i, v := range all {
		if v == l && i > 0 {
			return all[i-1], true
		}
	}
	return l, false
}

// distributeDemands assigns each of count slots a Bloom level within
// [floor, ceiling], spreading roughly evenly across the available levels.
// If the requested spread demands more distinct levels than count allows,
// falls back to the closest achievable distribution and records a note.
func (a *Architect) distributeDemands(count int, floor, ceiling bloomtax.Level, intent models.TeacherIntent) ([]bloomtax.Level, []string) {
	band := levelsWithin(floor, ceiling)
	var notes []string
	if len(band) == 0 {
		band = []bloomtax.Level{floor}
	}
	if count < len(band) {
		notes = append(notes, fmt.Sprintf("requested Bloom band spans %d levels but only %d slots were derived; using the closest achievable distribution weighted toward the floor", len(band), count))
	}
	out := make([]bloomtax.Level, count)
	for i := 0; i < count; i++ {
		idx := (i * len(band)) / max(count, 1)
		if idx >= len(band) {
			idx = len(band) - 1
		}
		out[i] = band[idx]
	}
	return out, notes
}

func levelsWithin(floor, ceiling bloomtax.Level) []bloomtax.Level {
	var out []bloomtax.Level
	for _, l := range bloomtax.All() {
		if bloomtax.Within(l, floor, ceiling) {
			out = append(out, l)
		}
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// selectQuestionTypes uses intent.QuestionTypes if supplied, else the pool
// for the adaptive questionFormat chip, else the configured defaults for the
// assessment type, cycling to fill count slots.
func (a *Architect) selectQuestionTypes(intent models.TeacherIntent, count int) []models.QuestionType {
	pool := intent.QuestionTypes
	if len(pool) == 0 {
		if formatPool, ok := QuestionTypesForFormat(intent.Adaptive.QuestionFormat); ok {
			pool = formatPool
		}
	}
	if len(pool) == 0 {
		pool = a.cfg.DefaultQuestionTypes[intent.AssessmentType]
	}
	if len(pool) == 0 {
		pool = []models.QuestionType{models.QuestionShortAnswer}
	}
	out := make([]models.QuestionType, count)
	for i := 0; i < count; i++ {
		out[i] = pool[i%len(pool)]
	}
	return out
}

// difficultyCurve assigns easy->medium->hard->challenge in ascending order,
// evenly across count slots. The curve is the same for every ordering
// strategy, and sectionStructure does not change it: a multi-section request
// gets one curve over all its slots.
func (a *Architect) difficultyCurve(count int, sectionStructure string) []models.Difficulty {
	curve := []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyChallenge}
	out := make([]models.Difficulty, count)
	for i := 0; i < count; i++ {
		idx := (i * len(curve)) / max(count, 1)
		if idx >= len(curve) {
			idx = len(curve) - 1
		}
		out[i] = curve[idx]
	}
	return out
}

func (a *Architect) pacingBand(intent models.TeacherIntent) models.Pacing {
	row, ok := a.cfg.Pacing[intent.AssessmentType]
	if !ok {
		return models.PacingNormal
	}
	count := a.impliedQuestionCount(intent)
	if count == 0 {
		return models.PacingNormal
	}
	available := float64(intent.TimeBudget) / float64(count)
	switch {
	case available < row.AvgMinPerQ*0.75:
		return models.PacingTight
	case available > row.AvgMinPerQ*1.25:
		return models.PacingRelaxed
	default:
		return models.PacingNormal
	}
}

func (a *Architect) secondsPerItem(intent models.TeacherIntent) int {
	row, ok := a.cfg.Pacing[intent.AssessmentType]
	if !ok {
		return 90
	}
	return int(row.AvgMinPerQ * 60)
}

// scopeWidth derives from focus-area count and grade-level breadth
// (spec §4.2): many focus areas or many grade levels widen scope.
func (a *Architect) scopeWidth(intent models.TeacherIntent) models.ScopeWidth {
	switch {
	case len(intent.FocusAreas) >= 3 || len(intent.GradeLevels) >= 3:
		return models.ScopeBroad
	case len(intent.FocusAreas) == 0 && len(intent.GradeLevels) <= 1:
		return models.ScopeNarrow
	default:
		return models.ScopeFocused
	}
}

func (a *Architect) orderingStrategy(intent models.TeacherIntent) models.OrderingStrategy {
	switch intent.AssessmentType {
	case models.AssessmentTest, models.AssessmentTestReview:
		return models.OrderEasyToHard
	case models.AssessmentQuiz:
		return models.OrderInterleaved
	default:
		return models.OrderEasyToHard
	}
}

func (a *Architect) constraints(intent models.TeacherIntent) models.FormattingConstraints {
	c := models.FormattingConstraints{
		NumberingStyle:   "1.",
		OptionStyle:      "A. ",
		ExplanationStyle: "none",
	}
	if intent.AssessmentType == models.AssessmentTestReview {
		c.ExplanationStyle = "brief"
	}
	return c
}

// arithmeticOperationFor cycles the four basic arithmetic operations across
// consecutive arithmeticFluency slots.
func arithmeticOperationFor(i int) string {
	ops := []string{"add", "sub", "mul", "div"}
	return ops[i%len(ops)]
}
