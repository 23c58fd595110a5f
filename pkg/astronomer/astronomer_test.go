package astronomer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/models"
)

func slot(id string, diff models.Difficulty, pacing models.Pacing, demand bloomtax.Level) models.Slot {
	return models.Slot{ID: id, QuestionType: models.QuestionShortAnswer, Difficulty: diff, Pacing: pacing, CognitiveDemand: demand}
}

func TestAnalyze_EasyCleanItemHasHighPredictedRate(t *testing.T) {
	blueprint := models.BlueprintPlan{Slots: []models.Slot{slot("s1", models.DifficultyEasy, models.PacingNormal, bloomtax.Remember)}}
	items := []models.GeneratedItem{{SlotID: "s1", Prompt: "List the prime numbers below 10."}}
	gateResults := map[string]models.GateResult{"s1": {OK: true}}
	alignment := models.BloomAlignmentLog{{SlotID: "s1", Aligned: true}}

	report := Analyze(blueprint, items, gateResults, alignment, models.TeacherIntent{})
	require.Len(t, report.PerItem, 1)
	assert.Greater(t, report.PerItem[0].PredictedCorrectRate, 0.7)
	assert.Equal(t, "low", report.PerItem[0].ConfusionRisk)
}

func TestAnalyze_ViolationsLowerPredictedRate(t *testing.T) {
	blueprint := models.BlueprintPlan{Slots: []models.Slot{slot("s1", models.DifficultyMedium, models.PacingNormal, bloomtax.Apply)}}
	items := []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x."}}
	clean := map[string]models.GateResult{"s1": {OK: true}}
	dirty := map[string]models.GateResult{"s1": {OK: false, Violations: []models.Violation{{Type: models.ViolationPacingViolation}, {Type: models.ViolationPacingViolation}}}}
	alignment := models.BloomAlignmentLog{{SlotID: "s1", Aligned: true}}

	cleanReport := Analyze(blueprint, items, clean, alignment, models.TeacherIntent{})
	dirtyReport := Analyze(blueprint, items, dirty, alignment, models.TeacherIntent{})
	assert.Greater(t, cleanReport.PerItem[0].PredictedCorrectRate, dirtyReport.PerItem[0].PredictedCorrectRate)
}

func TestAnalyze_BloomMisalignmentRaisesConfusionRisk(t *testing.T) {
	blueprint := models.BlueprintPlan{Slots: []models.Slot{slot("s1", models.DifficultyMedium, models.PacingNormal, bloomtax.Apply)}}
	items := []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x."}}
	gateResults := map[string]models.GateResult{"s1": {OK: true}}
	alignment := models.BloomAlignmentLog{{SlotID: "s1", Aligned: false}}

	report := Analyze(blueprint, items, gateResults, alignment, models.TeacherIntent{})
	assert.Equal(t, "elevated", report.PerItem[0].ConfusionRisk)
}

func TestAnalyze_UnaddressedMisconceptionsReported(t *testing.T) {
	blueprint := models.BlueprintPlan{Slots: []models.Slot{slot("s1", models.DifficultyMedium, models.PacingNormal, bloomtax.Apply)}}
	items := []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x in a linear equation."}}
	intent := models.TeacherIntent{Misconceptions: []string{"linear equation", "negative exponents"}}

	report := Analyze(blueprint, items, map[string]models.GateResult{}, nil, intent)
	require.Len(t, report.UnaddressedMisconceptions, 1)
	assert.Equal(t, "negative exponents", report.UnaddressedMisconceptions[0])
}

func TestAnalyze_AveragesAcrossItems(t *testing.T) {
	blueprint := models.BlueprintPlan{Slots: []models.Slot{
		slot("s1", models.DifficultyEasy, models.PacingNormal, bloomtax.Remember),
		slot("s2", models.DifficultyChallenge, models.PacingTight, bloomtax.Create),
	}}
	items := []models.GeneratedItem{
		{SlotID: "s1", Prompt: "List the first five primes."},
		{SlotID: "s2", Prompt: "Design a proof for the given theorem."},
	}
	report := Analyze(blueprint, items, map[string]models.GateResult{}, nil, models.TeacherIntent{})
	require.Len(t, report.PerItem, 2)
	assert.InDelta(t, (report.PerItem[0].PredictedCorrectRate+report.PerItem[1].PredictedCorrectRate)/2, report.AvgPredictedCorrectRate, 0.001)
}
