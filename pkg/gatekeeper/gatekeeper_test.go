package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/models"
)

func testGatekeeper(t *testing.T) *Gatekeeper {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return New(cfg)
}

func baseIntent() models.TeacherIntent {
	return models.TeacherIntent{
		Course:   "Algebra I",
		UnitName: "Linear Equations",
		Topic:    "solve for x",
	}
}

func baseSlot() models.Slot {
	return models.Slot{
		ID:              "s1",
		QuestionType:    models.QuestionShortAnswer,
		CognitiveDemand: bloomtax.Apply,
		Difficulty:      models.DifficultyMedium,
		Pacing:          models.PacingNormal,
	}
}

func TestValidateSingle_CleanItemPasses(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11, showing each step.",
		Answer:       "x = 4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	assert.True(t, result.OK, "expected no violations, got %+v", result.Violations)
}

func TestValidateSingle_TypeMismatch(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionTrueFalse,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Answer:       "true",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	assert.Equal(t, models.ViolationQuestionTypeMismatch, result.Violations[0].Type)
	assert.Equal(t, models.RewriteFormatFix, result.Mode)
}

func TestValidateSingle_TopicMismatch(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Describe the water cycle and its major stages.",
		Answer:       "evaporation, condensation, precipitation",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	var found bool
	for _, v := range result.Violations {
		if v.Type == models.ViolationTopicMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSingle_MCQStructure(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.QuestionType = models.QuestionMultipleChoice
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionMultipleChoice,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Options:      []string{"A. 3", "B. 4", "C. 5"},
		Answer:       "B. 4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	assert.Equal(t, models.ViolationMCQOptionsInvalid, result.Violations[0].Type)
}

func TestValidateSingle_MCQAnswerMismatch(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.QuestionType = models.QuestionMultipleChoice
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionMultipleChoice,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Options:      []string{"A. 3", "B. 4", "C. 5", "D. 6"},
		Answer:       "7",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	assert.Equal(t, models.ViolationMCQAnswerMismatch, result.Violations[0].Type)
}

func TestValidateSingle_MCQAnswerByLetter(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.QuestionType = models.QuestionMultipleChoice
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionMultipleChoice,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Options:      []string{"A. 3", "B. 4", "C. 5", "D. 6"},
		Answer:       "B",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	for _, v := range result.Violations {
		assert.NotEqual(t, models.ViolationMCQAnswerMismatch, v.Type)
	}
}

func TestValidateSingle_NonMCQWithOptionsUnexpected(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Options:      []string{"A. 3"},
		Answer:       "4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	assert.Equal(t, models.ViolationMCQOptionsUnexpected, result.Violations[0].Type)
}

func TestValidateSingle_CognitiveDemandMismatch(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.CognitiveDemand = bloomtax.Remember
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Design an Algebra I equation that has the same solution as 2x + 3 = 11.",
		Answer:       "x = 4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	var found bool
	for _, v := range result.Violations {
		if v.Type == models.ViolationCognitiveDemandMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSingle_RememberMCQExemption(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.QuestionType = models.QuestionMultipleChoice
	slot.CognitiveDemand = bloomtax.Remember
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionMultipleChoice,
		Prompt:       "In the Algebra I equation 2x + 3 = 11, what is x?",
		Options:      []string{"A. 3", "B. 4", "C. 5", "D. 6"},
		Answer:       "B. 4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	for _, v := range result.Violations {
		assert.NotEqual(t, models.ViolationCognitiveDemandMismatch, v.Type)
	}
}

func TestValidateSingle_DifficultyHeuristic(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.Difficulty = models.DifficultyEasy
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Prove that x = 4 solves the Algebra I equation 2x + 3 = 11.",
		Answer:       "substitution",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	require.False(t, result.OK)
	assert.Contains(t, []models.ViolationType{models.ViolationDifficultyMismatch}, result.Violations[0].Type)
}

func TestValidateSingle_AvoidList(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	intent := baseIntent()
	intent.AvoidList = []string{"word problem"}
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "This word problem asks you to solve for x in the Algebra I equation 2x + 3 = 11.",
		Answer:       "4",
	}
	result := gk.ValidateSingle(slot, item, intent, models.ScopeFocused)
	require.False(t, result.OK)
	var found bool
	for _, v := range result.Violations {
		if v.Type == models.ViolationForbiddenContent {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSingle_MissingMisconception(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	intent := baseIntent()
	intent.Misconceptions = []string{"sign error"}
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Solve for x in the Algebra I equation 2x + 3 = 11.",
		Answer:       "4",
	}
	result := gk.ValidateSingle(slot, item, intent, models.ScopeFocused)
	require.False(t, result.OK)
	assert.Equal(t, models.ViolationMissingMisconception, result.Violations[0].Type)
}

func TestValidateSingle_PacingViolation(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	slot.Pacing = models.PacingNormal
	longPrompt := "Solve for x in the Algebra I equation 2x + 3 = 11. "
	for len(longPrompt) <= normalPacingPromptLimit {
		longPrompt += "Show every step of your work very carefully and explain your reasoning. "
	}
	item := models.GeneratedItem{SlotID: slot.ID, QuestionType: models.QuestionShortAnswer, Prompt: longPrompt, Answer: "4"}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeFocused)
	var found bool
	for _, v := range result.Violations {
		if v.Type == models.ViolationPacingViolation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSingle_ScopeWidthViolation(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Solve for x, y, z, a, b in the Algebra I equation 2x + 3 = 11.",
		Answer:       "4",
	}
	result := gk.ValidateSingle(slot, item, baseIntent(), models.ScopeNarrow)
	require.False(t, result.OK)
	var found bool
	for _, v := range result.Violations {
		if v.Type == models.ViolationScopeWidthViolation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateSingle_Idempotent(t *testing.T) {
	gk := testGatekeeper(t)
	slot := baseSlot()
	item := models.GeneratedItem{
		SlotID:       slot.ID,
		QuestionType: models.QuestionShortAnswer,
		Prompt:       "Describe something unrelated to the topic entirely.",
		Answer:       "n/a",
	}
	intent := baseIntent()
	first := gk.ValidateSingle(slot, item, intent, models.ScopeFocused)
	second := gk.ValidateSingle(slot, item, intent, models.ScopeFocused)
	assert.Equal(t, first, second)
}
