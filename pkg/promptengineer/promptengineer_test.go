package promptengineer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/models"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return New(cfg)
}

func validIntent() models.TeacherIntent {
	return models.TeacherIntent{
		GradeLevels:    []string{"9", "10"},
		Course:         "Algebra I",
		UnitName:       "Linear Equations",
		Topic:          "solving for x",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentQuiz,
		TimeBudget:     20,
	}
}

func TestRun_CleanIntentNoContradictions(t *testing.T) {
	e := testEngine(t)
	result := e.Run(validIntent())
	assert.False(t, result.ShouldBlock)
	assert.Empty(t, result.Contradictions)
	assert.Empty(t, result.MissingInfo)
	assert.Greater(t, result.EstimatedCreationSeconds, 0)
}

func TestRun_ScenarioE_TinyTimeBudgetTest(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.AssessmentType = models.AssessmentTest
	intent.TimeBudget = 5
	result := e.Run(intent)
	require.True(t, result.ShouldBlock)
	require.NotEmpty(t, result.Contradictions)
	assert.Contains(t, result.Contradictions[0], "10")
}

func TestRun_LargeBudgetBellRinger(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.AssessmentType = models.AssessmentBellRinger
	intent.TimeBudget = 20
	result := e.Run(intent)
	assert.True(t, result.ShouldBlock)
}

func TestRun_RemedialTestShortTime(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.StudentLevel = models.StudentRemedial
	intent.AssessmentType = models.AssessmentTest
	intent.TimeBudget = 15
	result := e.Run(intent)
	assert.True(t, result.ShouldBlock)
}

func TestRun_MultipleSectionsShortTime(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.SectionCount = 2
	intent.TimeBudget = 10
	result := e.Run(intent)
	assert.True(t, result.ShouldBlock)
}

func TestRun_APAlignmentNonAPStudent(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.Adaptive.StandardsAlignment = "ap"
	result := e.Run(intent)
	assert.True(t, result.ShouldBlock)
}

func TestRun_LowGradeAdvancedCourse(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.GradeLevels = []string{"4", "5"}
	intent.Course = "AP Physics"
	result := e.Run(intent)
	assert.True(t, result.ShouldBlock)
}

func TestRun_MissingInfo(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	intent.Topic = "stuff"
	intent.Course = "A"
	intent.GradeLevels = nil
	result := e.Run(intent)
	assert.Contains(t, result.MissingInfo, "topic")
	assert.Contains(t, result.MissingInfo, "course")
	assert.Contains(t, result.MissingInfo, "gradeLevels")
	assert.NotEmpty(t, result.Suggestions)
}

func TestRun_CreationSecondsScalesWithInputLength(t *testing.T) {
	e := testEngine(t)
	short := validIntent()
	long := validIntent()
	for len(long.AdditionalDetails) < 2000 {
		long.AdditionalDetails += "x"
	}
	rShort := e.Run(short)
	rLong := e.Run(long)
	assert.Greater(t, rLong.EstimatedCreationSeconds, rShort.EstimatedCreationSeconds)
}

func TestRun_Deterministic(t *testing.T) {
	e := testEngine(t)
	intent := validIntent()
	a := e.Run(intent)
	b := e.Run(intent)
	assert.Equal(t, a, b)
}
