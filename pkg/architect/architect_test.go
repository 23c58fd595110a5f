package architect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/models"
)

func testArchitect(t *testing.T) *Architect {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return New(cfg)
}

func TestPlan_SlotCountMatchesDerivedCount(t *testing.T) {
	a := testArchitect(t)
	intent := models.TeacherIntent{
		GradeLevels:    []string{"9"},
		Course:         "Algebra I",
		UnitName:       "Linear Equations",
		Topic:          "solving for x",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentQuiz,
		TimeBudget:     20,
	}
	plan, err := a.Plan(intent)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Slots)
	assert.Len(t, plan.Slots, 13) // 20 min at 1.5 min per quiz question, rounded
	assert.True(t, bloomtax.AtMost(plan.DepthFloor, plan.DepthCeiling))
	for _, s := range plan.Slots {
		assert.True(t, bloomtax.Within(s.CognitiveDemand, plan.DepthFloor, plan.DepthCeiling))
		assert.NotEmpty(t, s.ID)
	}
}

func TestPlan_TeacherQuestionCountOverride(t *testing.T) {
	a := testArchitect(t)
	intent := models.TeacherIntent{
		GradeLevels:    []string{"9"},
		Course:         "Algebra I",
		UnitName:       "Linear Equations",
		Topic:          "solving for x",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentQuiz,
		TimeBudget:     20,
		QuestionCount:  7,
	}
	plan, err := a.Plan(intent)
	require.NoError(t, err)
	assert.Len(t, plan.Slots, 7)
}

func TestPlan_ErrorsOnMissingCourse(t *testing.T) {
	a := testArchitect(t)
	_, err := a.Plan(models.TeacherIntent{TimeBudget: 10})
	assert.Error(t, err)
}

func TestPlan_ErrorsOnZeroTimeBudget(t *testing.T) {
	a := testArchitect(t)
	_, err := a.Plan(models.TeacherIntent{Course: "Algebra I", TimeBudget: 0})
	assert.Error(t, err)
}

func TestPlan_QuestionFormatChipSelectsPool(t *testing.T) {
	a := testArchitect(t)
	intent := models.TeacherIntent{
		GradeLevels:    []string{"9"},
		Course:         "Algebra I",
		UnitName:       "Linear Equations",
		Topic:          "solving for x",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentQuiz,
		TimeBudget:     20,
		Adaptive:       models.AdaptiveFlags{QuestionFormat: "multipleChoiceOnly"},
	}
	plan, err := a.Plan(intent)
	require.NoError(t, err)
	for _, s := range plan.Slots {
		assert.Equal(t, models.QuestionMultipleChoice, s.QuestionType)
	}
}

func TestPlan_ArithmeticFluencySlotsGetOperation(t *testing.T) {
	a := testArchitect(t)
	intent := models.TeacherIntent{
		GradeLevels:    []string{"3"},
		Course:         "Math",
		UnitName:       "Multiplication",
		Topic:          "times tables",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentWorksheet,
		TimeBudget:     20,
		QuestionTypes:  []models.QuestionType{models.QuestionArithmeticFluency},
	}
	plan, err := a.Plan(intent)
	require.NoError(t, err)
	for _, s := range plan.Slots {
		assert.NotEmpty(t, s.Operation)
	}
}

func TestPlan_BroadScopeWithManyFocusAreas(t *testing.T) {
	a := testArchitect(t)
	intent := models.TeacherIntent{
		GradeLevels:    []string{"9"},
		Course:         "Algebra I",
		UnitName:       "Linear Equations",
		Topic:          "solving for x",
		StudentLevel:   models.StudentStandard,
		AssessmentType: models.AssessmentQuiz,
		TimeBudget:     20,
		FocusAreas:     []string{"slope", "intercept", "graphing"},
	}
	plan, err := a.Plan(intent)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeBroad, plan.ScopeWidth)
}
