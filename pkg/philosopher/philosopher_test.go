package philosopher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/astronomer"
	"github.com/andymattick/eduagents/pkg/models"
)

func TestEvaluate_CleanDraftIsComplete(t *testing.T) {
	p := New()
	in := Input{
		Items:       []models.GeneratedItem{{SlotID: "s1"}, {SlotID: "s2"}},
		GateResults: map[string]models.GateResult{"s1": {OK: true}, "s2": {OK: true}},
		Astronomer: astronomer.Report{
			PerItem: []astronomer.ItemPrediction{
				{SlotID: "s1", PredictedCorrectRate: 0.8, ConfusionRisk: "low"},
				{SlotID: "s2", PredictedCorrectRate: 0.75, ConfusionRisk: "low"},
			},
			AvgPredictedCorrectRate: 0.775,
		},
	}
	decision := p.Evaluate(ModeWrite, in)
	assert.Equal(t, StatusComplete, decision.Status)
	assert.LessOrEqual(t, decision.Severity, 2)
	assert.Empty(t, decision.CulpritProblems)
}

func TestEvaluate_ViolationsTriggerRewrite(t *testing.T) {
	p := New()
	in := Input{
		Items: []models.GeneratedItem{{SlotID: "s1"}},
		GateResults: map[string]models.GateResult{
			"s1": {OK: false, Violations: []models.Violation{
				{SlotID: "s1", Type: models.ViolationTopicMismatch, Message: "off topic"},
				{SlotID: "s1", Type: models.ViolationPacingViolation, Message: "too long"},
			}},
		},
		Astronomer: astronomer.Report{PerItem: []astronomer.ItemPrediction{{SlotID: "s1", PredictedCorrectRate: 0.6, ConfusionRisk: "low"}}},
	}
	decision := p.Evaluate(ModeWrite, in)
	assert.Equal(t, StatusRewrite, decision.Status)
	require.Len(t, decision.CulpritProblems, 1)
	assert.Equal(t, "s1", decision.CulpritProblems[0])
	require.Len(t, decision.RewriteInstructions, 1)
	assert.Len(t, decision.RewriteInstructions[0].Issues, 2)
}

func TestEvaluate_SeverityCapsAtTen(t *testing.T) {
	p := New()
	violations := make([]models.Violation, 20)
	for i := range violations {
		violations[i] = models.Violation{SlotID: "s1", Type: models.ViolationTopicMismatch, Message: "bad"}
	}
	in := Input{
		Items:       []models.GeneratedItem{{SlotID: "s1"}},
		GateResults: map[string]models.GateResult{"s1": {OK: false, Violations: violations}},
		Astronomer:  astronomer.Report{},
	}
	decision := p.Evaluate(ModeWrite, in)
	assert.Equal(t, 10, decision.Severity)
}

func TestEvaluate_CompleteWithResidualSeverityFromUnaddressedMisconceptions(t *testing.T) {
	p := New()
	in := Input{
		Items:       []models.GeneratedItem{{SlotID: "s1"}, {SlotID: "s2"}},
		GateResults: map[string]models.GateResult{"s1": {OK: true}, "s2": {OK: true}},
		Astronomer: astronomer.Report{
			PerItem: []astronomer.ItemPrediction{
				{SlotID: "s1", PredictedCorrectRate: 0.8, ConfusionRisk: "low"},
				{SlotID: "s2", PredictedCorrectRate: 0.75, ConfusionRisk: "low"},
			},
			AvgPredictedCorrectRate:  0.775,
			UnaddressedMisconceptions: []string{"sign error on negatives", "confuses slope with intercept", "drops remainder in division"},
		},
	}
	decision := p.Evaluate(ModeWrite, in)
	// Every slot cleared the Gatekeeper and showed no elevated risk, so there
	// is nothing for the Rewriter to act on — but the unaddressed
	// misconceptions still push severity above the rewrite threshold. Status
	// and severity are independent: this is the "complete but residually
	// risky" verdict the Orchestrator routes to an Astronomer/playtest pass.
	assert.Equal(t, StatusComplete, decision.Status)
	assert.Greater(t, decision.Severity, 2)
	assert.Empty(t, decision.CulpritProblems)
}

func TestEvaluate_PlaytestModeWeighsFatigueRisk(t *testing.T) {
	p := New()
	in := Input{
		Items:       []models.GeneratedItem{{SlotID: "s1"}},
		GateResults: map[string]models.GateResult{"s1": {OK: true}},
		Astronomer: astronomer.Report{
			PerItem: []astronomer.ItemPrediction{{SlotID: "s1", PredictedCorrectRate: 0.7, ConfusionRisk: "low", FatigueRisk: "elevated"}},
		},
	}
	writeDecision := p.Evaluate(ModeWrite, in)
	playtestDecision := p.Evaluate(ModePlaytest, in)
	assert.Greater(t, playtestDecision.Severity, writeDecision.Severity)
}

func TestEvaluate_CompareModeFlagsNoChange(t *testing.T) {
	p := New()
	prev := []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x."}}
	in := Input{
		Items:    []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x."}},
		Previous: prev,
	}
	decision := p.Evaluate(ModeCompare, in)
	assert.Equal(t, 1, decision.Severity)
}

func TestEvaluate_CompareModeAcceptsChangedPrompt(t *testing.T) {
	p := New()
	prev := []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x."}}
	in := Input{
		Items:    []models.GeneratedItem{{SlotID: "s1", Prompt: "Solve for x given 2x+3=11."}},
		Previous: prev,
	}
	decision := p.Evaluate(ModeCompare, in)
	assert.Equal(t, 0, decision.Severity)
}
