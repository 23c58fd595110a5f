// Package astronomer implements the Astronomer (part of C8, spec §4.7): a
// read-only predicted-performance analyst over a writer draft. It never
// mutates items, producing an AstronomerReport the Philosopher consumes.
// Grounded on the Gatekeeper's pure-function, no-I/O rule style
// (pkg/gatekeeper/gatekeeper.go) applied here to aggregate analytics instead
// of per-item pass/fail.
package astronomer

import (
	"strings"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/models"
)

// ItemPrediction is the Astronomer's per-item forecast.
type ItemPrediction struct {
	SlotID              string  `json:"slotId"`
	PredictedCorrectRate float64 `json:"predictedCorrectRate"`
	EstimatedSeconds    int     `json:"estimatedSeconds"`
	CognitiveLoad       string  `json:"cognitiveLoad"` // low, medium, high
	FatigueRisk         string  `json:"fatigueRisk"`   // low, elevated
	ConfusionRisk       string  `json:"confusionRisk"` // low, elevated
}

// Report is the Astronomer's full output: {writerDraft, gatekeeperResult,
// …} → AstronomerReport (spec §4.7).
type Report struct {
	PerItem                 []ItemPrediction `json:"perItem"`
	AvgPredictedCorrectRate float64          `json:"avgPredictedCorrectRate"`
	TotalEstimatedSeconds   int              `json:"totalEstimatedSeconds"`
	UnaddressedMisconceptions []string       `json:"unaddressedMisconceptions,omitempty"`
}

// baseCorrectRate is the starting predicted correct rate per difficulty
// band, before violation/alignment adjustments.
var baseCorrectRate = map[models.Difficulty]float64{
	models.DifficultyEasy:      0.85,
	models.DifficultyMedium:    0.70,
	models.DifficultyHard:      0.55,
	models.DifficultyChallenge: 0.40,
}

// basePacingSeconds is the baseline time-on-task per pacing band.
var basePacingSeconds = map[models.Pacing]int{
	models.PacingTight:   40,
	models.PacingNormal:  75,
	models.PacingRelaxed: 120,
}

// Analyze builds a Report from the writer's bound items, the slot plan they
// were bound to, the Gatekeeper's per-slot violation counts, and the
// Writer's Bloom alignment log. It never mutates items (spec §4.7's
// invariant).
func Analyze(blueprint models.BlueprintPlan, items []models.GeneratedItem, gateResults map[string]models.GateResult, alignment models.BloomAlignmentLog, intent models.TeacherIntent) Report {
	slotByID := make(map[string]models.Slot, len(blueprint.Slots))
	for _, s := range blueprint.Slots {
		slotByID[s.ID] = s
	}
	alignedBySlot := make(map[string]bool, len(alignment))
	for _, a := range alignment {
		alignedBySlot[a.SlotID] = a.Aligned
	}

	report := Report{PerItem: make([]ItemPrediction, 0, len(items))}
	var sumRate float64
	hardTailStart := int(float64(len(items)) * 0.7)

	for i, item := range items {
		slot, ok := slotByID[item.SlotID]
		if !ok {
			continue
		}
		rate := baseCorrectRate[slot.Difficulty]
		if rate == 0 {
			rate = 0.7
		}
		if gr, ok := gateResults[item.SlotID]; ok {
			rate -= float64(len(gr.Violations)) * 0.05
		}
		confusion := "low"
		if aligned, ok := alignedBySlot[item.SlotID]; ok && !aligned {
			rate -= 0.1
			confusion = "elevated"
		}
		rate = clamp01(rate)

		fatigue := "low"
		if i >= hardTailStart && (slot.Difficulty == models.DifficultyHard || slot.Difficulty == models.DifficultyChallenge) {
			fatigue = "elevated"
		}

		seconds := basePacingSeconds[slot.Pacing]
		if seconds == 0 {
			seconds = 75
		}
		seconds += len(item.Prompt) / 20

		report.PerItem = append(report.PerItem, ItemPrediction{
			SlotID:              item.SlotID,
			PredictedCorrectRate: rate,
			EstimatedSeconds:    seconds,
			CognitiveLoad:       string(bloomtax.TierOf(slot.CognitiveDemand)),
			FatigueRisk:         fatigue,
			ConfusionRisk:       confusion,
		})
		sumRate += rate
		report.TotalEstimatedSeconds += seconds
	}

	if len(report.PerItem) > 0 {
		report.AvgPredictedCorrectRate = sumRate / float64(len(report.PerItem))
	}
	report.UnaddressedMisconceptions = UnaddressedMisconceptions(intent.Misconceptions, items)
	return report
}

// UnaddressedMisconceptions checks which teacher-listed misconceptions no
// item's prompt mentions. Exported so the Orchestrator can cheaply check
// misconception coverage at write-time, before a full Analyze pass (which
// also needs the Gatekeeper/alignment results the write-mode Philosopher
// call runs ahead of) is warranted.
func UnaddressedMisconceptions(misconceptions []string, items []models.GeneratedItem) []string {
	return unaddressedMisconceptions(misconceptions, items)
}

func unaddressedMisconceptions(misconceptions []string, items []models.GeneratedItem) []string {
	var unaddressed []string
	for _, m := range misconceptions {
		found := false
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Prompt), strings.ToLower(m)) {
				found = true
				break
			}
		}
		if !found {
			unaddressed = append(unaddressed, m)
		}
	}
	return unaddressed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
