// Package builder implements the Builder (part of C8, spec §4.7): it
// consumes the final accepted item map, assigns display numbering, and
// assembles the answer key, metadata, and achieved cognitive distribution
// into a FinalAssessment. Grounded on the Architect's pure-assembly style
// (pkg/architect/architect.go's Plan), applied here to the last stage of
// the pipeline instead of the first.
package builder

import (
	"fmt"

	"github.com/andymattick/eduagents/pkg/models"
)

// Build assembles the final assessment document from the blueprint's slot
// order and the accepted items bound to each slot (spec §4.7). Items not
// present in the blueprint's slot order are ignored; slots without an
// accepted item are skipped, so a best-effort assessment may be shorter
// than the blueprint (spec §7 "Per-slot hard failure").
func Build(blueprint models.BlueprintPlan, items []models.GeneratedItem, intent models.TeacherIntent) *models.FinalAssessment {
	byID := make(map[string]models.GeneratedItem, len(items))
	for _, item := range items {
		byID[item.SlotID] = item
	}

	assessmentItems := make([]models.AssessmentItem, 0, len(blueprint.Slots))
	distribution := make(map[string]int)
	number := 1
	for _, slot := range blueprint.Slots {
		item, ok := byID[slot.ID]
		if !ok {
			continue
		}
		assessmentItems = append(assessmentItems, models.AssessmentItem{
			ItemNumber: number,
			Prompt:     item.Prompt,
			Options:    item.Options,
			AnswerKey:  item.Answer,
			Metadata: map[string]any{
				"slotId":          slot.ID,
				"questionType":    string(slot.QuestionType),
				"cognitiveDemand": string(slot.CognitiveDemand),
				"difficulty":      string(slot.Difficulty),
				"pacing":          string(slot.Pacing),
			},
		})
		distribution[string(slot.CognitiveDemand)]++
		number++
	}

	return &models.FinalAssessment{
		Title:                  title(intent),
		Items:                  assessmentItems,
		TotalItems:             len(assessmentItems),
		CognitiveDistribution: distribution,
		Metadata: map[string]any{
			"numberingStyle":   blueprint.Constraints.NumberingStyle,
			"optionStyle":      blueprint.Constraints.OptionStyle,
			"explanationStyle": blueprint.Constraints.ExplanationStyle,
			"assessmentType":   string(intent.AssessmentType),
			"scopeWidth":       string(blueprint.ScopeWidth),
		},
	}
}

func title(intent models.TeacherIntent) string {
	if intent.UnitName != "" {
		return fmt.Sprintf("%s: %s", intent.Course, intent.UnitName)
	}
	return intent.Course
}
