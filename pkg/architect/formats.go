package architect

import "github.com/andymattick/eduagents/pkg/models"

// questionFormatMap is the published resolution of Open Question #2 (spec
// §9): the adaptive.questionFormat chip, when supplied, maps to a concrete
// question-type pool that overrides the assessment type's configured
// defaults (but is itself overridden by an explicit intent.questionTypes).
var questionFormatMap = map[string][]models.QuestionType{
	"multipleChoiceOnly": {models.QuestionMultipleChoice},
	"mixedObjective":     {models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionFillInTheBlank},
	"shortAnswerHeavy":   {models.QuestionShortAnswer, models.QuestionConstructedResponse},
	"essayFocused":       {models.QuestionEssay, models.QuestionConstructedResponse},
	"skillsDrill":        {models.QuestionArithmeticFluency, models.QuestionFillInTheBlank},
	"matchingAndOrdering": {models.QuestionMatching, models.QuestionOrdering},
}

// QuestionTypesForFormat returns the configured pool for a questionFormat
// chip, and ok=false if the chip is empty or unrecognized.
func QuestionTypesForFormat(format string) ([]models.QuestionType, bool) {
	pool, ok := questionFormatMap[format]
	return pool, ok
}
