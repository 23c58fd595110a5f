package config

import "github.com/andymattick/eduagents/pkg/models"

// builtin is the configuration baked into the binary. An operator may
// override any subset of it via a YAML file at load time (see Load), merged
// with mergo the same way the teacher merges built-in and user agent/chain
// configuration.
var builtin = &Config{
	Pacing: map[models.AssessmentType]PacingRow{
		models.AssessmentBellRinger: {AvgMinPerQ: 1.5, MinQCount: 2, MaxQCount: 5},
		models.AssessmentExitTicket: {AvgMinPerQ: 1.5, MinQCount: 2, MaxQCount: 5},
		models.AssessmentQuiz:       {AvgMinPerQ: 1.5, MinQCount: 5, MaxQCount: 15},
		models.AssessmentTest:       {AvgMinPerQ: 2.2, MinQCount: 10, MaxQCount: 40},
		models.AssessmentWorksheet:  {AvgMinPerQ: 2.0, MinQCount: 5, MaxQCount: 30},
		models.AssessmentTestReview: {AvgMinPerQ: 1.8, MinQCount: 8, MaxQCount: 35},
	},
	TypeComplexity: map[models.AssessmentType]float64{
		models.AssessmentBellRinger: 0.7,
		models.AssessmentExitTicket: 0.75,
		models.AssessmentQuiz:       0.95,
		models.AssessmentTest:       1.25,
		models.AssessmentWorksheet:  1.0,
		models.AssessmentTestReview: 1.35,
	},
	CreationTime: CreationTimeConstants{
		Base:                    12,
		WriterSecPerQ:           1.8,
		InputPenaltyPer500Chars: 0.6,
	},
	DefaultQuestionTypes: map[models.AssessmentType][]models.QuestionType{
		models.AssessmentBellRinger: {models.QuestionMultipleChoice, models.QuestionShortAnswer},
		models.AssessmentExitTicket: {models.QuestionMultipleChoice, models.QuestionShortAnswer, models.QuestionFillInTheBlank},
		models.AssessmentQuiz:       {models.QuestionMultipleChoice, models.QuestionShortAnswer, models.QuestionFillInTheBlank, models.QuestionTrueFalse},
		models.AssessmentTest: {
			models.QuestionMultipleChoice, models.QuestionShortAnswer, models.QuestionConstructedResponse,
			models.QuestionMatching, models.QuestionTrueFalse,
		},
		models.AssessmentWorksheet:  {models.QuestionFillInTheBlank, models.QuestionShortAnswer, models.QuestionArithmeticFluency},
		models.AssessmentTestReview: {models.QuestionMultipleChoice, models.QuestionShortAnswer, models.QuestionConstructedResponse},
	},
	ForbiddenPhraseGroups: map[string][]string{
		"generic-filler": {
			"in general mathematics",
			"as a general rule",
			"in general terms",
			"as we all know",
			"it goes without saying",
			"in today's world",
			"as previously mentioned",
		},
	},
	RewriteInstructions: map[models.RewriteMode]string{
		models.RewriteFormatFix:            "Fix structural formatting only. Enforce the exact MCQ four-option contract with letter prefixes and a full-text answer. Do not change the question's meaning.",
		models.RewriteDistractorStrengthen: "Replace weak or implausible distractors with stronger ones. Preserve the prompt, the correct answer, and the overall format.",
		models.RewriteClarityFix:           "Rephrase for clarity. Shorten overlong sentences. Do not alter the options or the answer.",
		models.RewriteCognitiveAdjust:      "Rewrite the stem to use verbs matching the required cognitive demand level. Preserve the options and answer unless the cognitive level change semantically forces a different answer.",
		models.RewriteDifficultyAdjust:     "Adjust rigor to match the required difficulty: remove proof-level reasoning for easy items, raise rigor for challenge items. Preserve the option format.",
		models.RewriteTopicGrounding:       "Explicitly reference the required topic and domain in the stem. Preserve the options and answer.",
	},
	GenericSubjects: []string{"math", "ela", "science", "biology", "history", "reading", "writing", "social studies"},
	SentinelTopics:  []string{"stuff", "misc", "review", "things", "topic", "tbd"},
}

// GetBuiltinConfig returns the compiled-in default configuration.
func GetBuiltinConfig() *Config { return builtin }
