// Package config holds the deterministic tables the pipeline's pure
// components (Prompt-Engineer, Architect, Gatekeeper) depend on: pacing
// constants, creation-time constants, default question-type sets,
// forbidden-phrase groups, and rewrite-mode instructions. The Bloom verb
// tables are not configurable; they live in pkg/bloomtax.
package config

import "github.com/andymattick/eduagents/pkg/models"

// PacingRow is the per-assessment-type pacing table entry (spec §4.1).
type PacingRow struct {
	AvgMinPerQ float64 `yaml:"avg_min_per_q"`
	MinQCount  int     `yaml:"min_q_count"`
	MaxQCount  int     `yaml:"max_q_count"`
}

// CreationTimeConstants are the published constants for the creation-time
// estimate formula (spec §4.1):
//
//	round((BASE + impliedQ*WriterSecPerQ + inputLengthPenalty) * typeComplexity)
type CreationTimeConstants struct {
	Base                   float64 `yaml:"base"`
	WriterSecPerQ          float64 `yaml:"writer_sec_per_q"`
	InputPenaltyPer500Chars float64 `yaml:"input_penalty_per_500_chars"`
}

// Config is the fully merged, ready-to-use configuration.
type Config struct {
	Pacing              map[models.AssessmentType]PacingRow            `yaml:"pacing"`
	TypeComplexity      map[models.AssessmentType]float64              `yaml:"type_complexity"`
	CreationTime        CreationTimeConstants                          `yaml:"creation_time"`
	DefaultQuestionTypes map[models.AssessmentType][]models.QuestionType `yaml:"default_question_types"`
	ForbiddenPhraseGroups map[string][]string                           `yaml:"forbidden_phrase_groups"`
	RewriteInstructions map[models.RewriteMode]string                   `yaml:"rewrite_instructions"`
	GenericSubjects     []string                                        `yaml:"generic_subjects"`
	SentinelTopics      []string                                        `yaml:"sentinel_topics"`
}
