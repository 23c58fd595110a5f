// Package models contains the data model shared by every pipeline
// component: TeacherIntent, BlueprintPlan, Slot, GeneratedItem, Violation,
// telemetry types, FinalAssessment, and Trace (spec §3).
package models

// StudentLevel is the teacher-selected rigor tier for an assessment.
type StudentLevel string

const (
	StudentRemedial StudentLevel = "remedial"
	StudentStandard StudentLevel = "standard"
	StudentHonors   StudentLevel = "honors"
	StudentAP       StudentLevel = "ap"
)

// AssessmentType is the kind of classroom artifact being generated.
type AssessmentType string

const (
	AssessmentBellRinger  AssessmentType = "bellRinger"
	AssessmentExitTicket  AssessmentType = "exitTicket"
	AssessmentQuiz        AssessmentType = "quiz"
	AssessmentTest        AssessmentType = "test"
	AssessmentWorksheet   AssessmentType = "worksheet"
	AssessmentTestReview  AssessmentType = "testReview"
)

// SourceDocument is a teacher-supplied reference document.
type SourceDocument struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ExampleAssessment is a teacher-supplied exemplar for style matching.
type ExampleAssessment struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// AdaptiveFlags carry optional teacher chips that steer the Architect
// without being required inputs.
type AdaptiveFlags struct {
	QuestionFormat      string `json:"questionFormat,omitempty"`
	BloomPreference     string `json:"bloomPreference,omitempty"`
	SectionStructure    string `json:"sectionStructure,omitempty"`
	StandardsAlignment  string `json:"standardsAlignment,omitempty"`
}

// TeacherIntent is the compact teacher-authored request that drives the
// entire pipeline (spec §3). Required fields are tagged for
// go-playground/validator; optional fields carry no `validate` tag.
type TeacherIntent struct {
	GradeLevels     []string           `json:"gradeLevels" validate:"required,min=1,dive,required"`
	Course          string             `json:"course" validate:"required,min=2"`
	UnitName        string             `json:"unitName" validate:"required"`
	Topic           string             `json:"topic" validate:"required,min=3"`
	StudentLevel    StudentLevel       `json:"studentLevel" validate:"required,oneof=remedial standard honors ap"`
	AssessmentType  AssessmentType     `json:"assessmentType" validate:"required,oneof=bellRinger exitTicket quiz test worksheet testReview"`
	TimeBudget      int                `json:"timeBudgetMinutes" validate:"required,gt=0"`

	LessonName          string              `json:"lessonName,omitempty"`
	AdditionalDetails   string              `json:"additionalDetails,omitempty"`
	FocusAreas          []string            `json:"focusAreas,omitempty"`
	Misconceptions      []string            `json:"misconceptions,omitempty"`
	AvoidList           []string            `json:"avoidList,omitempty"`
	SourceDocuments     []SourceDocument    `json:"sourceDocuments,omitempty"`
	ExampleAssessment   *ExampleAssessment  `json:"exampleAssessment,omitempty"`
	Adaptive            AdaptiveFlags       `json:"adaptive,omitempty"`
	QuestionCount       int                 `json:"questionCount,omitempty"` // teacher override of the derived count
	QuestionTypes       []QuestionType      `json:"questionTypes,omitempty"`
	SectionCount        int                 `json:"sectionCount,omitempty"` // 0/1 = single section

	// TeacherID keys the optional persistence-boundary lookups at pipeline
	// entry (teacher defaults and subscription tier, spec §6); it is not
	// required teacher input.
	TeacherID string `json:"teacherId,omitempty"`
}
