package models

import "time"

// WriterTelemetry aggregates per-run Writer statistics (spec §3).
type WriterTelemetry struct {
	ChunkSizes          []int `json:"chunkSizes"`
	TruncationEvents    int   `json:"truncationEvents"`
	GatekeeperViolations int  `json:"gatekeeperViolations"`
	RewriteCount        int   `json:"rewriteCount"`
	FinalProblemCount   int   `json:"finalProblemCount"`
}

// DriftDirection describes which way a Bloom-alignment disagreement leans.
type DriftDirection string

const (
	DriftNone   DriftDirection = "none"
	DriftHigher DriftDirection = "higher" // writer's implied level exceeded the slot's
	DriftLower  DriftDirection = "lower"  // writer's implied level undershot the slot's
)

// BloomAlignmentEntry records one slot's writer-vs-gatekeeper Bloom
// agreement (spec §3/§4.4).
type BloomAlignmentEntry struct {
	SlotID         string         `json:"slotId"`
	WriterBloom    string         `json:"writerBloom"`
	GatekeeperBloom string        `json:"gatekeeperBloom"`
	Aligned        bool           `json:"aligned"`
	Direction      DriftDirection `json:"direction"`
}

// BloomAlignmentLog is the ordered (blueprint slot order) sequence of
// per-slot alignment entries for one run.
type BloomAlignmentLog []BloomAlignmentEntry

// DriftRate computes the fraction of entries where the Gatekeeper-detected
// Bloom level disagreed with the writer's implied level (glossary: "Drift").
func (l BloomAlignmentLog) DriftRate() float64 {
	if len(l) == 0 {
		return 0
	}
	misaligned := 0
	for _, e := range l {
		if !e.Aligned {
			misaligned++
		}
	}
	return float64(misaligned) / float64(len(l))
}

// AssessmentItem is one item as it appears in the final assembled document.
type AssessmentItem struct {
	ItemNumber int               `json:"itemNumber"`
	Prompt     string            `json:"prompt"`
	Options    []string          `json:"options,omitempty"`
	AnswerKey  string            `json:"answerKey"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

// FinalAssessment is the Builder's output (spec §3).
type FinalAssessment struct {
	Title                string                    `json:"title"`
	Items                []AssessmentItem          `json:"items"`
	TotalItems           int                       `json:"totalItems"`
	CognitiveDistribution map[string]int           `json:"cognitiveDistribution"`
	Metadata             map[string]any            `json:"metadata,omitempty"`
}

// TraceStep is one recorded agent invocation (spec §3).
type TraceStep struct {
	Agent      string        `json:"agent"`
	Input      any           `json:"input,omitempty"`
	Output     any           `json:"output,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
}

// Trace is the full ordered record of one pipeline run (spec §3).
type Trace struct {
	Steps      []TraceStep `json:"steps"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	// PipelineVersion identifies the eduagents build that produced this
	// trace (e.g. "eduagents/a3f8c2d1"), so a stored or logged trace can be
	// traced back to the binary that generated it.
	PipelineVersion string `json:"pipelineVersion,omitempty"`
}

// AddStep appends a completed step and fills in its duration.
func (t *Trace) AddStep(step TraceStep) {
	step.Duration = step.FinishedAt.Sub(step.StartedAt)
	t.Steps = append(t.Steps, step)
}

// PipelineResult is the full output of generateAssessment (spec §6).
type PipelineResult struct {
	Selected             *FinalAssessment  `json:"selected"`
	Blueprint            *BlueprintPlan    `json:"blueprint"`
	WriterDraft          []GeneratedItem   `json:"writerDraft"`
	GatekeeperResult     []GateResult      `json:"gatekeeperResult"`
	Astronomer           any               `json:"astronomer,omitempty"`
	PhilosopherWrite     any               `json:"philosopherWrite"`
	PhilosopherPlaytest  any               `json:"philosopherPlaytest,omitempty"`
	Rewritten            []GeneratedItem   `json:"rewritten,omitempty"`
	FinalAssessment      *FinalAssessment  `json:"finalAssessment"`
	Scribe               WriterTelemetry   `json:"scribe"`
	Trace                Trace             `json:"trace"`
}
