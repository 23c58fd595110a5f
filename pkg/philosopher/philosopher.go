// Package philosopher implements the Philosopher (part of C8, spec §4.7): a
// read-only quality judge over a writer draft and the Astronomer's
// predictions, producing a {status, severity, culpritProblems,
// rewriteInstructions, narrativeSummary, keyFindings, recommendations}
// decision the Orchestrator branches on. Grounded on the teacher's
// SubAgentResult/ExecutionStatus reporting shape
// (pkg/agent/orchestrator/types.go) — a terminal status plus a
// human-readable narrative over a batch of independent outcomes.
package philosopher

import (
	"fmt"
	"sort"

	"github.com/andymattick/eduagents/pkg/astronomer"
	"github.com/andymattick/eduagents/pkg/models"
)

// Mode is the Philosopher's three invocation modes (spec §4.7).
type Mode string

const (
	ModeWrite    Mode = "write"
	ModePlaytest Mode = "playtest"
	ModeCompare  Mode = "compare"
)

// Status is the closed outcome of a Philosopher evaluation.
type Status string

const (
	StatusComplete Status = "complete"
	StatusRewrite  Status = "rewrite"
)

// RewriteInstruction is one culprit slot's consolidated fix guidance,
// consumed by the Rewriter operating over a list of culprits rather than a
// single item (spec §4.7).
type RewriteInstruction struct {
	ProblemID    string   `json:"problemId"`
	Issues       []string `json:"issues"`
	Instructions string   `json:"instructions"`
}

// Decision is the Philosopher's output contract (spec §4.7).
type Decision struct {
	Status              Status                `json:"status"`
	Severity            int                   `json:"severity"` // 0-10
	CulpritProblems      []string              `json:"culpritProblems"`
	RewriteInstructions []RewriteInstruction  `json:"rewriteInstructions"`
	NarrativeSummary    string                `json:"narrativeSummary"`
	KeyFindings         []string              `json:"keyFindings"`
	Recommendations     []string              `json:"recommendations"`
}

// Input bundles everything one Evaluate call needs.
type Input struct {
	Blueprint   models.BlueprintPlan
	Items       []models.GeneratedItem
	GateResults map[string]models.GateResult
	Astronomer  astronomer.Report
	// Previous is the prior draft's items, populated only for ModeCompare.
	Previous []models.GeneratedItem
}

// Philosopher evaluates a writer draft's quality and recommends a course of
// action. It never mutates items.
type Philosopher struct{}

// New creates a Philosopher.
func New() *Philosopher { return &Philosopher{} }

// Evaluate implements the Philosopher's three-mode contract (spec §4.7).
func (p *Philosopher) Evaluate(mode Mode, in Input) Decision {
	if mode == ModeCompare {
		return p.evaluateCompare(in)
	}
	return p.evaluateQuality(mode, in)
}

func (p *Philosopher) evaluateQuality(mode Mode, in Input) Decision {
	culpritScore := make(map[string]int)
	var issuesBySlot = make(map[string][]string)

	for slotID, gr := range in.GateResults {
		if gr.OK {
			continue
		}
		culpritScore[slotID] += 2 * len(gr.Violations)
		for _, v := range gr.Violations {
			issuesBySlot[slotID] = append(issuesBySlot[slotID], string(v.Type)+": "+v.Message)
		}
	}

	for _, pred := range in.Astronomer.PerItem {
		if pred.ConfusionRisk == "elevated" {
			culpritScore[pred.SlotID]++
			issuesBySlot[pred.SlotID] = append(issuesBySlot[pred.SlotID], "Bloom level drift detected between writer output and slot target")
		}
		if pred.PredictedCorrectRate < 0.3 {
			culpritScore[pred.SlotID] += 2
			issuesBySlot[pred.SlotID] = append(issuesBySlot[pred.SlotID], "predicted correct rate is critically low")
		}
		if mode == ModePlaytest && pred.FatigueRisk == "elevated" {
			culpritScore[pred.SlotID]++
			issuesBySlot[pred.SlotID] = append(issuesBySlot[pred.SlotID], "elevated student fatigue risk late in the assessment")
		}
	}

	severity := 0
	for _, score := range culpritScore {
		severity += score
	}
	severity += len(in.Astronomer.UnaddressedMisconceptions)
	if severity > 10 {
		severity = 10
	}

	culprits := make([]string, 0, len(culpritScore))
	for slotID, score := range culpritScore {
		if score > 0 {
			culprits = append(culprits, slotID)
		}
	}
	sort.Strings(culprits)

	// status and severity are independent judgments: status asks whether any
	// slot has an actionable defect worth a rewrite pass, severity asks how
	// much residual risk the draft carries overall (including risk, like
	// unaddressed misconceptions, that isn't pinned to any one slot). A
	// draft can come back complete and still carry severity above the
	// rewrite threshold — that's the case the Orchestrator sends on to the
	// Astronomer for a playtest double-check instead of rewriting blind.
	status := StatusComplete
	if len(culprits) > 0 {
		status = StatusRewrite
	}

	instructions := make([]RewriteInstruction, 0, len(culprits))
	for _, slotID := range culprits {
		instructions = append(instructions, RewriteInstruction{
			ProblemID:    slotID,
			Issues:       issuesBySlot[slotID],
			Instructions: fmt.Sprintf("Address the listed issues for slot %s while preserving its questionType and cognitiveDemand.", slotID),
		})
	}

	return Decision{
		Status:              status,
		Severity:            severity,
		CulpritProblems:      culprits,
		RewriteInstructions: instructions,
		NarrativeSummary:    narrativeSummary(mode, len(in.Items), len(culprits), in.Astronomer, severity),
		KeyFindings:         keyFindings(in.Astronomer, len(culprits)),
		Recommendations:     recommendations(in.Astronomer, len(culprits)),
	}
}

func (p *Philosopher) evaluateCompare(in Input) Decision {
	before := make(map[string]models.GeneratedItem, len(in.Previous))
	for _, item := range in.Previous {
		before[item.SlotID] = item
	}
	changed := 0
	for _, item := range in.Items {
		if prev, ok := before[item.SlotID]; ok && prev.Prompt != item.Prompt {
			changed++
		}
	}

	status := StatusComplete
	severity := 0
	summary := fmt.Sprintf("Compared %d items against the prior draft: %d prompts changed.", len(in.Items), changed)
	if changed == 0 && len(in.Previous) > 0 {
		severity = 1
		summary += " No measurable improvement from the last rewrite pass."
	}

	return Decision{
		Status:           status,
		Severity:         severity,
		NarrativeSummary: summary,
		KeyFindings:      []string{summary},
	}
}

func narrativeSummary(mode Mode, itemCount, culpritCount int, report astronomer.Report, severity int) string {
	return fmt.Sprintf("%s-mode review of %d items: %d flagged for revision (severity %d/10). Average predicted correct rate %.0f%%.",
		mode, itemCount, culpritCount, severity, report.AvgPredictedCorrectRate*100)
}

func keyFindings(report astronomer.Report, culpritCount int) []string {
	var findings []string
	if culpritCount > 0 {
		findings = append(findings, fmt.Sprintf("%d item(s) raised Gatekeeper violations or confusion risk.", culpritCount))
	}
	if len(report.UnaddressedMisconceptions) > 0 {
		findings = append(findings, fmt.Sprintf("%d teacher-listed misconception(s) were not addressed by any item.", len(report.UnaddressedMisconceptions)))
	}
	if len(findings) == 0 {
		findings = append(findings, "No significant quality concerns detected.")
	}
	return findings
}

func recommendations(report astronomer.Report, culpritCount int) []string {
	var recs []string
	if culpritCount > 0 {
		recs = append(recs, "Run the surgical rewriter against the listed culprit slots before finalizing.")
	}
	if len(report.UnaddressedMisconceptions) > 0 {
		recs = append(recs, "Consider adding or retargeting an item to address the unaddressed misconceptions.")
	}
	return recs
}
