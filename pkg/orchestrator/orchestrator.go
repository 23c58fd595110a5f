// Package orchestrator implements the Orchestrator (C10, spec §4.8): the
// only component that owns mutable state across a run (the blueprint, the
// growing item map, and the Trace). It runs Architect->Writer->Gatekeeper
// ->Philosopher, branching on severity, then (in playtest mode)
// Astronomer->Philosopher again, and finally Builder. Grounded on the
// teacher's IteratingController (pkg/agent/controller/iterating.go): a
// bounded-iteration loop that calls an LLM, inspects the result, branches
// on what came back, and falls back to a forced conclusion once the bound
// is exhausted rather than looping forever.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andymattick/eduagents/pkg/architect"
	"github.com/andymattick/eduagents/pkg/astronomer"
	"github.com/andymattick/eduagents/pkg/bloombudget"
	"github.com/andymattick/eduagents/pkg/builder"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/forbidden"
	"github.com/andymattick/eduagents/pkg/gatekeeper"
	"github.com/andymattick/eduagents/pkg/llmtransport"
	"github.com/andymattick/eduagents/pkg/models"
	"github.com/andymattick/eduagents/pkg/philosopher"
	"github.com/andymattick/eduagents/pkg/promptengineer"
	"github.com/andymattick/eduagents/pkg/rewriter"
	"github.com/andymattick/eduagents/pkg/version"
	"github.com/andymattick/eduagents/pkg/writer"
)

// maxCycles bounds the restart loop (spec §4.8, §5).
const maxCycles = 3

// Orchestrator wires the full pipeline together. It is safe for reuse
// across runs; per-run state lives on the stack of GenerateAssessment.
type Orchestrator struct {
	architect      *architect.Architect
	promptEngineer *promptengineer.Engine
	writer         *writer.Writer
	gate           *gatekeeper.Gatekeeper
	rewrite        *rewriter.Rewriter
	phil           *philosopher.Philosopher
}

// New wires an Orchestrator from a shared transport, configuration, and
// forbidden-phrase scanner.
func New(transport llmtransport.Caller, cfg *config.Config, scanner *forbidden.Scanner) *Orchestrator {
	return &Orchestrator{
		architect:      architect.New(cfg),
		promptEngineer: promptengineer.New(cfg),
		writer:         writer.New(transport, cfg, scanner),
		gate:           gatekeeper.New(cfg),
		rewrite:        rewriter.New(transport, cfg),
		phil:           philosopher.New(),
	}
}

// GenerateAssessment implements generateAssessment(intent) -> PipelineResult
// (spec §6). playtest requests the optional Astronomer->Philosopher(playtest)
// pass after a write-mode pass completes or rewrites.
func (o *Orchestrator) GenerateAssessment(ctx context.Context, intent models.TeacherIntent, playtest bool) (*models.PipelineResult, error) {
	estimate := o.promptEngineer.Run(intent)
	deadline := time.Duration(estimate.EstimatedCreationSeconds) * 3 * time.Second
	if deadline <= 0 {
		deadline = 90 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	result := &models.PipelineResult{Trace: models.Trace{StartedAt: time.Now(), PipelineVersion: version.Full()}}

	for cycle := 0; cycle < maxCycles; cycle++ {
		if runCtx.Err() != nil {
			slog.Warn("orchestrator: run deadline exceeded before cycle start, forcing completion", "cycle", cycle)
			o.forceComplete(result, "run deadline exceeded before cycle start")
			return result, nil
		}

		restart, err := o.runCycle(runCtx, intent, playtest, result)
		if err != nil {
			result.Trace.FinishedAt = time.Now()
			return result, err
		}
		if !restart {
			result.Trace.FinishedAt = time.Now()
			return result, nil
		}
	}

	slog.Error("orchestrator: exhausted cycle bound without a complete verdict, forcing completion", "max_cycles", maxCycles)
	o.forceComplete(result, fmt.Sprintf("exhausted %d cycles without a complete verdict", maxCycles))
	return result, nil
}

// runCycle runs one Architect->Writer->Gatekeeper->Philosopher(write)
// [->Astronomer->Philosopher(playtest)]->Builder pass. restart is true only
// when a Philosopher verdict demands a full pipeline restart (severity >= 7,
// spec §4.8).
func (o *Orchestrator) runCycle(ctx context.Context, intent models.TeacherIntent, playtest bool, result *models.PipelineResult) (restart bool, err error) {
	stepStart := time.Now()
	blueprint, err := o.architect.Plan(intent)
	o.addStep(result, "architect", intent, blueprint, err, stepStart)
	if err != nil {
		return false, fmt.Errorf("orchestrator: architect failed: %w", err)
	}
	result.Blueprint = blueprint

	hintMode := o.resolveHintMode(*blueprint, intent)

	stepStart = time.Now()
	out, err := o.writer.WriteParallel(ctx, *blueprint, intent, hintMode)
	o.addStep(result, "writer", blueprint.Slots, out, err, stepStart)
	if err != nil {
		return false, fmt.Errorf("orchestrator: writer failed: %w", err)
	}
	result.WriterDraft = out.Items
	result.Scribe = out.Telemetry

	gateResults := o.gateAll(*blueprint, out.Items, intent)
	result.GatekeeperResult = gateResultSlice(*blueprint, gateResults)

	// The full Astronomer pass (per-item prediction, fatigue/confusion
	// forecasting) only runs in the playtest branch below, but misconception
	// coverage is cheap to check against the draft alone — the write-mode
	// Philosopher gets that signal early so a draft that gates clean but
	// still leaves a teacher-listed misconception unaddressed can still
	// come back "complete" with residual severity (spec §4.8's otherwise
	// branch) instead of looking indistinguishable from a fully clean draft.
	writeDecision := o.phil.Evaluate(philosopher.ModeWrite, philosopher.Input{
		Blueprint: *blueprint, Items: out.Items, GateResults: gateResults,
		Astronomer: astronomer.Report{UnaddressedMisconceptions: astronomer.UnaddressedMisconceptions(intent.Misconceptions, out.Items)},
	})
	result.PhilosopherWrite = writeDecision
	o.addDecisionStep(result, "philosopher-write", writeDecision)

	items := out.Items
	switch {
	case writeDecision.Status == philosopher.StatusRewrite && writeDecision.Severity >= 7:
		slog.Warn("orchestrator: write-mode verdict demands a full cycle restart",
			"severity", writeDecision.Severity, "culprit_problems", writeDecision.CulpritProblems)
		bloombudget.ApplyAdaptiveDriftBoost(out.Alignment.DriftRate())
		return true, nil
	case writeDecision.Status == philosopher.StatusRewrite:
		items = o.applyRewrites(ctx, *blueprint, items, intent, writeDecision.RewriteInstructions, gateResults)
		result.Rewritten = items
	}

	// The Astronomer/playtest pass runs either because the caller explicitly
	// asked for one (gated upstream by the teacher's subscription tier, spec
	// §6) or because the write-mode verdict came back complete but still
	// carrying residual severity — the Philosopher's own signal that a
	// playtest double-check is warranted regardless of what the caller
	// requested (spec §4.8's fourth branch).
	needsPlaytest := playtest || (writeDecision.Status == philosopher.StatusComplete && writeDecision.Severity > 2)
	if needsPlaytest {
		astroReport := astronomer.Analyze(*blueprint, items, gateResults, out.Alignment, intent)
		result.Astronomer = astroReport

		playDecision := o.phil.Evaluate(philosopher.ModePlaytest, philosopher.Input{
			Blueprint: *blueprint, Items: items, GateResults: gateResults, Astronomer: astroReport,
		})
		result.PhilosopherPlaytest = playDecision
		o.addDecisionStep(result, "philosopher-playtest", playDecision)

		switch {
		case playDecision.Status == philosopher.StatusRewrite && playDecision.Severity >= 7:
			slog.Warn("orchestrator: playtest-mode verdict demands a full cycle restart",
				"severity", playDecision.Severity, "culprit_problems", playDecision.CulpritProblems)
			bloombudget.ApplyAdaptiveDriftBoost(out.Alignment.DriftRate())
			return true, nil
		case playDecision.Status == philosopher.StatusRewrite:
			items = o.applyRewrites(ctx, *blueprint, items, intent, playDecision.RewriteInstructions, gateResults)
			result.Rewritten = items
		}
	}

	stepStart = time.Now()
	final := builder.Build(*blueprint, items, intent)
	o.addStep(result, "builder", items, final, nil, stepStart)
	result.FinalAssessment = final
	result.Selected = final

	bloombudget.RecordRunEnd(out.Telemetry.RewriteCount, alignmentSnapshots(out.Alignment))
	bloombudget.ApplyAdaptiveDriftBoost(out.Alignment.DriftRate())

	return false, nil
}

// resolveHintMode scores the Bloom Hint Budget (C3) once per cycle,
// consuming any one-shot boost left by the previous run's high drift rate
// (spec §4.3, §5).
func (o *Orchestrator) resolveHintMode(blueprint models.BlueprintPlan, intent models.TeacherIntent) bloombudget.HintMode {
	trust := 5
	res := bloombudget.Run(bloombudget.Input{
		DepthCeiling:      blueprint.DepthCeiling,
		PreviousDriftRate: previousDriftRate(),
		StudentLevel:      string(intent.StudentLevel),
		SlotCount:         len(blueprint.Slots),
		TimeMinutes:       intent.TimeBudget,
		TrustScore:        trust,
	}, "")
	return res.HintMode
}

// previousDriftRate recomputes the most recent run's Bloom drift rate from
// its snapshot, since the budget module only stores the per-slot alignment
// records rather than the precomputed rate.
func previousDriftRate() float64 {
	snapshot := bloombudget.LastBloomAlignment()
	if len(snapshot) == 0 {
		return 0
	}
	misaligned := 0
	for _, s := range snapshot {
		if !s.Aligned {
			misaligned++
		}
	}
	return float64(misaligned) / float64(len(snapshot))
}

func alignmentSnapshots(log models.BloomAlignmentLog) []bloombudget.AlignmentSnapshot {
	out := make([]bloombudget.AlignmentSnapshot, 0, len(log))
	for _, e := range log {
		out = append(out, bloombudget.AlignmentSnapshot{SlotID: e.SlotID, Aligned: e.Aligned, Direction: string(e.Direction)})
	}
	return out
}

// gateAll runs the Gatekeeper over every produced item, keyed by slot id.
func (o *Orchestrator) gateAll(blueprint models.BlueprintPlan, items []models.GeneratedItem, intent models.TeacherIntent) map[string]models.GateResult {
	slotByID := make(map[string]models.Slot, len(blueprint.Slots))
	for _, s := range blueprint.Slots {
		slotByID[s.ID] = s
	}
	results := make(map[string]models.GateResult, len(items))
	for _, item := range items {
		slot, ok := slotByID[item.SlotID]
		if !ok {
			continue
		}
		results[item.SlotID] = o.gate.ValidateSingle(slot, item, intent, blueprint.ScopeWidth)
	}
	return results
}

// gateResultSlice re-projects the gate result map into blueprint slot order
// for PipelineResult's ordered []GateResult field.
func gateResultSlice(blueprint models.BlueprintPlan, results map[string]models.GateResult) []models.GateResult {
	out := make([]models.GateResult, 0, len(blueprint.Slots))
	for _, slot := range blueprint.Slots {
		if gr, ok := results[slot.ID]; ok {
			out = append(out, gr)
		}
	}
	return out
}

// applyRewrites runs the Surgical Rewriter once per Philosopher-identified
// culprit slot, then re-projects the item list into blueprint slot order.
// Slots the Rewriter cannot fix keep their prior best-effort item.
func (o *Orchestrator) applyRewrites(ctx context.Context, blueprint models.BlueprintPlan, items []models.GeneratedItem, intent models.TeacherIntent, instructions []philosopher.RewriteInstruction, gateResults map[string]models.GateResult) []models.GeneratedItem {
	slotByID := make(map[string]models.Slot, len(blueprint.Slots))
	for _, s := range blueprint.Slots {
		slotByID[s.ID] = s
	}
	byID := make(map[string]models.GeneratedItem, len(items))
	for _, item := range items {
		byID[item.SlotID] = item
	}

	for _, instr := range instructions {
		slot, hasSlot := slotByID[instr.ProblemID]
		item, hasItem := byID[instr.ProblemID]
		if !hasSlot || !hasItem {
			continue
		}

		gr := gateResults[instr.ProblemID]
		mode := models.RewriteClarityFix
		if len(gr.Violations) > 0 {
			mode = models.ModeForViolation(gr.Violations[0].Type)
		}

		fixed, err := o.rewrite.RewriteSingle(ctx, rewriter.Request{
			Item:       item,
			Violations: gr.Violations,
			Mode:       mode,
			Slot:       slot,
			Intent:     intent,
		})
		if err != nil || fixed == nil {
			continue
		}
		fixed.SlotID = slot.ID
		fixed.QuestionType = slot.QuestionType
		byID[slot.ID] = *fixed
	}

	rewritten := make([]models.GeneratedItem, 0, len(blueprint.Slots))
	for _, slot := range blueprint.Slots {
		if item, ok := byID[slot.ID]; ok {
			rewritten = append(rewritten, item)
		}
	}
	return rewritten
}

// forceComplete marks the trace forced-complete and assembles whatever the
// most recent cycle accepted, even if under-quality (spec §4.8, §7).
func (o *Orchestrator) forceComplete(result *models.PipelineResult, reason string) {
	result.Trace.AddStep(models.TraceStep{
		Agent:      "orchestrator",
		Output:     map[string]any{"status": "forced-complete", "reason": reason},
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	})
	result.Trace.FinishedAt = time.Now()

	if result.FinalAssessment != nil {
		return
	}
	if result.Blueprint != nil && result.WriterDraft != nil {
		items := result.WriterDraft
		if result.Rewritten != nil {
			items = result.Rewritten
		}
		final := builder.Build(*result.Blueprint, items, result.Blueprint.Intent)
		result.FinalAssessment = final
		result.Selected = final
	}
}

func (o *Orchestrator) addStep(result *models.PipelineResult, agent string, input, output any, err error, startedAt time.Time) {
	step := models.TraceStep{
		Agent:      agent,
		Input:      input,
		Output:     output,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if err != nil {
		step.Errors = []string{err.Error()}
	}
	result.Trace.AddStep(step)
}

func (o *Orchestrator) addDecisionStep(result *models.PipelineResult, agent string, decision philosopher.Decision) {
	now := time.Now()
	result.Trace.AddStep(models.TraceStep{
		Agent:      agent,
		Output:     decision,
		StartedAt:  now,
		FinishedAt: now,
	})
}
