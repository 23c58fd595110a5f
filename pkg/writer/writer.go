// Package writer implements the Writer parallel engine (C6, spec §4.4): it
// batches blueprint slots into balanced groups, dispatches an LLM call per
// group in parallel with all-settled semantics, binds streamed items back
// to slots, and runs each item through the Gatekeeper -> Rewriter loop.
// Grounded on the teacher's SubAgentRunner (pkg/agent/orchestrator/
// runner.go) — the single closest file in the whole corpus to this
// component's contract: fan out independent units of work, collect
// per-unit results without one failure blocking the others, and bound the
// total work with retry rounds.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andymattick/eduagents/pkg/bloombudget"
	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/chunkparser"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/forbidden"
	"github.com/andymattick/eduagents/pkg/gatekeeper"
	"github.com/andymattick/eduagents/pkg/llmtransport"
	"github.com/andymattick/eduagents/pkg/models"
	"github.com/andymattick/eduagents/pkg/rewriter"
)

// Tunable constants named after spec §4.4/§5.
const (
	GroupSize            = 5
	MaxRetryRounds       = 2
	DefaultChunkSize     = 3
	MaxChunkSize         = 6
	MaxTruncationRetries = 3
	MaxRewritesPerSlot   = 2
	globalRewriteCapMax  = 30
)

// Output is writerParallel's contract: {items, telemetry} (spec §4.4).
type Output struct {
	Items     []models.GeneratedItem
	Telemetry models.WriterTelemetry
	Alignment models.BloomAlignmentLog
}

// Writer fans slot groups out to the LLM transport and runs the per-item
// Gatekeeper -> Rewriter loop.
type Writer struct {
	transport llmtransport.Caller
	gate      *gatekeeper.Gatekeeper
	rewrite   *rewriter.Rewriter
	scanner   *forbidden.Scanner
	cfg       *config.Config

	globalRewrites int
}

// New creates a Writer wired to the given transport, configuration, and
// compiled forbidden-phrase scanner.
func New(transport llmtransport.Caller, cfg *config.Config, scanner *forbidden.Scanner) *Writer {
	return &Writer{
		transport: transport,
		gate:      gatekeeper.New(cfg),
		rewrite:   rewriter.New(transport, cfg),
		scanner:   scanner,
		cfg:       cfg,
	}
}

// WriteParallel implements writerParallel(blueprint, intent,
// scribePrescriptions) → {items, telemetry}; items are returned in original
// slot order.
func (w *Writer) WriteParallel(ctx context.Context, blueprint models.BlueprintPlan, intent models.TeacherIntent, hintMode bloombudget.HintMode) (*Output, error) {
	w.globalRewrites = 0
	bound := make(map[string]models.GeneratedItem, len(blueprint.Slots))
	var telemetry models.WriterTelemetry

	// Pre-generation of deterministic slots: arithmeticFluency never reaches
	// the LLM.
	var remaining []models.Slot
	for _, slot := range blueprint.Slots {
		if slot.QuestionType == models.QuestionArithmeticFluency {
			bound[slot.ID] = generateArithmeticItem(slot, intent)
			continue
		}
		remaining = append(remaining, slot)
	}

	groups := balancedGroups(remaining, GroupSize)

	for round := 0; round <= MaxRetryRounds && len(remaining) > 0; round++ {
		results, err := w.dispatchGroups(ctx, groups, blueprint, intent, hintMode, &telemetry)
		if err != nil {
			return nil, fmt.Errorf("writer: group dispatch failed: %w", err)
		}
		for slotID, item := range results {
			bound[slotID] = item
		}

		var stillMissing []models.Slot
		for _, slot := range remaining {
			if _, ok := bound[slot.ID]; !ok {
				stillMissing = append(stillMissing, slot)
			}
		}
		remaining = stillMissing
		if len(remaining) == 0 {
			break
		}
		groups = balancedGroups(remaining, GroupSize)
	}

	// Any slot still missing after the retry rounds falls back to the
	// adaptive chunking path (single-path sequential variant, spec §4.4).
	if len(remaining) > 0 {
		fallbackResults := w.adaptiveChunkingFallback(ctx, remaining, blueprint, intent, hintMode, &telemetry)
		for slotID, item := range fallbackResults {
			bound[slotID] = item
		}
	}

	items := make([]models.GeneratedItem, 0, len(blueprint.Slots))
	var alignment models.BloomAlignmentLog
	for _, slot := range blueprint.Slots {
		item, ok := bound[slot.ID]
		if !ok {
			continue
		}
		item = w.secondPassForbiddenScan(ctx, slot, item, blueprint, intent, &telemetry)
		items = append(items, item)
		alignment = append(alignment, bloomAlignmentEntry(slot, item))
	}

	telemetry.FinalProblemCount = len(items)
	return &Output{Items: items, Telemetry: telemetry, Alignment: alignment}, nil
}

// balancedGroups partitions slots into groups of at most maxSize, sized
// evenly (e.g. 6 slots -> 3+3, not 5+1), per spec §4.4's "Grouping" rule.
func balancedGroups(slots []models.Slot, maxSize int) [][]models.Slot {
	if len(slots) == 0 {
		return nil
	}
	numGroups := (len(slots) + maxSize - 1) / maxSize
	if numGroups == 0 {
		numGroups = 1
	}
	base := len(slots) / numGroups
	extra := len(slots) % numGroups

	groups := make([][]models.Slot, 0, numGroups)
	idx := 0
	for g := 0; g < numGroups; g++ {
		size := base
		if g < extra {
			size++
		}
		groups = append(groups, slots[idx:idx+size])
		idx += size
	}
	return groups
}

// dispatchGroups sends every group in parallel with all-settled semantics:
// a failing group resolves to an empty result set (its slots remain
// missing for the retry loop) instead of aborting its siblings. errgroup is
// used here without a cancellable derived context specifically so one
// group's error never cancels the others in flight.
func (w *Writer) dispatchGroups(ctx context.Context, groups [][]models.Slot, blueprint models.BlueprintPlan, intent models.TeacherIntent, hintMode bloombudget.HintMode, telemetry *models.WriterTelemetry) (map[string]models.GeneratedItem, error) {
	results := make([]map[string]models.GeneratedItem, len(groups))
	var g errgroup.Group
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			res := w.callGroup(ctx, group, blueprint, intent, hintMode, telemetry)
			results[i] = res
			return nil // all-settled: never fail the group wait
		})
	}
	_ = g.Wait()

	merged := make(map[string]models.GeneratedItem)
	for _, res := range results {
		for slotID, item := range res {
			merged[slotID] = item
		}
	}
	return merged, nil
}

// callGroup builds one multi-slot prompt, streams the response, binds the
// i-th block to the i-th slot, and runs each bound item through the
// Gatekeeper -> Rewriter loop. A transport failure leaves the group's
// results empty so the caller's retry loop picks up its slots.
func (w *Writer) callGroup(ctx context.Context, group []models.Slot, blueprint models.BlueprintPlan, intent models.TeacherIntent, hintMode bloombudget.HintMode, telemetry *models.WriterTelemetry) map[string]models.GeneratedItem {
	prompt := buildGroupPrompt(group, blueprint, intent, hintMode)

	var buf strings.Builder
	var truncatedLeftover string
	err := w.transport.CallStreaming(ctx, llmtransport.StreamRequest{
		Prompt: prompt,
		Opts:   llmtransport.CallOptions{Temperature: 0.7, MaxOutputTokens: 2048},
		OnItem: func(chunk string) {
			buf.WriteString(chunk)
			telemetry.ChunkSizes = append(telemetry.ChunkSizes, len(chunk))
		},
		OnTruncation: func(leftover string) {
			truncatedLeftover = leftover
			telemetry.TruncationEvents++
		},
	})
	if err != nil {
		slotIDs := make([]string, len(group))
		for i, s := range group {
			slotIDs[i] = s.ID
		}
		slog.Warn("writer: group dispatch failed, slots remain missing for retry", "slots", slotIDs, "error", err)
		return nil
	}

	blocks, remainder := chunkparser.SplitBlocks(buf.String())

	parsed := make([]*models.GeneratedItem, 0, len(blocks)+1)
	for _, block := range blocks {
		item, perr := chunkparser.ParseGeneratedItem(block)
		if perr != nil {
			continue
		}
		parsed = append(parsed, item)
	}

	tail := strings.TrimSpace(remainder + truncatedLeftover)
	if tail != "" {
		if salvaged, serr := chunkparser.SalvageTruncated(tail); serr == nil {
			parsed = append(parsed, salvaged)
		}
	}

	results := make(map[string]models.GeneratedItem, len(group))
	for i, item := range parsed {
		if i >= len(group) {
			break
		}
		slot := group[i]
		item.SlotID = slot.ID
		item.QuestionType = slot.QuestionType
		results[slot.ID] = w.gateAndRewrite(ctx, slot, *item, intent, blueprint.ScopeWidth, telemetry)
	}
	return results
}

// gateAndRewrite implements the per-item Gate loop (spec §4.4): validate,
// and if not OK, surgically rewrite (capped per slot and globally) then
// validate again, accepting best-effort regardless of the final result.
func (w *Writer) gateAndRewrite(ctx context.Context, slot models.Slot, item models.GeneratedItem, intent models.TeacherIntent, scopeWidth models.ScopeWidth, telemetry *models.WriterTelemetry) models.GeneratedItem {
	current := item
	result := w.gate.ValidateSingle(slot, current, intent, scopeWidth)
	if result.OK {
		return current
	}
	telemetry.GatekeeperViolations += len(result.Violations)

	previousViolationCount := len(result.Violations)
	stagnantRewrites := 0
	for attempt := 0; attempt < MaxRewritesPerSlot; attempt++ {
		if w.globalRewrites >= globalRewriteCapMax {
			break
		}
		fixed, err := w.rewrite.RewriteSingle(ctx, rewriter.Request{
			Item:       current,
			Violations: result.Violations,
			Mode:       result.Mode,
			Slot:       slot,
			Intent:     intent,
		})
		w.globalRewrites++
		telemetry.RewriteCount++
		if err != nil || fixed == nil {
			break
		}
		current = *fixed
		result = w.gate.ValidateSingle(slot, current, intent, scopeWidth)
		if result.OK {
			return current
		}
		telemetry.GatekeeperViolations += len(result.Violations)
		// Stagnation detection: two successive rewrites that fail to reduce
		// the violation count accept the current best and exit the loop.
		if len(result.Violations) >= previousViolationCount {
			stagnantRewrites++
			if stagnantRewrites >= 2 {
				break
			}
		} else {
			stagnantRewrites = 0
		}
		previousViolationCount = len(result.Violations)
	}
	return current // accepted best-effort regardless of final gate state
}

// secondPassForbiddenScan flags generic-filler phrases after the Gatekeeper
// has run and sends flagged items through one more Rewriter pass
// (spec §4.4).
func (w *Writer) secondPassForbiddenScan(ctx context.Context, slot models.Slot, item models.GeneratedItem, blueprint models.BlueprintPlan, intent models.TeacherIntent, telemetry *models.WriterTelemetry) models.GeneratedItem {
	if w.scanner == nil {
		return item
	}
	phrase, found := w.scanner.MatchGroup("generic-filler", item.Prompt)
	if !found {
		return item
	}
	violation := models.Violation{SlotID: slot.ID, Type: models.ViolationForbiddenContent, Message: fmt.Sprintf("prompt contains generic filler phrase %q", phrase)}
	fixed, err := w.rewrite.RewriteSingle(ctx, rewriter.Request{
		Item:       item,
		Violations: []models.Violation{violation},
		Mode:       models.RewriteClarityFix,
		Slot:       slot,
		Intent:     intent,
	})
	telemetry.RewriteCount++
	if err != nil || fixed == nil {
		return item
	}
	return *fixed
}

// adaptiveChunkingFallback is the sequential single-path variant: starts at
// DefaultChunkSize, halves on truncation (min 1), increments on clean runs
// (max MaxChunkSize), up to MaxTruncationRetries retries per batch of
// missing slots (spec §4.4).
func (w *Writer) adaptiveChunkingFallback(ctx context.Context, missing []models.Slot, blueprint models.BlueprintPlan, intent models.TeacherIntent, hintMode bloombudget.HintMode, telemetry *models.WriterTelemetry) map[string]models.GeneratedItem {
	results := make(map[string]models.GeneratedItem, len(missing))
	chunkSize := DefaultChunkSize

	remaining := missing
	for len(remaining) > 0 {
		size := chunkSize
		if size > len(remaining) {
			size = len(remaining)
		}
		batch := remaining[:size]
		remaining = remaining[size:]

		var lastErr error
		for attempt := 0; attempt < MaxTruncationRetries; attempt++ {
			res := w.callGroup(ctx, batch, blueprint, intent, hintMode, telemetry)
			if len(res) == len(batch) {
				for slotID, item := range res {
					results[slotID] = item
				}
				if chunkSize < MaxChunkSize {
					chunkSize++
				}
				lastErr = nil
				break
			}
			for slotID, item := range res {
				results[slotID] = item
			}
			lastErr = fmt.Errorf("incomplete batch: got %d of %d", len(res), len(batch))
			if chunkSize > 1 {
				chunkSize /= 2
			}
		}
		_ = lastErr
	}
	return results
}

func generateArithmeticItem(slot models.Slot, intent models.TeacherIntent) models.GeneratedItem {
	a := 1 + rand.Intn(12)
	b := 1 + rand.Intn(12)
	var prompt, answer string
	switch slot.Operation {
	case "sub":
		if b > a {
			a, b = b, a
		}
		prompt = fmt.Sprintf("%d - %d = ?", a, b)
		answer = fmt.Sprintf("%d", a-b)
	case "mul":
		prompt = fmt.Sprintf("%d x %d = ?", a, b)
		answer = fmt.Sprintf("%d", a*b)
	case "div":
		product := a * b
		prompt = fmt.Sprintf("%d / %d = ?", product, a)
		answer = fmt.Sprintf("%d", b)
	default:
		prompt = fmt.Sprintf("%d + %d = ?", a, b)
		answer = fmt.Sprintf("%d", a+b)
	}
	return models.GeneratedItem{SlotID: slot.ID, QuestionType: models.QuestionArithmeticFluency, Prompt: prompt, Answer: answer}
}

func bloomAlignmentEntry(slot models.Slot, item models.GeneratedItem) models.BloomAlignmentEntry {
	writerBloom, ok := bloomtax.ClassifyPrompt(item.Prompt)
	if !ok {
		writerBloom = slot.CognitiveDemand
	}
	aligned := writerBloom == slot.CognitiveDemand
	direction := models.DriftNone
	if !aligned {
		if bloomtax.Before(slot.CognitiveDemand, writerBloom) {
			direction = models.DriftHigher
		} else {
			direction = models.DriftLower
		}
	}
	return models.BloomAlignmentEntry{
		SlotID:          slot.ID,
		WriterBloom:     string(writerBloom),
		GatekeeperBloom: string(slot.CognitiveDemand),
		Aligned:         aligned,
		Direction:       direction,
	}
}

func buildGroupPrompt(group []models.Slot, blueprint models.BlueprintPlan, intent models.TeacherIntent, hintMode bloombudget.HintMode) string {
	var sb strings.Builder
	sb.WriteString("You are writing assessment questions for a classroom. Follow this contract exactly.\n\n")
	sb.WriteString(fmt.Sprintf("Course: %s\nUnit: %s\nLesson: %s\nTopic: %s\nGrade levels: %s\nScope width: %s\n",
		intent.Course, intent.UnitName, intent.LessonName, intent.Topic, strings.Join(intent.GradeLevels, ", "), blueprint.ScopeWidth))
	if len(intent.FocusAreas) > 0 {
		sb.WriteString("Focus areas: " + strings.Join(intent.FocusAreas, ", ") + "\n")
	}
	if len(intent.Misconceptions) > 0 {
		sb.WriteString("Address these misconceptions: " + strings.Join(intent.Misconceptions, ", ") + "\n")
	}
	if len(intent.AvoidList) > 0 {
		sb.WriteString("Avoid: " + strings.Join(intent.AvoidList, ", ") + "\n")
	}
	sb.WriteString("\nBloom levels in ascending order: remember < understand < apply < analyze < evaluate < create.\n\n")

	for _, slot := range group {
		parts := bloombudget.PartsFor(slot.CognitiveDemand, hintMode)
		sb.WriteString(fmt.Sprintf("Slot %s: questionType=%s, cognitiveDemand=%s, difficulty=%s, pacing=%s\n",
			slot.ID, slot.QuestionType, slot.CognitiveDemand, slot.Difficulty, slot.Pacing))
		if parts.Label {
			sb.WriteString(fmt.Sprintf("  Target Bloom level: %s\n", slot.CognitiveDemand))
		}
		if parts.Verbs {
			verbs := bloomtax.VerbsAt(slot.CognitiveDemand)
			if parts.VerbCount == 0 && len(verbs) > 3 {
				verbs = verbs[:3]
			}
			sb.WriteString("  Use verbs like: " + strings.Join(verbs, ", ") + "\n")
		}
		if parts.ExampleStarter {
			sb.WriteString("  Start the stem naturally, avoiding repetitive templated openers across slots.\n")
		}
		if parts.StructureNote {
			sb.WriteString("  Vary sentence structure from neighboring slots.\n")
		}
	}

	sb.WriteString("\nMath formatting: use plain ASCII operators (+, -, *, /, =); no LaTeX.\n")
	sb.WriteString("Vary question stems naturally; do not repeat the same opening phrase across slots.\n")
	sb.WriteString(fmt.Sprintf("\nOutput contract: exactly one JSON object per slot, in slot order, each terminated by the sentinel %s. No arrays, no markdown fences, no extra text.\n", chunkparser.Sentinel))
	return sb.String()
}
