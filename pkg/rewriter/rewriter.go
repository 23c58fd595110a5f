// Package rewriter implements the Surgical Rewriter (C5, spec §4.6): it
// fixes a single item according to a classified rewrite mode, preserving
// the item's identity fields. Grounded on the teacher's single-call LLM
// invocation shape (pkg/agent/controller/single_call.go,
// pkg/agent/controller/single_shot.go) — one prompt in, one parsed
// structured result out, with a deterministic fallback when parsing fails.
package rewriter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andymattick/eduagents/pkg/chunkparser"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/llmtransport"
	"github.com/andymattick/eduagents/pkg/models"
)

// Request is the Rewriter's input contract: rewriteSingle({item, violations,
// mode}) → GeneratedItem (spec §4.6).
type Request struct {
	Item       models.GeneratedItem
	Violations []models.Violation
	Mode       models.RewriteMode
	Slot       models.Slot
	Intent     models.TeacherIntent
}

// Rewriter fixes a single item per its classified mode using the LLM
// transport; a failed parse returns the original item unchanged, so the
// Gatekeeper can catch it again on the next pass (spec §4.6's invariant).
type Rewriter struct {
	transport llmtransport.Caller
	cfg       *config.Config
}

// New creates a Rewriter backed by the given transport and configuration.
func New(transport llmtransport.Caller, cfg *config.Config) *Rewriter {
	return &Rewriter{transport: transport, cfg: cfg}
}

// RewriteSingle implements rewriteSingle({item, violations, mode}) →
// GeneratedItem. slotId and questionType of the output are forcibly set
// from the original item per spec §4.6's invariant.
func (r *Rewriter) RewriteSingle(ctx context.Context, req Request) (*models.GeneratedItem, error) {
	instruction := r.cfg.RewriteInstructions[req.Mode]
	if instruction == "" {
		instruction = r.cfg.RewriteInstructions[models.RewriteClarityFix]
	}

	prompt := buildPrompt(req, instruction)

	raw, err := r.transport.CallOne(ctx, prompt, llmtransport.CallOptions{Temperature: 0.3, MaxOutputTokens: 800})
	if err != nil {
		slog.Warn("rewriter: transport call failed, returning original item", "slot_id", req.Item.SlotID, "mode", req.Mode, "error", err)
		return req.Item.Clone(), fmt.Errorf("rewriter: transport call failed, returning original item: %w", err)
	}

	fixed, parseErr := chunkparser.ParseGeneratedItem(raw)
	if parseErr != nil {
		slog.Warn("rewriter: failed to parse rewritten item, returning original item", "slot_id", req.Item.SlotID, "mode", req.Mode, "error", parseErr)
		return req.Item.Clone(), nil
	}

	fixed.SlotID = req.Item.SlotID
	fixed.QuestionType = req.Item.QuestionType
	return fixed, nil
}

func buildPrompt(req Request, instruction string) string {
	var sb strings.Builder
	sb.WriteString("You are surgically fixing a single assessment question. ")
	sb.WriteString(instruction)
	sb.WriteString("\n\nOriginal item (JSON):\n")
	sb.WriteString(itemToJSONHint(req.Item))
	sb.WriteString("\n\nViolations to fix:\n")
	for _, v := range req.Violations {
		sb.WriteString("- ")
		sb.WriteString(string(v.Type))
		sb.WriteString(": ")
		sb.WriteString(v.Message)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\nRequired questionType: %s. Required cognitive demand: %s. Required difficulty: %s.\n",
		req.Slot.QuestionType, req.Slot.CognitiveDemand, req.Slot.Difficulty))
	sb.WriteString(fmt.Sprintf("Topic: %s. Unit: %s. Course: %s.\n", req.Intent.Topic, req.Intent.UnitName, req.Intent.Course))
	sb.WriteString("Return exactly one JSON object with fields slotId, questionType, prompt, options (if MCQ), answer. Terminate with ")
	sb.WriteString(chunkparser.Sentinel)
	sb.WriteString(". No markdown fences, no surrounding text.")
	return sb.String()
}

func itemToJSONHint(item models.GeneratedItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`{"slotId":%q,"questionType":%q,"prompt":%q`, item.SlotID, item.QuestionType, item.Prompt))
	if len(item.Options) > 0 {
		sb.WriteString(`,"options":[`)
		for i, o := range item.Options {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf("%q", o))
		}
		sb.WriteString("]")
	}
	sb.WriteString(fmt.Sprintf(`,"answer":%q}`, item.Answer))
	return sb.String()
}
