package rewriter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andymattick/eduagents/pkg/bloomtax"
	"github.com/andymattick/eduagents/pkg/config"
	"github.com/andymattick/eduagents/pkg/llmtransport"
	"github.com/andymattick/eduagents/pkg/models"
)

type fakeCaller struct {
	response string
	err      error
}

func (f *fakeCaller) CallOne(ctx context.Context, prompt string, opts llmtransport.CallOptions) (string, error) {
	return f.response, f.err
}

func (f *fakeCaller) CallStreaming(ctx context.Context, req llmtransport.StreamRequest) error {
	return errors.New("not used in rewriter tests")
}

func testRewriter(t *testing.T, caller llmtransport.Caller) *Rewriter {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return New(caller, cfg)
}

func TestRewriteSingle_SuccessfulFix(t *testing.T) {
	caller := &fakeCaller{response: `{"slotId":"s1","questionType":"shortAnswer","prompt":"Solve for x in 2x+3=11.","answer":"4"}`}
	r := testRewriter(t, caller)
	req := Request{
		Item:       models.GeneratedItem{SlotID: "s1", QuestionType: models.QuestionShortAnswer},
		Violations: []models.Violation{{SlotID: "s1", Type: models.ViolationTopicMismatch, Message: "no topic"}},
		Mode:       models.RewriteTopicGrounding,
		Slot:       models.Slot{ID: "s1", QuestionType: models.QuestionShortAnswer, CognitiveDemand: bloomtax.Apply, Difficulty: models.DifficultyMedium},
		Intent:     models.TeacherIntent{Topic: "solving for x", UnitName: "Linear Equations", Course: "Algebra I"},
	}
	fixed, err := r.RewriteSingle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "s1", fixed.SlotID)
	assert.Equal(t, models.QuestionShortAnswer, fixed.QuestionType)
	assert.Contains(t, fixed.Prompt, "2x")
}

func TestRewriteSingle_TransportErrorReturnsOriginal(t *testing.T) {
	caller := &fakeCaller{err: errors.New("transport down")}
	r := testRewriter(t, caller)
	original := models.GeneratedItem{SlotID: "s1", QuestionType: models.QuestionShortAnswer, Prompt: "original prompt", Answer: "4"}
	req := Request{Item: original, Mode: models.RewriteClarityFix, Slot: models.Slot{ID: "s1", QuestionType: models.QuestionShortAnswer}}
	fixed, err := r.RewriteSingle(context.Background(), req)
	assert.Error(t, err)
	require.NotNil(t, fixed)
	assert.Equal(t, original.Prompt, fixed.Prompt)
}

func TestRewriteSingle_MalformedResponseReturnsOriginal(t *testing.T) {
	caller := &fakeCaller{response: "not json at all"}
	r := testRewriter(t, caller)
	original := models.GeneratedItem{SlotID: "s1", QuestionType: models.QuestionShortAnswer, Prompt: "original prompt", Answer: "4"}
	req := Request{Item: original, Mode: models.RewriteClarityFix, Slot: models.Slot{ID: "s1", QuestionType: models.QuestionShortAnswer}}
	fixed, err := r.RewriteSingle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, original.Prompt, fixed.Prompt)
}

func TestRewriteSingle_ForcesSlotIDAndQuestionType(t *testing.T) {
	caller := &fakeCaller{response: `{"slotId":"WRONG","questionType":"essay","prompt":"Explain the steps.","answer":"see work"}`}
	r := testRewriter(t, caller)
	req := Request{
		Item: models.GeneratedItem{SlotID: "s1", QuestionType: models.QuestionShortAnswer},
		Mode: models.RewriteFormatFix,
		Slot: models.Slot{ID: "s1", QuestionType: models.QuestionShortAnswer},
	}
	fixed, err := r.RewriteSingle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "s1", fixed.SlotID)
	assert.Equal(t, models.QuestionShortAnswer, fixed.QuestionType)
}
