package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/prompts"
)

func manualGeneration(policy FailurePolicy) generation {
	return generation{
		tool:     models.ToolSEOStrategist,
		template: prompts.SEOManual,
		language: models.LanguageEnglish,
		placeholders: map[string]string{
			"product_name":        "Lamp",
			"product_description": "A desk lamp",
			"target_keywords":     "lamp",
		},
		schema: llm.Schema{Required: []string{"title"}},
		policy: policy,
	}
}

func TestPipeline_Succeeds(t *testing.T) {
	ai := llm.NewMockAIClient("```json\n{\"title\": \"Desk Lamp\"}\n```")
	obs := &recordingObserver{}
	p := newPipeline(ai, obs, zap.NewNop())

	obj, outcome := p.run(context.Background(), manualGeneration(FailurePolicyPropagate))

	require.NoError(t, outcome.Err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.False(t, outcome.FellBack)
	assert.Equal(t, "Desk Lamp", obj["title"])

	require.Len(t, ai.Prompts, 1)
	assert.Contains(t, ai.Prompts[0], "Lamp")
	require.Len(t, obs.calls, 1)
	assert.Equal(t, observation{tool: "seo_strategist", state: "succeeded"}, obs.calls[0])
}

func TestPipeline_FailureStates(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		replyErr  error
		wantState State
		wantErr   error
	}{
		{name: "provider error", replyErr: errProviderDown, wantState: StateProviderFailed, wantErr: errProviderDown},
		{name: "not json", reply: "I cannot help with that.", wantState: StateParseFailed, wantErr: llm.ErrMalformedResponse},
		{name: "missing field", reply: `{"other": 1}`, wantState: StateValidationFailed, wantErr: llm.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &llm.MockAIClient{GenerateTextFunc: func(context.Context, string) (string, error) {
				return tt.reply, tt.replyErr
			}}
			p := newPipeline(ai, nil, zap.NewNop())

			obj, outcome := p.run(context.Background(), manualGeneration(FailurePolicyPropagate))
			assert.Nil(t, obj)
			assert.Equal(t, tt.wantState, outcome.State)
			assert.False(t, outcome.FellBack)
			assert.True(t, errors.Is(outcome.Err, tt.wantErr))
		})
	}
}

func TestPipeline_FallbackPolicyAbsorbsFailure(t *testing.T) {
	ai := llm.NewMockAIClient("not json")
	obs := &recordingObserver{}
	p := newPipeline(ai, obs, zap.NewNop())

	obj, outcome := p.run(context.Background(), manualGeneration(FailurePolicyFallback))

	assert.Nil(t, obj)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.True(t, outcome.FellBack)
	assert.ErrorIs(t, outcome.Err, llm.ErrMalformedResponse)
	require.Len(t, obs.calls, 1)
	assert.True(t, obs.calls[0].fellBack)
}

func TestPipeline_TemplateErrorsAreNeverAbsorbed(t *testing.T) {
	ai := llm.NewMockAIClient(`{"title": "x"}`)
	p := newPipeline(ai, nil, zap.NewNop())

	g := manualGeneration(FailurePolicyFallback)
	delete(g.placeholders, "target_keywords")

	_, outcome := p.run(context.Background(), g)
	assert.Equal(t, StateTemplateSelected, outcome.State)
	assert.False(t, outcome.FellBack)
	assert.ErrorIs(t, outcome.Err, prompts.ErrMissingPlaceholder)
	assert.Zero(t, ai.GenerateTextCalls, "model must not be called with an incomplete prompt")

	g = manualGeneration(FailurePolicyFallback)
	g.template = prompts.TemplateID("unknown")
	_, outcome = p.run(context.Background(), g)
	assert.Equal(t, StateStart, outcome.State)
	assert.ErrorIs(t, outcome.Err, prompts.ErrUnknownTemplate)
}

func TestFailurePolicy_String(t *testing.T) {
	assert.Equal(t, "fallback", FailurePolicyFallback.String())
	assert.Equal(t, "propagate", FailurePolicyPropagate.String())
}
