package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/logging"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/prompts"
)

// State is how far a generation run got.
type State string

const (
	StateStart            State = "start"
	StateTemplateSelected State = "template_selected"
	StatePromptRendered   State = "prompt_rendered"
	StateAIInvoked        State = "ai_invoked"
	StateSucceeded        State = "succeeded"
	StateParseFailed      State = "parse_failed"
	StateValidationFailed State = "validation_failed"
	StateProviderFailed   State = "provider_failed"
)

// FailurePolicy decides what an agent does when the model call or its reply fails.
type FailurePolicy int

const (
	// FailurePolicyPropagate returns the failure to the caller.
	FailurePolicyPropagate FailurePolicy = iota
	// FailurePolicyFallback replaces the failure with a canned result.
	FailurePolicyFallback
)

func (p FailurePolicy) String() string {
	if p == FailurePolicyFallback {
		return "fallback"
	}
	return "propagate"
}

// Outcome records how a generation run ended.
type Outcome struct {
	State State
	// Err is the failure that ended the run. When FellBack is true the
	// failure was absorbed and State is StateSucceeded.
	Err      error
	FellBack bool
}

// recoverable reports whether a failure policy may absorb the outcome.
// Template errors are caller bugs and are never absorbed.
func (o Outcome) recoverable() bool {
	switch o.State {
	case StateParseFailed, StateValidationFailed, StateProviderFailed:
		return true
	}
	return false
}

// GenerationObserver is told about every finished run. Used for metrics.
type GenerationObserver interface {
	ObserveGeneration(tool, state string, fellBack bool, seconds float64)
}

type noopGenerationObserver struct{}

func (noopGenerationObserver) ObserveGeneration(string, string, bool, float64) {}

// generation describes one run through the pipeline.
type generation struct {
	tool         models.ToolKind
	template     prompts.TemplateID
	language     string
	placeholders map[string]string
	schema       llm.Schema
	policy       FailurePolicy
}

// pipeline runs template → model → parse → validate for every tool.
type pipeline struct {
	ai       llm.AIClient
	observer GenerationObserver
	logger   *zap.Logger
}

func newPipeline(ai llm.AIClient, observer GenerationObserver, logger *zap.Logger) *pipeline {
	if observer == nil {
		observer = noopGenerationObserver{}
	}
	return &pipeline{ai: ai, observer: observer, logger: logger}
}

// run executes g and returns the validated reply object. On failure it
// returns nil and an Outcome resolved under g.policy: with FellBack set the
// caller must substitute its fallback result.
func (p *pipeline) run(ctx context.Context, g generation) (map[string]any, Outcome) {
	start := time.Now()

	fail := func(state State, err error) (map[string]any, Outcome) {
		o := Outcome{State: state, Err: err}
		applyPolicy(g.policy, &o)
		p.observe(g, o, start)
		return nil, o
	}

	if len(prompts.Keys(g.template)) == 0 {
		return fail(StateStart, fmt.Errorf("%w: %s", prompts.ErrUnknownTemplate, g.template))
	}

	// StateTemplateSelected
	prompt, err := prompts.Render(g.template, g.language, g.placeholders)
	if err != nil {
		return fail(StateTemplateSelected, err)
	}

	// StatePromptRendered
	raw, err := p.ai.GenerateText(ctx, prompt)
	if err != nil {
		p.logger.Warn("AI provider call failed",
			zap.String("tool", string(g.tool)),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return fail(StateProviderFailed, err)
	}

	// StateAIInvoked
	obj, err := llm.ParseAndValidate(raw, g.schema)
	if err != nil {
		state := StateValidationFailed
		if errors.Is(err, llm.ErrMalformedResponse) {
			state = StateParseFailed
		}
		p.logger.Warn("AI reply rejected",
			zap.String("tool", string(g.tool)),
			zap.String("state", string(state)),
			zap.Error(err),
			zap.String("reply_preview", logging.ReplyPreview(raw)))
		return fail(state, err)
	}

	o := Outcome{State: StateSucceeded}
	p.observe(g, o, start)
	return obj, o
}

func (p *pipeline) observe(g generation, o Outcome, start time.Time) {
	p.observer.ObserveGeneration(string(g.tool), string(o.State), o.FellBack, time.Since(start).Seconds())
}

// applyPolicy resolves a failed outcome under policy. The failure stays in
// o.Err either way.
func applyPolicy(policy FailurePolicy, o *Outcome) {
	if o.State == StateSucceeded || policy != FailurePolicyFallback || !o.recoverable() {
		return
	}
	o.State = StateSucceeded
	o.FellBack = true
}
