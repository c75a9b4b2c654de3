// Package llm talks to hosted text and image models and turns their replies
// into validated JSON objects.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/logging"
)

// ClientConfig configures the composite Client.
type ClientConfig struct {
	// Models is the ordered text model fallback list.
	Models      []string
	CallTimeout time.Duration
	Breaker     CircuitBreakerConfig
}

// Client implements AIClient on top of one text provider, an optional image
// provider and an optional translator. Text generation walks the model list
// until one model answers; quota failures and an open circuit stop the walk.
type Client struct {
	text         TextProvider
	images       ImageProvider
	translator   Translator
	models       []string
	timeout      time.Duration
	breaker      *CircuitBreaker
	imageBreaker *CircuitBreaker
	observer     CallObserver
	logger       *zap.Logger
}

// NewClient builds a Client. images and translator may be nil.
func NewClient(text TextProvider, images ImageProvider, translator Translator, cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		text:         text,
		images:       images,
		translator:   translator,
		models:       cfg.Models,
		timeout:      timeout,
		breaker:      NewCircuitBreaker(text.Name(), cfg.Breaker),
		imageBreaker: NewCircuitBreaker(text.Name()+"-images", cfg.Breaker),
		observer:     noopObserver{},
		logger:       logger.Named("llm"),
	}
}

// WithObserver sets the per-call observer. Returns c for chaining.
func (c *Client) WithObserver(o CallObserver) *Client {
	if o != nil {
		c.observer = o
	}
	return c
}

// GenerateText implements AIClient.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if len(c.models) == 0 {
		return "", NewError(ErrorTypeModel, "no text models configured", false, nil)
	}

	var lastErr *Error
	for _, model := range c.models {
		if err := ctx.Err(); err != nil {
			return "", ClassifyError(err)
		}
		if err := c.breaker.Allow(); err != nil {
			c.observer.ObserveCall(c.text.Name(), "text", string(ErrorTypeCircuit), 0)
			return "", err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		text, err := c.text.Generate(callCtx, model, prompt)
		cancel()
		elapsed := time.Since(start)

		if err == nil {
			c.breaker.RecordSuccess()
			c.observer.ObserveCall(c.text.Name(), "text", "success", elapsed.Seconds())
			c.logger.Debug("Text generation completed",
				zap.String("model", model),
				zap.Int("prompt_len", len(prompt)),
				zap.Duration("elapsed", elapsed))
			return text, nil
		}

		classified := c.classify(err, model)
		c.observer.ObserveCall(c.text.Name(), "text", string(classified.Type), elapsed.Seconds())
		if classified.Type != ErrorTypeQuota {
			c.breaker.RecordFailure()
		}

		c.logger.Warn("Text generation failed",
			zap.String("model", model),
			zap.String("error_type", string(classified.Type)),
			zap.Duration("elapsed", elapsed),
			zap.String("error", logging.SanitizeError(err)))

		if classified.Type == ErrorTypeQuota {
			return "", classified
		}
		lastErr = classified
	}

	return "", lastErr
}

// GenerateImage implements AIClient.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if c.images == nil {
		return nil, NewError(ErrorTypeModel, "image generation not configured", false, nil)
	}
	if err := c.imageBreaker.Allow(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	img, err := c.images.GenerateImage(callCtx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		classified := c.classify(err, "")
		if classified.Type != ErrorTypeQuota {
			c.imageBreaker.RecordFailure()
		}
		c.observer.ObserveCall(c.text.Name(), "image", string(classified.Type), elapsed.Seconds())
		return nil, classified
	}

	c.imageBreaker.RecordSuccess()
	c.observer.ObserveCall(c.text.Name(), "image", "success", elapsed.Seconds())
	return img, nil
}

// Translate implements AIClient. It is best-effort and returns text unchanged
// on any failure.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if c.translator == nil || text == "" || sourceLang == targetLang {
		return text
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	translated, err := c.translator.Translate(callCtx, text, sourceLang, targetLang)
	if err != nil || translated == "" {
		c.observer.ObserveCall("translate", "translate", "error", time.Since(start).Seconds())
		if err != nil {
			c.logger.Warn("Translation failed, using original text",
				zap.String("source", sourceLang),
				zap.String("target", targetLang),
				zap.String("error", logging.SanitizeError(err)))
		}
		return text
	}
	c.observer.ObserveCall("translate", "translate", "success", time.Since(start).Seconds())
	return translated
}

// CircuitState exposes the text breaker state for health reporting.
func (c *Client) CircuitState() CircuitState {
	return c.breaker.State()
}

func (c *Client) classify(err error, model string) *Error {
	classified := ClassifyError(err)
	if classified.Provider == "" {
		classified.Provider = c.text.Name()
	}
	if classified.Model == "" {
		classified.Model = model
	}
	return classified
}

var _ AIClient = (*Client)(nil)

