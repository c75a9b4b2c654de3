package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/config"
)

// NewClientFromConfig wires the text provider selected by cfg.Provider, the
// Imagen image provider (Vertex AI when a cloud project is set, else the
// Gemini API) and the
// Cloud translator (when enabled). The returned cleanup closes what was opened.
func NewClientFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, func(), error) {
	ai := cfg.AI
	cleanup := func() {}

	var (
		text   TextProvider
		images ImageProvider
		gemini *GeminiProvider
		err    error
	)

	if ai.GeminiAPIKey != "" {
		gemini, err = NewGeminiProvider(ctx, GeminiConfig{
			APIKey:      ai.GeminiAPIKey,
			ImageModel:  ai.ImageModel,
			Temperature: ai.Temperature,
			MaxTokens:   ai.MaxTokens,
		}, logger)
		if err != nil {
			return nil, cleanup, err
		}
	}

	switch ai.Provider {
	case config.ProviderGemini:
		if gemini == nil {
			return nil, cleanup, fmt.Errorf("gemini provider selected without GEMINI_API_KEY")
		}
		text = gemini
	case config.ProviderOpenAI:
		text, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:      ai.OpenAIAPIKey,
			BaseURL:     ai.OpenAIBaseURL,
			Temperature: ai.Temperature,
			MaxTokens:   int(ai.MaxTokens),
		}, logger)
	case config.ProviderAnthropic:
		text, err = NewAnthropicProvider(AnthropicConfig{
			APIKey:      ai.AnthropicAPIKey,
			Temperature: ai.Temperature,
			MaxTokens:   int(ai.MaxTokens),
		}, logger)
	default:
		err = fmt.Errorf("unknown AI provider %q", ai.Provider)
	}
	if err != nil {
		return nil, cleanup, err
	}

	switch {
	case !ai.EnableImages:
	case cfg.GCP.ProjectID != "":
		// Imagen on Vertex AI, billed to the configured project.
		vertex, err := NewGeminiProvider(ctx, GeminiConfig{
			Project:    cfg.GCP.ProjectID,
			Location:   cfg.GCP.Location,
			ImageModel: ai.ImageModel,
		}, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("configure Vertex AI images: %w", err)
		}
		images = vertex
	case gemini != nil:
		images = gemini
	default:
		logger.Warn("Image generation enabled but neither GOOGLE_CLOUD_PROJECT_ID nor GEMINI_API_KEY is set; ad creatives will have no image")
	}

	var translator Translator
	if cfg.GCP.EnableTranslate {
		ct, err := NewCloudTranslator(ctx, cfg.GCP.CredentialsFile)
		if err != nil {
			// Translation is best-effort; run without it.
			logger.Warn("Cloud Translation unavailable, prompts will use original text", zap.Error(err))
		} else {
			translator = ct
			cleanup = func() {
				if err := ct.Close(); err != nil {
					logger.Warn("Failed to close translate client", zap.Error(err))
				}
			}
		}
	}

	client := NewClient(text, images, translator, ClientConfig{
		Models:      ai.TextModels,
		CallTimeout: ai.CallTimeout,
		Breaker: CircuitBreakerConfig{
			Threshold:  ai.CircuitThreshold,
			ResetAfter: ai.CircuitResetAfter,
		},
	}, logger)

	logger.Info("AI client configured",
		zap.String("provider", text.Name()),
		zap.Strings("models", ai.TextModels),
		zap.Bool("images", images != nil),
		zap.Bool("translate", translator != nil))

	return client, cleanup, nil
}
