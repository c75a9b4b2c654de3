package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicConfig configures the Anthropic messages backend.
type AnthropicConfig struct {
	APIKey      string
	Temperature float32
	MaxTokens   int
}

// AnthropicProvider is a TextProvider over the Anthropic messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	logger *zap.Logger
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg AnthropicConfig, logger *zap.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger.Named("anthropic"),
	}, nil
}

// Name implements TextProvider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Generate implements TextProvider.
func (p *AnthropicProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	temperature := p.cfg.Temperature
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil && *block.Text != "" {
			p.logger.Debug("Anthropic usage",
				zap.String("model", model),
				zap.Int("input_tokens", resp.Usage.InputTokens),
				zap.Int("output_tokens", resp.Usage.OutputTokens))
			return *block.Text, nil
		}
	}
	return "", NewError(ErrorTypeEmpty, "no text block in response", true, nil)
}

var _ TextProvider = (*AnthropicProvider)(nil)
