package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini text and Imagen image backends.
// With Project set the client talks to Vertex AI in Location using
// application default credentials; otherwise it uses the Gemini API key.
type GeminiConfig struct {
	APIKey      string
	Project     string
	Location    string
	ImageModel  string
	Temperature float32
	MaxTokens   int32
}

// GeminiProvider talks to Gemini and Imagen through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

// NewGeminiProvider creates a genai client for the Gemini API or Vertex AI.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	clientCfg, err := genaiClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		cfg:    cfg,
		logger: logger.Named("gemini").With(zap.String("backend", clientCfg.Backend.String())),
	}, nil
}

func genaiClientConfig(cfg GeminiConfig) (*genai.ClientConfig, error) {
	if cfg.Project != "" {
		if cfg.Location == "" {
			return nil, fmt.Errorf("vertex AI location is required")
		}
		return &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.Project,
			Location: cfg.Location,
		}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	return &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}, nil
}

// Name implements TextProvider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Generate implements TextProvider.
func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.cfg.Temperature),
		MaxOutputTokens: p.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", NewError(ErrorTypeEmpty, "model returned no text", true, nil)
	}

	if resp.UsageMetadata != nil {
		p.logger.Debug("Gemini usage",
			zap.String("model", model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}
	return text, nil
}

// GenerateImage implements ImageProvider using Imagen.
func (p *GeminiProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
	})
	if err != nil {
		return nil, err
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, NewError(ErrorTypeEmpty, "model returned no image", false, nil)
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &Image{Data: img.ImageBytes, MIMEType: mimeType}, nil
}

var (
	_ TextProvider  = (*GeminiProvider)(nil)
	_ ImageProvider = (*GeminiProvider)(nil)
)
