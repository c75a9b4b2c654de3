package llm

import "context"

// AIClient is everything the generation agents need from external AI services.
type AIClient interface {
	// GenerateText sends a prompt to the configured text model (falling back
	// through the configured model list) and returns the raw reply.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateImage renders a single image for the prompt.
	GenerateImage(ctx context.Context, prompt string) (*Image, error)

	// Translate converts text between languages. It never fails: on any
	// problem the input is returned unchanged.
	Translate(ctx context.Context, text, sourceLang, targetLang string) string
}

// TextProvider is one vendor backend able to complete a prompt with a given model.
type TextProvider interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ImageProvider is a backend able to render images.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// Translator translates short texts. Errors are reported so the caller can log them.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Image is a generated image.
type Image struct {
	Data     []byte
	MIMEType string
}

// CallObserver receives one notification per external call. Used for metrics.
type CallObserver interface {
	ObserveCall(provider, operation, outcome string, seconds float64)
}

type noopObserver struct{}

func (noopObserver) ObserveCall(string, string, string, float64) {}
