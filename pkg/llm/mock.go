package llm

import (
	"context"
	"sync"
)

// MockAIClient is a configurable AIClient for tests. Set the function fields
// to control behavior; call counts are tracked for verification.
type MockAIClient struct {
	mu sync.Mutex

	// GenerateTextFunc is called by GenerateText. If nil, returns "{}".
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)

	// GenerateImageFunc is called by GenerateImage. If nil, returns a 1-byte PNG.
	GenerateImageFunc func(ctx context.Context, prompt string) (*Image, error)

	// TranslateFunc is called by Translate. If nil, returns text unchanged.
	TranslateFunc func(ctx context.Context, text, sourceLang, targetLang string) string

	GenerateTextCalls  int
	GenerateImageCalls int
	TranslateCalls     int
	Prompts            []string
}

// NewMockAIClient creates a mock that answers every text prompt with reply.
func NewMockAIClient(reply string) *MockAIClient {
	return &MockAIClient{
		GenerateTextFunc: func(context.Context, string) (string, error) {
			return reply, nil
		},
	}
}

// GenerateText implements AIClient.
func (m *MockAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateTextCalls++
	m.Prompts = append(m.Prompts, prompt)
	fn := m.GenerateTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "{}", nil
}

// GenerateImage implements AIClient.
func (m *MockAIClient) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	m.mu.Lock()
	m.GenerateImageCalls++
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return &Image{Data: []byte{0x89}, MIMEType: "image/png"}, nil
}

// Translate implements AIClient.
func (m *MockAIClient) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	m.mu.Lock()
	m.TranslateCalls++
	fn := m.TranslateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, sourceLang, targetLang)
	}
	return text
}

var _ AIClient = (*MockAIClient)(nil)
