package llm

import (
	"context"
	"fmt"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// CloudTranslator translates through Google Cloud Translation (v2 API).
type CloudTranslator struct {
	client *translate.Client
}

// NewCloudTranslator creates a translator. credentialsFile may be empty to
// use application default credentials.
func NewCloudTranslator(ctx context.Context, credentialsFile string) (*CloudTranslator, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &CloudTranslator{client: client}, nil
}

// Translate implements Translator.
func (t *CloudTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	target, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("parse target language %q: %w", targetLang, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if sourceLang != "" {
		source, err := language.Parse(sourceLang)
		if err != nil {
			return "", fmt.Errorf("parse source language %q: %w", sourceLang, err)
		}
		opts.Source = source
	}

	translations, err := t.client.Translate(ctx, []string{text}, target, opts)
	if err != nil {
		return "", err
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("translate returned no result")
	}
	return translations[0].Text, nil
}

// Close releases the underlying connection.
func (t *CloudTranslator) Close() error {
	return t.client.Close()
}

var _ Translator = (*CloudTranslator)(nil)
