// Package prompts renders the localized prompt templates sent to the
// generation providers.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateID names a prompt template family.
type TemplateID string

const (
	TrendAnalysis   TemplateID = "trend_analysis"
	SEOManual       TemplateID = "seo_manual"
	SEOURL          TemplateID = "seo_url"
	AdCreativeText  TemplateID = "ad_creative_text"
	AdCreativeImage TemplateID = "ad_creative_image"
)

var (
	ErrMissingPlaceholder = errors.New("missing prompt placeholder")
	ErrUnknownTemplate    = errors.New("unknown prompt template")
)

// MissingPlaceholderError reports a placeholder the caller did not supply.
type MissingPlaceholderError struct {
	Template TemplateID
	Key      string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("%s: template %s requires %q", ErrMissingPlaceholder, e.Template, e.Key)
}

func (e *MissingPlaceholderError) Unwrap() error {
	return ErrMissingPlaceholder
}

// requiredKeys lists the placeholders each template family declares.
// Values may be empty strings but must be present.
var requiredKeys = map[TemplateID][]string{
	TrendAnalysis:   {"category", "target_country", "budget_range", "target_audience", "additional_notes", "product_count"},
	SEOManual:       {"product_name", "product_description", "target_keywords"},
	SEOURL:          {"url", "page_title", "page_description", "page_content"},
	AdCreativeText:  {"product_name", "product_description", "platform", "goal", "audience_age", "audience_interests"},
	AdCreativeImage: {"product_name", "product_description", "platform", "audience_age", "audience_interests"},
}

// templates holds one parsed template per (id, language).
var templates = mustLoadTemplates()

func mustLoadTemplates() map[TemplateID]map[string]*template.Template {
	out := make(map[TemplateID]map[string]*template.Template, len(requiredKeys))
	for id := range requiredKeys {
		out[id] = make(map[string]*template.Template, 2)
		for _, lang := range []string{models.LanguageEnglish, models.LanguageTurkish} {
			name := fmt.Sprintf("templates/%s.%s.tmpl", id, lang)
			body, err := templateFS.ReadFile(name)
			if err != nil {
				panic(fmt.Sprintf("prompts: read %s: %v", name, err))
			}
			out[id][lang] = template.Must(template.New(name).Option("missingkey=error").Parse(string(body)))
		}
	}
	return out
}

// braceEscaper keeps user-supplied values from introducing template delimiters
// into the rendered prompt.
var braceEscaper = strings.NewReplacer("{{", "{ {", "}}", "} }")

// Render fills the template for id in the given language. Languages other
// than Turkish render the English template. Every declared placeholder must
// be present in placeholders.
func Render(id TemplateID, language string, placeholders map[string]string) (string, error) {
	keys, ok := requiredKeys[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}

	for _, key := range keys {
		if _, ok := placeholders[key]; !ok {
			return "", &MissingPlaceholderError{Template: id, Key: key}
		}
	}

	data := make(map[string]string, len(keys))
	for _, key := range keys {
		data[key] = braceEscaper.Replace(placeholders[key])
	}

	tmpl := templates[id][models.NormalizeLanguage(language)]

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	return sb.String(), nil
}

// Keys returns the placeholders a template declares.
func Keys(id TemplateID) []string {
	return append([]string(nil), requiredKeys[id]...)
}
