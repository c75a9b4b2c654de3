// Package localization resolves message keys to English or Turkish text and
// picks the response language for a request.
package localization

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/gipoly/gipoly-engine/pkg/models"
)

//go:embed messages.yaml
var messagesYAML []byte

// Catalog maps a message key to its text per language.
type Catalog struct {
	messages map[string]map[string]string
}

// Parse builds a catalog from YAML of the form key: {en: ..., tr: ...}.
func Parse(data []byte) (*Catalog, error) {
	var messages map[string]map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}
	for key, texts := range messages {
		if texts[models.LanguageEnglish] == "" {
			return nil, fmt.Errorf("message %q has no English text", key)
		}
	}
	return &Catalog{messages: messages}, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(messagesYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	return defaultCatalog()
}

// Message returns the text for key in lang. Unknown languages use English and
// unknown keys are returned as-is.
func (c *Catalog) Message(key, lang string) string {
	texts, ok := c.messages[key]
	if !ok {
		return key
	}
	if text := texts[models.NormalizeLanguage(lang)]; text != "" {
		return text
	}
	return texts[models.LanguageEnglish]
}

// Has reports whether key exists in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.messages[key]
	return ok
}

// Message looks key up in the default catalog.
func Message(key, lang string) string {
	return Default().Message(key, lang)
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Turkish,
})

// Negotiate picks the response language for r: the "lang" query parameter,
// then X-Language, then Accept-Language. The result is always "en" or "tr".
func Negotiate(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return models.NormalizeLanguage(lang)
	}
	if lang := r.Header.Get("X-Language"); lang != "" {
		return models.NormalizeLanguage(lang)
	}

	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return models.LanguageEnglish
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return models.LanguageEnglish
	}
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	return models.NormalizeLanguage(base.String())
}

// FromRequest returns the text for key in the language negotiated from r.
func FromRequest(r *http.Request, key string) string {
	return Message(key, Negotiate(r))
}
