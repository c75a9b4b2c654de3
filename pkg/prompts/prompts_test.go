package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullPlaceholders(id TemplateID) map[string]string {
	values := make(map[string]string)
	for _, key := range Keys(id) {
		values[key] = "value-" + key
	}
	return values
}

func TestRender_AllTemplatesBothLanguages(t *testing.T) {
	for id := range requiredKeys {
		for _, lang := range []string{"en", "tr"} {
			t.Run(string(id)+"/"+lang, func(t *testing.T) {
				out, err := Render(id, lang, fullPlaceholders(id))
				require.NoError(t, err)

				assert.NotContains(t, out, "{{")
				assert.NotContains(t, out, "<no value>")
				for _, key := range Keys(id) {
					assert.Contains(t, out, "value-"+key)
				}
			})
		}
	}
}

func TestRender_TrendTurkish(t *testing.T) {
	out, err := Render(TrendAnalysis, "tr", map[string]string{
		"category":         "Electronics",
		"target_country":   "Turkey",
		"budget_range":     "",
		"target_audience":  "",
		"additional_notes": "",
		"product_count":    "1",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Hedef ülke: Turkey")
	assert.Contains(t, out, "Kategori: Electronics")
	assert.Contains(t, out, "Tam olarak 1 ürün")
}

func TestRender_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	en, err := Render(SEOManual, "en", fullPlaceholders(SEOManual))
	require.NoError(t, err)

	de, err := Render(SEOManual, "de", fullPlaceholders(SEOManual))
	require.NoError(t, err)

	assert.Equal(t, en, de)
}

func TestRender_Deterministic(t *testing.T) {
	p := fullPlaceholders(AdCreativeText)
	first, err := Render(AdCreativeText, "en", p)
	require.NoError(t, err)
	second, err := Render(AdCreativeText, "en", p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_MissingPlaceholder(t *testing.T) {
	p := fullPlaceholders(SEOManual)
	delete(p, "target_keywords")

	_, err := Render(SEOManual, "en", p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPlaceholder))

	var missing *MissingPlaceholderError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "target_keywords", missing.Key)
	assert.Equal(t, SEOManual, missing.Template)
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(TemplateID("nope"), "en", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRender_ValuesCannotInjectDelimiters(t *testing.T) {
	p := fullPlaceholders(SEOManual)
	p["product_name"] = "{{.product_description}}"

	out, err := Render(SEOManual, "en", p)
	require.NoError(t, err)
	assert.NotContains(t, out, "{{")
}

func TestRender_ExtraPlaceholdersIgnored(t *testing.T) {
	p := fullPlaceholders(AdCreativeImage)
	p["goal"] = "Sales"

	out, err := Render(AdCreativeImage, "en", p)
	require.NoError(t, err)
	assert.NotContains(t, out, "Sales")
}
