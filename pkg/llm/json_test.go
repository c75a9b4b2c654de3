package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject_EquivalentForms(t *testing.T) {
	want := map[string]any{"title": "X"}

	inputs := map[string]string{
		"bare":           `{"title":"X"}`,
		"fenced json":    "```json\n{\"title\":\"X\"}\n```",
		"fenced plain":   "```\n{\"title\":\"X\"}\n```",
		"prose around":   `Here is your result: {"title":"X"} Hope this helps!`,
		"think preamble": "<think>reasoning here</think>\n{\"title\":\"X\"}",
		"whitespace":     "\n\n   {\"title\": \"X\"}   \n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := ParseObject(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseObject_Malformed(t *testing.T) {
	inputs := []string{
		"not json at all",
		"",
		"```json\n```",
		`["an", "array"]`,
		`42`,
		`{"title": "unterminated"`,
		`} backwards {`,
	}

	for _, input := range inputs {
		_, err := ParseObject(input)
		assert.ErrorIs(t, err, ErrMalformedResponse, "input %q", input)
	}
}

func TestParseObject_KeepsNumbersExact(t *testing.T) {
	got, err := ParseObject(`{"score": 85, "nested": {"ok": true}}`)
	require.NoError(t, err)

	assert.Equal(t, "85", got["score"].(interface{ String() string }).String())
	assert.Equal(t, map[string]any{"ok": true}, got["nested"])
}

func TestParseObject_NonASCII(t *testing.T) {
	got, err := ParseObject("```json\n{\"summary\": \"Kozmetik ürün açıklaması\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Kozmetik ürün açıklaması", got["summary"])
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
	assert.Equal(t, "text", StripCodeFence("```text```"))
}

func TestValidateObject(t *testing.T) {
	schema := Schema{
		Required:       []string{"headlines", "ad_texts", "performance"},
		Lists:          []string{"ad_texts"},
		NonEmptyLists:  []string{"ad_texts"},
		Objects:        []string{"performance"},
		NestedRequired: map[string][]string{"headlines": {"short", "long"}},
	}

	valid := map[string]any{
		"headlines":   map[string]any{"short": "s", "long": "l"},
		"ad_texts":    []any{"one"},
		"performance": map[string]any{},
		"extra_field": "accepted",
	}
	require.NoError(t, ValidateObject(valid, schema))

	tests := []struct {
		name      string
		mutate    func(m map[string]any)
		wantField string
	}{
		{name: "missing required", mutate: func(m map[string]any) { delete(m, "performance") }, wantField: "performance"},
		{name: "list wrong type", mutate: func(m map[string]any) { m["ad_texts"] = "one" }, wantField: "ad_texts"},
		{name: "empty list", mutate: func(m map[string]any) { m["ad_texts"] = []any{} }, wantField: "ad_texts"},
		{name: "object wrong type", mutate: func(m map[string]any) { m["performance"] = []any{} }, wantField: "performance"},
		{name: "nested missing", mutate: func(m map[string]any) { m["headlines"] = map[string]any{"short": "s"} }, wantField: "headlines.long"},
		{name: "nested not object", mutate: func(m map[string]any) { m["headlines"] = "text" }, wantField: "headlines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := map[string]any{
				"headlines":   map[string]any{"short": "s", "long": "l"},
				"ad_texts":    []any{"one"},
				"performance": map[string]any{},
			}
			tt.mutate(obj)

			err := ValidateObject(obj, schema)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestValidateObject_ObjectLists(t *testing.T) {
	schema := Schema{NonEmptyLists: []string{"products"}, ObjectLists: []string{"products"}}

	require.NoError(t, ValidateObject(map[string]any{
		"products": []any{map[string]any{"product_idea": "Smart plug"}},
	}, schema))

	err := ValidateObject(map[string]any{
		"products": []any{map[string]any{"product_idea": "Lamp"}, "Smart plug"},
	}, schema)
	require.ErrorIs(t, err, ErrValidationFailed)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "products[1]", vErr.Field)
}

func TestParseAndValidate(t *testing.T) {
	schema := Schema{Required: []string{"title"}}

	_, err := ParseAndValidate("nothing here", schema)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseAndValidate(`{"other": 1}`, schema)
	assert.ErrorIs(t, err, ErrValidationFailed)

	obj, err := ParseAndValidate(`{"title": "ok"}`, schema)
	require.NoError(t, err)
	assert.Equal(t, "ok", obj["title"])
}
