package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedResponse means no JSON object could be recovered from a model reply.
var ErrMalformedResponse = errors.New("malformed AI response")

// thinkTagPattern matches <think>...</think> preambles some models emit.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// StripCodeFence removes a leading ``` or ```json marker and a trailing ```.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```JSON"):
		text = text[len("```JSON"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseObject recovers a JSON object from a model reply. It strips code
// fences and think tags, tries a direct decode, then falls back to the
// substring between the first '{' and the last '}'. Anything that is not
// a JSON object yields ErrMalformedResponse.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := StripCodeFence(thinkTagPattern.ReplaceAllString(raw, ""))

	if obj, ok := decodeObject(cleaned); ok {
		return obj, nil
	}

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start >= 0 && end > start {
		if obj, ok := decodeObject(cleaned[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, ErrMalformedResponse
}

func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	// Reject trailing garbage after the object.
	if dec.More() {
		return nil, false
	}
	return obj, true
}
