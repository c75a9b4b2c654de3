package llm

import (
	"errors"
	"fmt"
)

// ErrValidationFailed means a reply parsed as JSON but lacks the required shape.
var ErrValidationFailed = errors.New("AI response failed validation")

// ValidationError names the field that failed the shape check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrValidationFailed, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Schema is a shallow shape check for a parsed reply. It checks top-level
// presence and coarse types, plus required keys one level down. Extra
// fields are always accepted.
type Schema struct {
	Required      []string
	Lists         []string
	NonEmptyLists []string
	Objects       []string
	// ObjectLists are lists whose every element must be an object.
	ObjectLists []string
	// NestedRequired maps an object field to keys it must contain.
	NestedRequired map[string][]string
}

// ValidateObject checks obj against schema and returns a *ValidationError
// for the first violation found.
func ValidateObject(obj map[string]any, schema Schema) error {
	for _, field := range schema.Required {
		if _, ok := obj[field]; !ok {
			return &ValidationError{Field: field, Reason: "is missing"}
		}
	}

	for _, field := range schema.Lists {
		if _, ok := obj[field].([]any); !ok {
			return &ValidationError{Field: field, Reason: "must be a list"}
		}
	}

	for _, field := range schema.NonEmptyLists {
		list, ok := obj[field].([]any)
		if !ok {
			return &ValidationError{Field: field, Reason: "must be a list"}
		}
		if len(list) == 0 {
			return &ValidationError{Field: field, Reason: "must not be empty"}
		}
	}

	for _, field := range schema.Objects {
		if _, ok := obj[field].(map[string]any); !ok {
			return &ValidationError{Field: field, Reason: "must be an object"}
		}
	}

	for _, field := range schema.ObjectLists {
		list, ok := obj[field].([]any)
		if !ok {
			return &ValidationError{Field: field, Reason: "must be a list"}
		}
		for i, item := range list {
			if _, ok := item.(map[string]any); !ok {
				return &ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "must be an object"}
			}
		}
	}

	for field, keys := range schema.NestedRequired {
		nested, ok := obj[field].(map[string]any)
		if !ok {
			return &ValidationError{Field: field, Reason: "must be an object"}
		}
		for _, key := range keys {
			if _, ok := nested[key]; !ok {
				return &ValidationError{Field: field + "." + key, Reason: "is missing"}
			}
		}
	}

	return nil
}

// ParseAndValidate runs ParseObject followed by ValidateObject.
func ParseAndValidate(raw string, schema Schema) (map[string]any, error) {
	obj, err := ParseObject(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateObject(obj, schema); err != nil {
		return nil, err
	}
	return obj, nil
}
