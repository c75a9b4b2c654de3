// Package validation checks tool requests before they reach a model: struct
// tags via validator/v10 and free-text screening via libinjection.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error lists every invalid field of a request. It matches apperrors.ErrInvalidInput.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrInvalidInput, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// Struct validates v against its `validate` tags. Field names are reported
// by their JSON names.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: jsonPath(fe.Namespace()), Rule: fe.Tag()})
	}
	return out
}

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// jsonPath drops the struct name from a validator namespace,
// "AdCreativeRequest.audience.age" → "audience.age".
func jsonPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// FieldNames returns the invalid field names in report order.
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}
