package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/drblury/mongoweaver/jsonutil"
)

var tagValidator = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes why one path failed validation.
type FieldError struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError collects every failing path of a write, in field order.
type ValidationError struct {
	Model  string
	Errors []FieldError
}

func (e *ValidationError) add(fe FieldError) {
	e.Errors = append(e.Errors, fe)
}

// HasErrors reports whether any path failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// Messages returns the per-path messages in field order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Message
	}
	return out
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Path + ": " + fe.Message
	}
	return fmt.Sprintf("%s validation failed: %s", e.Model, strings.Join(parts, ", "))
}

// MarshalJSON renders the error with paths keyed by name.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	byPath := make(map[string]FieldError, len(e.Errors))
	for _, fe := range e.Errors {
		byPath[fe.Path] = fe
	}
	payload := struct {
		Name    string                `json:"name"`
		Message string                `json:"message"`
		Errors  map[string]FieldError `json:"errors"`
	}{
		Name:    "ValidationError",
		Message: e.Model + " validation failed",
		Errors:  byPath,
	}
	return jsonutil.Marshal(payload)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Validate checks doc against required flags and validator tags. In partial
// mode only paths present in doc are checked, which suits $set updates.
func (m *Model) Validate(doc map[string]any, partial bool) error {
	verr := &ValidationError{Model: m.name}
	for _, f := range m.fields {
		v, present := GetPath(doc, f.Path)
		if partial && !present {
			continue
		}
		if fe, failed := validateField(f, v); failed {
			verr.add(fe)
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateField(f Field, v any) (FieldError, bool) {
	if isEmpty(v) {
		if f.Required {
			return FieldError{
				Path:    f.Path,
				Kind:    "required",
				Message: fmt.Sprintf("Path `%s` is required.", f.Path),
				Value:   v,
			}, true
		}
		return FieldError{}, false
	}
	if f.Validate == "" {
		return FieldError{}, false
	}

	values := []any{v}
	if f.Array {
		if items, ok := AsSlice(v); ok {
			values = items
		}
	}
	for _, item := range values {
		err := tagValidator.Var(item, f.Validate)
		if err == nil {
			continue
		}
		kind := "user defined"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			kind = verrs[0].Tag()
		}
		return FieldError{
			Path:    f.Path,
			Kind:    kind,
			Message: fmt.Sprintf("Validator %q failed for path `%s` with value `%v`.", kind, f.Path, item),
			Value:   item,
		}, true
	}
	return FieldError{}, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}
