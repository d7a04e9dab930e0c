// Package validation checks mutation payloads before they reach the API.
// Field errors use JSON names so forms can render them next to inputs.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/multipos/console/internal/domain/shared"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Engine returns the shared validator configured with JSON field names.
func Engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(JSONName)
		instance = v
	})
	return instance
}

// JSONName names a struct field by its json tag, falling back to form.
func JSONName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// checker is implemented by inputs with rules the tags cannot express,
// e.g. decimal ranges.
type checker interface {
	Check() error
}

// Struct validates tags first and then the input's own Check. Failures
// come back as a shared validation error with per-field messages.
func Struct(in any) error {
	if err := Engine().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return shared.NewValidationError(Fields(verrs))
		}
		return err
	}
	if c, ok := in.(checker); ok {
		return c.Check()
	}
	return nil
}

// Fields flattens validator errors into field → message. Nested fields
// keep their path below the top-level struct, e.g. "items[0].productId".
func Fields(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out[field] = Message(e)
	}
	return out
}

// Message returns a human-readable validation message
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "alphanum":
		return "Must be alphanumeric"
	case "numeric":
		return "Must be numeric"
	case "datetime":
		return "Must be a date in " + e.Param() + " format"
	default:
		return "Invalid value"
	}
}
