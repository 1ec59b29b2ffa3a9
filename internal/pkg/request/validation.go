package request

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

var registerOnce sync.Once

// UseJSONFieldNames makes gin's binding validator report fields by their json
// (or form) tag instead of the Go field name.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(TagName)
		}
	})
}

// TagName returns the json tag name of a struct field, falling back to its form tag.
func TagName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// BindingError converts a binding or validation failure into a ValidationError.
func BindingError(message string, err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.Validation(message, FieldErrors(verrs)).WithCause(err)
	}
	// Malformed bodies (bad JSON, wrong types) carry no field breakdown.
	return apperror.Validation(message, map[string]string{"body": err.Error()}).WithCause(err)
}

// FieldErrors renders validator errors as field -> human readable problem.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gtefield", "gtfield":
		return fmt.Sprintf("must not be less than %s", fe.Param())
	default:
		return "is invalid"
	}
}
