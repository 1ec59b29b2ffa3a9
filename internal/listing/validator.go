package listing

import (
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
)

// Validator sanitizes and checks listing input.
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(request.TagName)

	return &Validator{
		validate:  v,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips markup from every text field and trims surrounding space.
func (v *Validator) Sanitize(in *Input) {
	in.Title = v.clean(in.Title)
	in.Description = v.clean(in.Description)
	in.Location = v.clean(in.Location)
	in.Country = v.clean(in.Country)
}

func (v *Validator) clean(s string) string {
	// The strict policy escapes entities; the stored value is plain text.
	return strings.TrimSpace(html.UnescapeString(v.sanitizer.Sanitize(s)))
}

// Validate sanitizes in and checks it, reporting every failing field.
func (v *Validator) Validate(in *Input) error {
	v.Sanitize(in)

	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.Validation("invalid listing", request.FieldErrors(verrs))
	}
	return apperror.Validation("invalid listing", map[string]string{"listing": err.Error()})
}
