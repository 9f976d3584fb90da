// Package validation checks configuration structs with validator/v10 and
// reports failures as domain validation errors keyed by YAML field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/rakaly/rakaly-uploader/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their yaml tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		default:
			return name
		}
	})

	return &Validator{v: v}
}

// Validate validates a struct. On failure the returned error is a
// *errors.Error with code VALIDATION whose Details map field names to
// messages.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	names := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
		names = append(names, e.Field()+" "+fieldErrors[e.Field()])
	}

	return domainerrors.ValidationWithDetails("invalid configuration: "+strings.Join(names, "; "), fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url", "http_url":
		return "must be a valid http(s) URL"
	case "hostname_port":
		return "must be a host:port address"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	default:
		return "is invalid"
	}
}
