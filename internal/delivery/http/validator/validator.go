// Package validator plugs go-playground/validator into echo and reports failures as field errors.
package validator

import (
	"reflect"
	"strings"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New creates a validator that names fields after their json tags.
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}

		return name
	})

	return &CustomValidator{validate: v}
}

// Validate returns a *domainerrors.ValidationError listing every rejected field.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return errors.WithStack(err)
	}

	fields := entity.FieldErrors{}
	for _, fe := range invalid {
		fields.Add(fieldPath(fe), reason(fe))
	}

	return domainerrors.NewValidationError(fields)
}

// fieldPath drops the top-level struct name: "RegisterRequest.profile.phone_number" becomes "profile.phone_number".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}

	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be an E.164 phone number"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " long"
	case "max":
		return "must be at most " + fe.Param() + " long"
	case "gte", "lte":
		return "is out of range"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return "is invalid"
	}
}
