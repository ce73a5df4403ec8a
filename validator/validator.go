// Package validator wraps go-playground/validator with the custom
// validations the API request types need.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// phoneRegex validates phone numbers in international format.
	phoneRegex = regexp.MustCompile(`^\+[0-9\s\(\)\-]+$`)

	// hexColorRegex validates hex color codes.
	hexColorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

	// slugRegex validates organization slugs: lowercase alphanumerics and
	// hyphens, never starting or ending with a hyphen.
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance with the custom validations
// registered.
func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("hexcolor", validateHexColor)
	_ = v.RegisterValidation("slug", validateSlug)

	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// validatePhone validates a phone number. An empty field is valid, combine
// with the required tag when the field is mandatory.
func validatePhone(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return phoneRegex.MatchString(fl.Field().String())
}

// validateHexColor validates a hex color code.
func validateHexColor(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return hexColorRegex.MatchString(fl.Field().String())
}

// validateSlug validates an organization slug.
func validateSlug(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return slugRegex.MatchString(fl.Field().String())
}
