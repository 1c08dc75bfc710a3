package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// passwordInput carries the rules for a new password. validator counts
// runes for min/max on strings.
type passwordInput struct {
	Password             string `json:"password" validate:"required,min=6,max=40"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// validatePassword checks a password and its confirmation.
func validatePassword(plaintext, confirmation string) error {
	return validateStruct(passwordInput{Password: plaintext, PasswordConfirmation: confirmation})
}

// validateStruct runs struct validation and converts failures into a
// ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &ValidationError{Fields: fields}
}
