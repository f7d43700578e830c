package middlewares

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Validator struct {
	validator *validator.Validate
}

// Validate joins all field errors into one message, e.g.
// "Key: 'CheckInput.URL' Error:Field validation for 'URL' failed on the 'required' tag".
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Error())
	}
	return errors.New(strings.Join(msgs, ", "))
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func ConfigureValidator(e *echo.Echo) {
	e.Validator = &Validator{validator: newValidator()}
}
