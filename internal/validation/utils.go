package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/errs"
)

// Validatable is implemented by request payload types that know how to
// validate themselves. Validate returns nil, validator.ValidationErrors
// or CustomValidationErrors.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single validation issue on a field that
// struct tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that
// satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds the request into payload and validates it.
// payload must be a pointer so echo's Bind can populate it. Failures
// come back as a 400 HTTPError carrying field errors.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		message := "Malformed request body"
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			if msg, ok := echoErr.Message.(string); ok && msg != "" {
				message = msg
			}
		}
		return errs.NewBadRequestError(message, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, nil, fieldErrors)
	}

	return nil
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

// extractValidationError flattens either error shape into field errors
// with messages a client can show as-is.
func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customErrors CustomValidationErrors
	if errors.As(err, &customErrors) {
		for _, cerr := range customErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: cerr.Field,
				Error: cerr.Message,
			})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed", []errs.FieldError{
			{Field: "request", Error: err.Error()},
		}
	}

	for _, verr := range validationErrors {
		field := strings.ToLower(verr.Field())
		var msg string

		switch verr.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if verr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", verr.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", verr.Param())
			}

		case "max":
			if verr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", verr.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", verr.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", verr.Param())

		case "url":
			msg = "must be a valid URL"

		case "dive":
			msg = "some items are invalid"

		default:
			if verr.Param() != "" {
				msg = fmt.Sprintf("%s:%s", verr.Tag(), verr.Param())
			} else {
				msg = verr.Tag()
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}
