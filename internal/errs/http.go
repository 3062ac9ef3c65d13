package errs

import "strings"

// FieldError is a field-level validation error.
//
//	{ "field": "bbox", "error": "must have 4 or 6 values" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the error shape serialized to API clients.
//
//   - Code: machine-friendly error code (e.g. "NOT_FOUND").
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Errors: per-field validation errors, when applicable.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError, so
// errors.Is(err, &HTTPError{}) can test for the type anywhere
// in a wrapped chain. It deliberately ignores Code and Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of the error with Message replaced,
// leaving the original template untouched.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Errors:  e.Errors,
	}
}

// MakeUpperCaseWithUnderscores turns HTTP status text into a stable
// machine-readable code: "Bad Request" -> "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
