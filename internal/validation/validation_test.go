package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `json:"name"`
	Limit int    `json:"limit"`
}

func (p *testPayload) Validate() error {
	var verrs CustomValidationErrors
	if p.Name == "" {
		verrs = append(verrs, CustomValidationError{Field: "name", Message: "is required"})
	}
	if p.Limit < 0 {
		verrs = append(verrs, CustomValidationError{Field: "limit", Message: "must be a positive integer"})
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

func newTestContext(t *testing.T, body string) echo.Context {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindAndValidate(t *testing.T) {
	t.Run("valid payload binds", func(t *testing.T) {
		c := newTestContext(t, `{"name":"joplin","limit":5}`)

		payload := new(testPayload)
		require.NoError(t, BindAndValidate(c, payload))
		assert.Equal(t, "joplin", payload.Name)
		assert.Equal(t, 5, payload.Limit)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		c := newTestContext(t, `{"name":`)

		err := BindAndValidate(c, new(testPayload))

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	})

	t.Run("validation failures carry field errors", func(t *testing.T) {
		c := newTestContext(t, `{"limit":-1}`)

		err := BindAndValidate(c, new(testPayload))

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "Validation failed", httpErr.Message)
		require.Len(t, httpErr.Errors, 2)
		assert.Equal(t, "name", httpErr.Errors[0].Field)
		assert.Equal(t, "is required", httpErr.Errors[0].Error)
		assert.Equal(t, "limit", httpErr.Errors[1].Field)
	})
}
