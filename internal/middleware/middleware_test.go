package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/lossyrob/arturo-stac-api/internal/lib/utils"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{},
		Logger: &logger,
	}
}

func TestRequestID(t *testing.T) {
	e := echo.New()

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("mints an id when none arrives", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, rec.Header().Get(RequestIDHeader), GetRequestID(c))
	})

	t.Run("reuses the proxy's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.Equal(t, "upstream-id", GetRequestID(c))
		assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	})
}

func TestEnhanceContext(t *testing.T) {
	e := echo.New()
	ce := NewContextEnhancer(testServer())

	handler := ce.EnhanceContext()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/collections", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	require.NoError(t, handler(c))

	// The same logger is reachable from echo and from the request
	// context, so deeper layers share correlation fields.
	assert.Same(t, GetLogger(c), LoggerFromContext(c.Request().Context()))
}

func TestGlobalErrorHandler(t *testing.T) {
	e := echo.New()
	global := NewGlobalMiddlewares(testServer())

	render := func(t *testing.T, err error) (int, errs.HTTPError) {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		global.GlobalErrorHandler(err, c)

		var body errs.HTTPError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	t.Run("renders HTTPError as-is", func(t *testing.T) {
		status, body := render(t, errs.NewNotFoundError("Collection not found", utils.Ptr("COLLECTION_NOT_FOUND")))

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "COLLECTION_NOT_FOUND", body.Code)
		assert.Equal(t, "Collection not found", body.Message)
	})

	t.Run("normalizes unknown routes", func(t *testing.T) {
		status, body := render(t, echo.NewHTTPError(http.StatusNotFound))

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Route not found", body.Message)
	})

	t.Run("unknown errors become sanitized 500s", func(t *testing.T) {
		status, body := render(t, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotContains(t, body.Message, assert.AnError.Error())
	})
}
