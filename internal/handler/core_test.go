package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemsPageRequestValidate(t *testing.T) {
	assert.NoError(t, (&ItemsPageRequest{Limit: 0}).Validate())
	assert.NoError(t, (&ItemsPageRequest{Limit: stac.MaxLimit}).Validate())
	assert.Error(t, (&ItemsPageRequest{Limit: -1}).Validate())
	assert.Error(t, (&ItemsPageRequest{Limit: stac.MaxLimit + 1}).Validate())
}

func TestBaseURL(t *testing.T) {
	e := echo.New()

	t.Run("direct request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://stac.example.com/collections", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		assert.Equal(t, "http://stac.example.com", baseURL(c))
	})

	t.Run("behind a TLS-terminating proxy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://stac.example.com/collections", nil)
		req.Header.Set(echo.HeaderXForwardedProto, "https")
		c := e.NewContext(req, httptest.NewRecorder())

		assert.Equal(t, "https://stac.example.com", baseURL(c))
	})
}

// The typed pipeline binds path and query parameters before validating.
func TestHandleBindsRequest(t *testing.T) {
	e := echo.New()

	var got *ItemsPageRequest
	h := Handle(Handler{}, func(c echo.Context, req *ItemsPageRequest) (string, error) {
		got = req
		return "ok", nil
	}, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/collections/joplin/items?limit=5&token=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/collections/:collectionId/items")
	c.SetParamNames("collectionId")
	c.SetParamValues("joplin")

	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, got)
	assert.Equal(t, "joplin", got.CollectionID)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, "abc", got.Token)
}

func TestHandleRejectsInvalidRequest(t *testing.T) {
	e := echo.New()

	called := false
	h := Handle(Handler{}, func(c echo.Context, req *ItemsPageRequest) (string, error) {
		called = true
		return "ok", nil
	}, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/collections/joplin/items?limit=-1", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/collections/:collectionId/items")
	c.SetParamNames("collectionId")
	c.SetParamValues("joplin")

	assert.Error(t, h(c))
	assert.False(t, called, "handler must not run on invalid input")
}
