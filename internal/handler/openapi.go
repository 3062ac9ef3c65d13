package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// OpenAPIHandler serves the API documentation UI. The UI is a static
// HTML page that loads its viewer from a CDN and reads the OpenAPI
// document from the static folder.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{Handler: NewHandler(s)}
}

// ServeOpenAPIUI reads static/openapi.html and serves it as HTML.
// Cache-Control is no-cache so doc updates appear without a reload
// fight during development.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := os.ReadFile("static/openapi.html")

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err != nil {
		return fmt.Errorf("reading OpenAPI UI template: %w", err)
	}

	return c.HTML(http.StatusOK, string(page))
}
