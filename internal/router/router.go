// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/handler"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
)

// New assembles the echo engine: global middleware in order, the
// error funnel, and every route group.
func New(m *middleware.Middlewares, h *handler.Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Every error from any handler or middleware leaves through the
	// one funnel, as one JSON error shape.
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler

	// Order matters: the request id must exist before the context
	// enhancer builds the request-scoped logger, and both must exist
	// before the request logger emits its line.
	e.Use(middleware.RequestID())
	e.Use(m.ContextEnhancer.EnhanceContext())
	e.Use(m.Global.RequestLogger())
	e.Use(m.Global.Recover())
	e.Use(m.Global.Secure())
	e.Use(m.Global.CORS())
	e.Use(m.Metrics.Instrument())

	registerSystemRoutes(e, h)
	registerCatalogRoutes(e, m, h)

	return e
}
