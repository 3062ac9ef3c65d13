package router

import (
	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers the endpoints that are not part of
// the catalog: health, metrics, and the docs UI with its assets.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	// Health endpoint for orchestrators and monitors.
	r.GET("/status", h.Health.CheckHealth)

	// Prometheus scrape endpoint on the app port.
	r.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Docs UI plus the static folder it loads openapi.json from.
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
	r.Static("/static", "static")
}
