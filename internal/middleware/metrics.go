package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/metrics"
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// MetricsMiddleware records Prometheus request metrics for every
// served request.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

// Instrument times each request and records it with the route
// template as the path label, keeping label cardinality bounded.
// The status recorded accounts for errors resolved later by the
// global error handler.
func (mm *MetricsMiddleware) Instrument() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusFromError(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			metrics.RecordHTTPRequest(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
