package middleware

import (
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// Middlewares groups all middleware components used by the HTTP
// server, so router setup receives one wired object instead of many.
type Middlewares struct {
	// Global holds middleware applied to every route: CORS, request
	// logging, recovery, secure headers, and the global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer enriches each request with a request-scoped
	// logger (request_id, method, path, ip).
	ContextEnhancer *ContextEnhancer

	// Metrics records Prometheus request counters and latencies.
	Metrics *MetricsMiddleware

	// RateLimit guards the mutation endpoints against runaway clients.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components from the
// application container.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Metrics:         NewMetricsMiddleware(s),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
