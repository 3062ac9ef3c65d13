// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns: request
// correlation ids, request-scoped logging, CORS, security headers,
// rate limiting, Prometheus instrumentation, panic recovery, and the
// global error funnel that renders every failure as one JSON shape.
package middleware
