package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/pkg/errors"
)

// Mutation endpoints tolerate bursts (bulk loads arrive in clumps) but
// not sustained hammering.
const (
	mutationRate  = 20
	mutationBurst = 40
)

// RateLimitMiddleware guards the transaction endpoints. Reads stay
// unlimited; the catalog is a public read-mostly service.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{server: s}
}

// LimitMutations returns a per-IP in-memory token bucket limiter for
// the write routes. Exceeding it is a 429 through the global error
// funnel, logged with the offending endpoint.
func (r *RateLimitMiddleware) LimitMutations() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  mutationRate,
			Burst: mutationBurst,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			GetLogger(c).Warn().
				Str("identifier", identifier).
				Str("endpoint", c.Path()).
				Msg("rate limit hit")

			code := "RATE_LIMITED"
			return &errs.HTTPError{
				Code:    code,
				Message: "Too many requests, slow down",
				Status:  http.StatusTooManyRequests,
			}
		},
	})
}

// statusFromError resolves the status an error will be rendered with,
// before the global error handler has run.
func statusFromError(err error) int {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	return http.StatusInternalServerError
}
