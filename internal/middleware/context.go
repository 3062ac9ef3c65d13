package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/rs/zerolog"
)

// LoggerKey is the key the request-scoped logger is stored under in
// both the echo context and the request's context.Context.
const LoggerKey = "logger"

// ContextEnhancer builds a request-scoped child logger carrying
// correlation fields (request_id, method, path, ip) and stores it
// where both handlers and deeper layers can reach it.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns the echo middleware. It expects the RequestID
// middleware to have run first; without it the request_id field is "".
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				// Route template ("/collections/:collectionId"), not the
				// raw URL, so log fields group by endpoint.
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			c.Set(LoggerKey, &contextLogger)

			// Also store it in the request context so code that only
			// sees a context.Context (repositories, tracers) can log
			// with the same correlation fields.
			ctx := context.WithValue(c.Request().Context(), loggerCtxKey{}, &contextLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

type loggerCtxKey struct{}

// GetLogger retrieves the request-scoped logger from the echo context.
// Returns a no-op logger when the enhancer did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}

// LoggerFromContext retrieves the request-scoped logger from a plain
// context.Context, for code below the HTTP layer.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey{}).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}
