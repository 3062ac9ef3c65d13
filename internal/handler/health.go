package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
	"github.com/lossyrob/arturo-stac-api/internal/server"
)

// HealthHandler serves /status so orchestrators and uptime monitors
// can verify the service and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(s)}
}

// CheckHealth pings both database pools and, when configured, Redis.
// Returns 200 when the database checks pass, 503 otherwise. Redis is
// reported but never fails the check: every feature that uses it has
// a synchronous fallback.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Environment,
		"checks":      checks,
	}

	healthy := true
	pools := map[string]interface {
		Ping(context.Context) error
	}{
		"database_reader": h.server.DB.Reader,
		"database_writer": h.server.DB.Writer,
	}

	for name, pool := range pools {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		pingStart := time.Now()
		err := pool.Ping(ctx)
		cancel()

		if err != nil {
			checks[name] = map[string]any{
				"status":        "unhealthy",
				"response_time": time.Since(pingStart).String(),
				"error":         err.Error(),
			}
			healthy = false

			logger.Error().
				Err(err).
				Str("check", name).
				Dur("response_time", time.Since(pingStart)).
				Msg("database health check failed")
			continue
		}

		checks[name] = map[string]any{
			"status":        "healthy",
			"response_time": time.Since(pingStart).String(),
		}
	}

	if h.server.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		pingStart := time.Now()
		err := h.server.Redis.Ping(ctx).Err()
		cancel()

		if err != nil {
			checks["redis"] = map[string]any{
				"status":        "unhealthy",
				"response_time": time.Since(pingStart).String(),
				"error":         err.Error(),
			}

			logger.Warn().
				Err(err).
				Dur("response_time", time.Since(pingStart)).
				Msg("redis health check failed")
		} else {
			checks["redis"] = map[string]any{
				"status":        "healthy",
				"response_time": time.Since(pingStart).String(),
			}
		}
	}

	if !healthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}
