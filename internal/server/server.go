// Package server defines the application container composing the
// catalog's shared dependencies, and the HTTP server lifecycle around
// them.
//
// It owns:
//   - configuration and the root logger
//   - the reader/writer database pools
//   - the optional Redis client and asynq worker behind it
//   - the cron scheduler for periodic maintenance
//   - the net/http server and its graceful shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/lossyrob/arturo-stac-api/internal/database"
	"github.com/lossyrob/arturo-stac-api/internal/lib/job"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Server is the application container holding shared resources. It is
// not the HTTP server itself; that is configured in SetupHTTPServer
// and driven by Start/Shutdown.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// DB wraps the reader and writer PostgreSQL pools.
	DB *database.Database

	// Redis is nil when the deployment configures no broker. Every
	// feature that would use it falls back to a synchronous path.
	Redis *redis.Client

	// Job runs background workers (asynq) and enqueues tasks. Nil
	// without Redis.
	Job *job.JobService

	// Cron schedules periodic maintenance, like purging expired
	// pagination tokens.
	Cron *cron.Cron

	httpServer *http.Server
}

// New constructs the container and initializes core dependencies: the
// database pools (including the startup readiness wait), and, when a
// Redis address is configured, the Redis client and the asynq job
// service.
//
// A Redis that is configured but unreachable logs and degrades to the
// no-broker behavior rather than failing startup; the catalog's core
// endpoints do not depend on it.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Server, error) {
	db, err := database.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	server := &Server{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Cron:   cron.New(),
	}

	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Address,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Error().Err(err).Msg("redis unreachable, continuing without a broker")
			_ = redisClient.Close()
		} else {
			server.Redis = redisClient
			server.Job = job.NewJobService(logger, cfg)
		}
	}

	return server, nil
}

// StartWorkers starts the asynq worker server, if a broker is
// configured, and the cron scheduler. Call it after the job handlers
// are registered.
func (s *Server) StartWorkers() error {
	if s.Job != nil {
		if err := s.Job.Start(); err != nil {
			return fmt.Errorf("starting job workers: %w", err)
		}
	}
	s.Cron.Start()
	return nil
}

// SetupHTTPServer configures the internal net/http server around the
// router. Timeouts come from config, interpreted as seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         s.Config.ListenAddr(),
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.App.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.App.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.App.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops or
// errors; http.ErrServerClosed after a graceful shutdown is not an
// error.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("addr", s.Config.ListenAddr()).
		Str("env", s.Config.Environment).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops everything in dependency order: the HTTP server
// first (finishing in-flight requests until ctx expires), then cron,
// workers, Redis, and finally the database pools.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
	}

	cronCtx := s.Cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Warn().Err(err).Msg("closing redis client")
		}
	}

	return s.DB.Close()
}
