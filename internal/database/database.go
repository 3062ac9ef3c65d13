// Package database establishes the PostgreSQL connection pools.
//
// The catalog splits traffic across two endpoints: reads go to the
// reader host, writes to the writer host. When the deployment supplies
// a single host both pools point at it. The package also wires query
// tracing into the driver (pgx tracelog for development, Prometheus
// timings always) and owns schema migration and the startup readiness
// probe.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	loggerPkg "github.com/lossyrob/arturo-stac-api/internal/logger"
	"github.com/lossyrob/arturo-stac-api/internal/metrics"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// Database wraps the reader and writer pools and a logger.
//
// Reader serves catalog reads (collections, items, search). Writer
// serves mutations and one-shot tooling. With a single configured host
// the two pools share an endpoint but stay separate pools, so pool
// pressure from bulk writes cannot starve reads.
type Database struct {
	Reader *pgxpool.Pool
	Writer *pgxpool.Pool

	log *zerolog.Logger
}

// multiTracer chains multiple pgx tracers behind the single Tracer slot
// pgx exposes. Each tracer is consulted via runtime interface checks, so
// tracers only implementing part of the tracing surface still work.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

type queryStartKey struct{}

// metricsTracer times every query into the Prometheus histograms.
type metricsTracer struct{}

func (metricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (metricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	metrics.RecordQuery(data.Err, time.Since(start))
}

// New creates the reader and writer pools and waits for both endpoints
// to accept connections, retrying with backoff up to the configured
// wait timeout. Containers regularly start before their database; the
// probe absorbs that window and still fails the process when the
// database never comes up.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Database, error) {
	reader, err := newPool(ctx, cfg, cfg.Postgres.ReaderDSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating reader pool: %w", err)
	}

	writer, err := newPool(ctx, cfg, cfg.Postgres.WriterDSN(), logger)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("creating writer pool: %w", err)
	}

	db := &Database{
		Reader: reader,
		Writer: writer,
		log:    logger,
	}

	if err := Wait(ctx, logger, cfg.Postgres.WaitTimeout, func(ctx context.Context) error {
		if err := reader.Ping(ctx); err != nil {
			return fmt.Errorf("reader %s: %w", cfg.Postgres.ReaderHost(), err)
		}
		if err := writer.Ping(ctx); err != nil {
			return fmt.Errorf("writer %s: %w", cfg.Postgres.WriterHost(), err)
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("reader", cfg.Postgres.ReaderHost()).
		Str("writer", cfg.Postgres.WriterHost()).
		Msg("connected to the database")

	return db, nil
}

func newPool(ctx context.Context, cfg *config.Config, dsn string, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Postgres.MaxConns)
	pgxPoolConfig.MinConns = int32(cfg.Postgres.MinConns)

	pgxPoolConfig.ConnConfig.Tracer = metricsTracer{}

	// Development runs additionally log every SQL statement.
	if cfg.DevMode() {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerPkg.NewPgxLogger(globalLevel)

		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerPkg.GetPgxTraceLogLevel(globalLevel),
		}

		pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
			tracers: []any{metricsTracer{}, localTracer},
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}

	return pool, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pools")
	db.Reader.Close()
	db.Writer.Close()
	return nil
}
