// Package job provides background job processing using asynq.
//
// Asynq is a Redis-backed job queue: producers enqueue tasks through
// asynq.Client, and an asynq.Server runs workers that process them.
// The catalog uses it for one thing: bulk item ingestion, so large
// batches load off the request path.
package job

import (
	"github.com/hibiken/asynq"
	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/rs/zerolog"
)

// JobService holds the asynq client (enqueue) and server (workers).
type JobService struct {
	// Client enqueues tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// bulkUpsert is the injected persistence routine bulk tasks run.
	// Set by the service layer once the repositories exist.
	bulkUpsert BulkUpsertFunc
}

// NewJobService builds the client and worker server against the
// configured Redis. Queue weights give interactive work priority over
// backfills: of the worker slots, roughly 6 of 10 go to critical,
// 3 to default, 1 to low.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	return &JobService{
		Client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		}),
		logger: logger,
	}
}

// Start registers task handlers and starts the worker server. asynq's
// Start is non-blocking; workers run until Stop.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskBulkIngest, j.handleBulkIngestTask)

	j.logger.Info().Msg("starting background job server")
	return j.server.Start(mux)
}

// Stop gracefully stops the workers and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	_ = j.Client.Close()
}
