package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// BulkUpsertFunc writes a batch of items into a collection and
// reports how many were written. The repository layer provides the
// implementation; the job package stays free of database imports.
type BulkUpsertFunc func(ctx context.Context, collectionID string, items []*stac.Item) (int, error)

// SetBulkUpsert injects the persistence routine bulk tasks run. Must
// be called before Start; tasks picked up earlier fail and retry.
func (j *JobService) SetBulkUpsert(fn BulkUpsertFunc) {
	j.bulkUpsert = fn
}

// handleBulkIngestTask processes one bulk ingestion batch.
func (j *JobService) handleBulkIngestTask(ctx context.Context, t *asynq.Task) error {
	if j.bulkUpsert == nil {
		return errors.New("bulk upsert handler not configured")
	}

	var p BulkIngestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshalling bulk ingest payload: %w", err)
	}

	logger := j.logger.With().
		Str("type", TaskBulkIngest).
		Str("collection", p.CollectionID).
		Int("items", len(p.Items)).
		Logger()

	logger.Info().Msg("processing bulk ingest task")

	written, err := j.bulkUpsert(ctx, p.CollectionID, p.Items)
	if err != nil {
		logger.Error().Err(err).Int("written", written).Msg("bulk ingest task failed")
		return err
	}

	logger.Info().Int("written", written).Msg("bulk ingest task completed")
	return nil
}
