package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// TaskBulkIngest is the task type string asynq routes on.
const TaskBulkIngest = "ingest:bulk"

// BulkIngestPayload is the JSON payload stored in Redis for a bulk
// ingestion task.
type BulkIngestPayload struct {
	CollectionID string       `json:"collection_id"`
	Items        []*stac.Item `json:"items"`
}

// NewBulkIngestTask builds the asynq task for one batch. Batches
// retry up to 3 times; the upsert they run is idempotent, so a retry
// after a partial write converges instead of duplicating.
func NewBulkIngestTask(collectionID string, items []*stac.Item) (*asynq.Task, error) {
	payload, err := json.Marshal(BulkIngestPayload{
		CollectionID: collectionID,
		Items:        items,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskBulkIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(5*time.Minute),
	), nil
}
