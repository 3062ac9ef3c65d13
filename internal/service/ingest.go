package service

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/lossyrob/arturo-stac-api/internal/lib/job"
	"github.com/lossyrob/arturo-stac-api/internal/repository"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
)

// The demonstration dataset ships inside the binary, so the one-shot
// ingestion container needs no volume mounts or network fetches.
//
//go:embed joplin/collection.json joplin/index.geojson
var joplinData embed.FS

// IngestService owns the write paths that load data in bulk: the
// bundled Joplin dataset loader and the bulk item endpoint behind
// the optional job queue.
type IngestService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewIngestService(s *server.Server, repos *repository.Repositories) *IngestService {
	return &IngestService{server: s, repos: repos}
}

// BulkResult reports how a bulk request was dispatched: queued with a
// task id, or written synchronously.
type BulkResult struct {
	Queued  bool   `json:"queued"`
	TaskID  string `json:"task_id,omitempty"`
	Written int    `json:"written,omitempty"`
}

// Bulk ingests a batch of items into a collection. With a broker the
// batch is enqueued and processed by the worker; without one it is
// upserted synchronously. Either path converges on re-run.
func (s *IngestService) Bulk(ctx context.Context, collectionID string, items []*stac.Item) (*BulkResult, error) {
	if s.server.Job != nil {
		task, err := job.NewBulkIngestTask(collectionID, items)
		if err != nil {
			return nil, err
		}
		info, err := s.server.Job.Client.EnqueueContext(ctx, task)
		if err != nil {
			return nil, err
		}

		s.server.Logger.Info().
			Str("collection", collectionID).
			Str("task_id", info.ID).
			Int("items", len(items)).
			Msg("bulk ingest enqueued")
		return &BulkResult{Queued: true, TaskID: info.ID}, nil
	}

	written, err := s.BulkUpsert(ctx, collectionID, items)
	if err != nil {
		return nil, err
	}
	return &BulkResult{Written: written}, nil
}

// BulkUpsert writes a batch into an existing collection. It is both
// the synchronous bulk path and the routine the job worker runs.
func (s *IngestService) BulkUpsert(ctx context.Context, collectionID string, items []*stac.Item) (int, error) {
	// Resolve the collection first: the upsert's FK error would also
	// catch it, but per item, after partial writes.
	if _, err := s.repos.Collections.Get(ctx, collectionID); err != nil {
		return 0, err
	}
	return s.repos.Items.Upsert(ctx, collectionID, items)
}

// LoadJoplin loads the bundled Joplin, MO dataset: the collection
// document plus its FeatureCollection of items, upserted inside one
// transaction on the writer endpoint. Re-running converges; partial
// failure rolls everything back.
func (s *IngestService) LoadJoplin(ctx context.Context) error {
	coll, items, err := ParseJoplin()
	if err != nil {
		return err
	}

	tx, err := s.server.DB.Writer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning ingest transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repos.Collections.UpsertIn(ctx, tx, coll); err != nil {
		return fmt.Errorf("ingesting collection %q: %w", coll.ID, err)
	}

	written, err := s.repos.Items.UpsertIn(ctx, tx, coll.ID, items)
	if err != nil {
		return fmt.Errorf("ingesting items into %q: %w", coll.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing ingest transaction: %w", err)
	}

	s.server.Logger.Info().
		Str("collection", coll.ID).
		Int("items", written).
		Msg("ingested joplin dataset")
	return nil
}

// ParseJoplin decodes the embedded dataset.
func ParseJoplin() (*stac.Collection, []*stac.Item, error) {
	collData, err := joplinData.ReadFile("joplin/collection.json")
	if err != nil {
		return nil, nil, err
	}
	var coll stac.Collection
	if err := json.Unmarshal(collData, &coll); err != nil {
		return nil, nil, fmt.Errorf("parsing joplin collection: %w", err)
	}

	itemData, err := joplinData.ReadFile("joplin/index.geojson")
	if err != nil {
		return nil, nil, err
	}
	var fc struct {
		Features []*stac.Item `json:"features"`
	}
	if err := json.Unmarshal(itemData, &fc); err != nil {
		return nil, nil, fmt.Errorf("parsing joplin items: %w", err)
	}

	return &coll, fc.Features, nil
}
