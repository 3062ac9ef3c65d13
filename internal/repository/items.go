package repository

import (
	"context"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/lossyrob/arturo-stac-api/internal/metrics"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/sqlerr"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// itemColumns is the select list every item read shares. Geometry
// leaves the database as GeoJSON text; the API never decodes
// coordinates itself.
const itemColumns = `
	collection_id,
	id,
	COALESCE(stac_version, ''),
	COALESCE(stac_extensions, '{}'),
	ST_AsGeoJSON(geometry),
	COALESCE(bbox, '{}'),
	properties,
	COALESCE(assets, 'null'::jsonb)`

// upsertItemSQL writes an item idempotently: ingestion paths re-run
// against existing data and must converge, not fail.
const upsertItemSQL = `
	INSERT INTO items (
		collection_id, id, stac_version, stac_extensions,
		geometry, bbox, properties, assets, datetime
	) VALUES ($1, $2, NULLIF($3, ''), $4, ST_SetSRID(ST_GeomFromGeoJSON($5), 4326), $6, $7, $8, $9)
	ON CONFLICT (collection_id, id) DO UPDATE SET
		stac_version = EXCLUDED.stac_version,
		stac_extensions = EXCLUDED.stac_extensions,
		geometry = EXCLUDED.geometry,
		bbox = EXCLUDED.bbox,
		properties = EXCLUDED.properties,
		assets = EXCLUDED.assets,
		datetime = EXCLUDED.datetime,
		updated_at = now()`

// ItemsRepository persists items and runs searches against them.
type ItemsRepository struct {
	server *server.Server
	log    *zerolog.Logger
}

func NewItemsRepository(s *server.Server) *ItemsRepository {
	return &ItemsRepository{server: s, log: s.Logger}
}

func scanItem(row pgx.Row) (*stac.Item, error) {
	var (
		item     stac.Item
		geometry string
	)
	err := row.Scan(
		&item.Collection,
		&item.ID,
		&item.StacVersion,
		&item.StacExtensions,
		&geometry,
		&item.Bbox,
		&item.Properties,
		&item.Assets,
	)
	if err != nil {
		return nil, err
	}
	item.Type = "Feature"
	item.Geometry = []byte(geometry)
	return &item, nil
}

// Get returns one item by collection and id, or a 404 error.
func (r *ItemsRepository) Get(ctx context.Context, collectionID, itemID string) (*stac.Item, error) {
	row := r.server.DB.Reader.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE collection_id = $1 AND id = $2`,
		collectionID, itemID)

	item, err := scanItem(row)
	if err != nil {
		return nil, sqlerr.HandleError(sqlerr.TagTable("items", err))
	}
	return item, nil
}

// itemArgs builds the parameter list shared by Create and Upsert.
// The datetime column mirrors properties.datetime; a missing or
// unparseable value becomes NULL and fails the not-null constraint,
// which surfaces as a 400.
func itemArgs(collectionID string, item *stac.Item) []any {
	var datetime *time.Time
	if parsed, err := time.Parse(time.RFC3339, item.Datetime()); err == nil {
		datetime = &parsed
	}

	return []any{
		collectionID,
		item.ID,
		item.StacVersion,
		item.StacExtensions,
		string(item.Geometry),
		item.Bbox,
		item.Properties,
		item.Assets,
		datetime,
	}
}

// Create inserts an item. A duplicate id in the collection is a 409, a
// missing collection a 404.
func (r *ItemsRepository) Create(ctx context.Context, collectionID string, item *stac.Item) error {
	_, err := r.server.DB.Writer.Exec(ctx, `
		INSERT INTO items (
			collection_id, id, stac_version, stac_extensions,
			geometry, bbox, properties, assets, datetime
		) VALUES ($1, $2, NULLIF($3, ''), $4, ST_SetSRID(ST_GeomFromGeoJSON($5), 4326), $6, $7, $8, $9)`,
		itemArgs(collectionID, item)...,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// Update rewrites an item in place. Missing item is a 404.
func (r *ItemsRepository) Update(ctx context.Context, collectionID string, item *stac.Item) error {
	var datetime *time.Time
	if parsed, err := time.Parse(time.RFC3339, item.Datetime()); err == nil {
		datetime = &parsed
	}

	tag, err := r.server.DB.Writer.Exec(ctx, `
		UPDATE items SET
			stac_version = NULLIF($3, ''),
			stac_extensions = $4,
			geometry = ST_SetSRID(ST_GeomFromGeoJSON($5), 4326),
			bbox = $6,
			properties = $7,
			assets = $8,
			datetime = $9,
			updated_at = now()
		WHERE collection_id = $1 AND id = $2`,
		collectionID,
		item.ID,
		item.StacVersion,
		item.StacExtensions,
		string(item.Geometry),
		item.Bbox,
		item.Properties,
		item.Assets,
		datetime,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("Item not found", nil)
	}
	return nil
}

// Delete removes an item. Missing item is a 404.
func (r *ItemsRepository) Delete(ctx context.Context, collectionID, itemID string) error {
	tag, err := r.server.DB.Writer.Exec(ctx,
		`DELETE FROM items WHERE collection_id = $1 AND id = $2`, collectionID, itemID)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("Item not found", nil)
	}
	return nil
}

// Upsert writes a batch of items idempotently through the writer pool
// and reports how many were written.
func (r *ItemsRepository) Upsert(ctx context.Context, collectionID string, items []*stac.Item) (int, error) {
	return r.UpsertIn(ctx, r.server.DB.Writer, collectionID, items)
}

// UpsertIn is Upsert against an arbitrary Querier, so dataset loads
// can run the whole batch inside one transaction. The batch stops at
// the first failing item; everything queued before it stays written.
func (r *ItemsRepository) UpsertIn(ctx context.Context, q Querier, collectionID string, items []*stac.Item) (int, error) {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(upsertItemSQL, itemArgs(collectionID, item)...)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range items {
		if _, err := results.Exec(); err != nil {
			metrics.RecordItemsIngested(collectionID, written)
			metrics.RecordIngestFailure(collectionID, len(items)-written)
			return written, sqlerr.HandleError(err)
		}
		written++
	}

	metrics.RecordItemsIngested(collectionID, written)
	return written, nil
}
