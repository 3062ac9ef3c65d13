package repository

import (
	"context"

	"github.com/lossyrob/arturo-stac-api/internal/errs"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/sqlerr"
	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// collectionColumns is the select list every collection read shares.
// Nullable columns are coalesced so rows scan straight into the
// response type.
const collectionColumns = `
	id,
	COALESCE(stac_version, ''),
	COALESCE(stac_extensions, '{}'),
	COALESCE(title, ''),
	description,
	COALESCE(keywords, '{}'),
	COALESCE(version, ''),
	COALESCE(license, ''),
	COALESCE(providers, 'null'::jsonb),
	COALESCE(summaries, 'null'::jsonb),
	extent`

// CollectionsRepository persists collections. Reads use the reader
// pool, mutations the writer pool.
type CollectionsRepository struct {
	server *server.Server
	log    *zerolog.Logger
}

func NewCollectionsRepository(s *server.Server) *CollectionsRepository {
	return &CollectionsRepository{server: s, log: s.Logger}
}

func scanCollection(row pgx.Row) (*stac.Collection, error) {
	var coll stac.Collection
	err := row.Scan(
		&coll.ID,
		&coll.StacVersion,
		&coll.StacExtensions,
		&coll.Title,
		&coll.Description,
		&coll.Keywords,
		&coll.Version,
		&coll.License,
		&coll.Providers,
		&coll.Summaries,
		&coll.Extent,
	)
	if err != nil {
		return nil, err
	}
	return &coll, nil
}

// All returns every collection, ordered by id.
func (r *CollectionsRepository) All(ctx context.Context) ([]stac.Collection, error) {
	rows, err := r.server.DB.Reader.Query(ctx,
		`SELECT `+collectionColumns+` FROM collections ORDER BY id`)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	defer rows.Close()

	collections := []stac.Collection{}
	for rows.Next() {
		coll, err := scanCollection(rows)
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}
		collections = append(collections, *coll)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return collections, nil
}

// Get returns one collection by id, or a 404 error.
func (r *CollectionsRepository) Get(ctx context.Context, id string) (*stac.Collection, error) {
	row := r.server.DB.Reader.QueryRow(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)

	coll, err := scanCollection(row)
	if err != nil {
		return nil, sqlerr.HandleError(sqlerr.TagTable("collections", err))
	}
	return coll, nil
}

// Create inserts a collection. A duplicate id is a 409.
func (r *CollectionsRepository) Create(ctx context.Context, coll *stac.Collection) error {
	_, err := r.server.DB.Writer.Exec(ctx, `
		INSERT INTO collections (
			id, stac_version, stac_extensions, title, description,
			keywords, version, license, providers, summaries, extent
		) VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)`,
		coll.ID,
		coll.StacVersion,
		coll.StacExtensions,
		coll.Title,
		coll.Description,
		coll.Keywords,
		coll.Version,
		coll.License,
		coll.Providers,
		coll.Summaries,
		coll.Extent,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// UpsertIn writes a collection idempotently, for dataset loads that
// re-run against existing data. Runs on the given Querier so a load
// can share one transaction with its items.
func (r *CollectionsRepository) UpsertIn(ctx context.Context, q Querier, coll *stac.Collection) error {
	_, err := q.Exec(ctx, `
		INSERT INTO collections (
			id, stac_version, stac_extensions, title, description,
			keywords, version, license, providers, summaries, extent
		) VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			stac_version = EXCLUDED.stac_version,
			stac_extensions = EXCLUDED.stac_extensions,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			keywords = EXCLUDED.keywords,
			version = EXCLUDED.version,
			license = EXCLUDED.license,
			providers = EXCLUDED.providers,
			summaries = EXCLUDED.summaries,
			extent = EXCLUDED.extent,
			updated_at = now()`,
		coll.ID,
		coll.StacVersion,
		coll.StacExtensions,
		coll.Title,
		coll.Description,
		coll.Keywords,
		coll.Version,
		coll.License,
		coll.Providers,
		coll.Summaries,
		coll.Extent,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// Update rewrites a collection in place. Missing id is a 404.
func (r *CollectionsRepository) Update(ctx context.Context, coll *stac.Collection) error {
	tag, err := r.server.DB.Writer.Exec(ctx, `
		UPDATE collections SET
			stac_version = NULLIF($2, ''),
			stac_extensions = $3,
			title = NULLIF($4, ''),
			description = $5,
			keywords = $6,
			version = NULLIF($7, ''),
			license = NULLIF($8, ''),
			providers = $9,
			summaries = $10,
			extent = $11,
			updated_at = now()
		WHERE id = $1`,
		coll.ID,
		coll.StacVersion,
		coll.StacExtensions,
		coll.Title,
		coll.Description,
		coll.Keywords,
		coll.Version,
		coll.License,
		coll.Providers,
		coll.Summaries,
		coll.Extent,
	)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("Collection not found", nil)
	}
	return nil
}

// Delete removes a collection. A collection that still has items fails
// with a 409 from the foreign key.
func (r *CollectionsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.server.DB.Writer.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("Collection not found", nil)
	}
	return nil
}

// Exists reports whether a collection id is present.
func (r *CollectionsRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.server.DB.Reader.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, sqlerr.HandleError(err)
	}
	return exists, nil
}
