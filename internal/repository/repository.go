// Package repository handles all interactions with the database.
//
// It contains the raw SQL for the catalog: collection and item CRUD,
// the search query builder with keyset pagination, and the pagination
// token store. Errors leave this package already translated into
// client-facing errors via sqlerr.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx execution methods the repositories
// need, satisfied by both *pgxpool.Pool and pgx.Tx. Methods that must
// share a transaction accept one so callers can pass a pgx.Tx instead
// of a pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}
