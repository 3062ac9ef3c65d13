// Package lib holds modules that do not fit strictly into the other
// layers: shared utilities and the Redis-backed background job
// processing used by bulk ingestion.
package lib
