// Package sqlerr handles database driver errors.
//
// It parses cryptic error codes from the database driver and
// converts them into client-facing errors (e.g., converting a
// "unique violation" on an item insert into a 409 Conflict).
package sqlerr
