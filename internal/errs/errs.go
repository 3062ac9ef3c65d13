// Package errs defines the error types the API returns to clients.
//
// Every failure that reaches a client is an *HTTPError: a status code,
// a stable machine-readable code, a human-readable message, and
// optionally field-level detail for malformed payloads. Handlers and
// repositories return these; the global error handler serializes them.
package errs
