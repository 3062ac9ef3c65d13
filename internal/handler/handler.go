// Package handler is the HTTP layer. The first entry point
// for catalog logic after the router.
//
// It parses requests, handles input validation using the
// validation package, and calls the appropriate service layer.
// It acts as the interface between the HTTP request and the
// catalog semantics.
package handler
