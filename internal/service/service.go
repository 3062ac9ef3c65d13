// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives
// validated data from the handlers, applies catalog semantics (link
// stamping, pagination tokens, field filtering, bulk dispatch), and
// calls repository methods to touch the data.
package service
