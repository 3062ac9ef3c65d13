// Package validation binds and validates request payloads.
//
// Struct-tag rules run through the `validator` library; rules tags
// cannot express (the search grammar, mostly) are returned as
// CustomValidationErrors. Both shapes are flattened into the field
// error format clients receive.
package validation
