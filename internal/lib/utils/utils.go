// Package utils contains small helper functions used across the
// project that don't belong to a specific domain.
package utils

// Ptr returns a pointer to v. Handy for the optional-code parameters
// the error constructors take.
func Ptr[T any](v T) *T {
	return &v
}
