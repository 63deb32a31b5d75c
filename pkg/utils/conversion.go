package utils

// Ptr returns a pointer to its argument, for filling optional fields
// inline.
func Ptr[T any](value T) *T {
	return &value
}
