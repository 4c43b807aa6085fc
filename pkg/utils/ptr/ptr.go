package ptr

// Ref returns a pointer to the given value.
func Ref[T any](v T) *T {
	return &v
}

// DerefOr returns the value pointed to by v, or fallback if v is nil.
func DerefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
