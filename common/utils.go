package common

// Coalesce picks the first value in the list that differs from the zero
// value of T, letting builders fall back through defaults in one expression.
//
// Parameters:
//   - values: candidate values in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
