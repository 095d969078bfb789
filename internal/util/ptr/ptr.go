// Package ptr builds pointers to values in place, for optional config
// fields that distinguish unset from explicit false.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T { return &v }
