// ABOUTME: Nullable patch field for optional DayItem attributes.
// ABOUTME: Distinguishes "leave alone", "set to value", and "set to null".
package models

// Nullable is a patch value for a nullable field. The zero value leaves the
// field untouched.
type Nullable[T any] struct {
	set   bool
	value *T
}

// Set returns a patch that stores v.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, value: &v}
}

// Null returns a patch that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true}
}

// FromPtr returns Set(*p) for non-nil p and Null otherwise.
func FromPtr[T any](p *T) Nullable[T] {
	if p == nil {
		return Null[T]()
	}
	return Set(*p)
}

// IsSet reports whether the patch touches the field.
func (n Nullable[T]) IsSet() bool { return n.set }

// Ptr returns a fresh copy of the patched value, or nil for a null patch.
func (n Nullable[T]) Ptr() *T {
	if n.value == nil {
		return nil
	}
	v := *n.value
	return &v
}
