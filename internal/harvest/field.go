package harvest

import "errors"

// ErrSkipped marks a field that was not attempted because a field it depends
// on is absent.
var ErrSkipped = errors.New("skipped")

// Field is the outcome of extracting one record field: either a value or the
// reason it is absent.
type Field[T any] struct {
	value T
	err   error
	found bool
}

// Found wraps an extracted value.
func Found[T any](v T) Field[T] {
	return Field[T]{value: v, found: true}
}

// Absent records why a field has no value.
func Absent[T any](err error) Field[T] {
	if err == nil {
		err = ErrSkipped
	}

	return Field[T]{err: err}
}

// FieldOf converts a (value, error) pair into a Field.
func FieldOf[T any](v T, err error) Field[T] {
	if err != nil {
		return Absent[T](err)
	}

	return Found(v)
}

// Ok reports whether the field holds a value.
func (f Field[T]) Ok() bool {
	return f.found
}

// Value returns the value, or the zero value when absent.
func (f Field[T]) Value() T {
	return f.value
}

// Err returns why the field is absent, nil when found.
func (f Field[T]) Err() error {
	return f.err
}

// Ptr returns a pointer to the value, nil when absent.
func (f Field[T]) Ptr() *T {
	if !f.found {
		return nil
	}

	v := f.value

	return &v
}
