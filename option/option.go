// Package option provides the generic functional-options builder used by
// rangereader.New and rangereader.NewHTTP (SPEC_FULL.md §6.3).
// container.Create and sptree.Build take their tunables as plain
// arguments instead.
package option

// Option configures a value of type T, returning an error if the supplied
// configuration is invalid.
type Option[T any] interface {
	apply(T) error
}

type funcOption[T any] struct {
	fn func(T) error
}

func (o *funcOption[T]) apply(target T) error { return o.fn(target) }

// New creates an Option from a function that may fail, e.g. a range
// validation on a tunable.
func New[T any](fn func(T) error) Option[T] {
	return &funcOption[T]{fn: fn}
}

// NoError creates an Option from a function that cannot fail.
func NoError[T any](fn func(T)) Option[T] {
	return &funcOption[T]{fn: func(target T) error {
		fn(target)
		return nil
	}}
}

// Apply applies opts to target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
