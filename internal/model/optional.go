package model

// Opt is a scalar field populated from a REST endpoint. Known is false when
// the endpoint failed or did not carry the field; the zero Opt is unknown.
type Opt[T any] struct {
	Value T
	Known bool
}

// Some returns a known Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Known: true}
}

// Get returns the value and whether it is known.
func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Known
}

// Or returns the value when known, otherwise def.
func (o Opt[T]) Or(def T) T {
	if !o.Known {
		return def
	}
	return o.Value
}

// List is a collection field populated from a REST endpoint. An unknown List
// (endpoint failed) is distinct from a known, empty one.
type List[T any] struct {
	Items []T
	Known bool
}

// KnownList returns a known List. A nil items slice becomes an empty one.
func KnownList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Known: true}
}

// Len returns the number of items; 0 for an unknown list.
func (l List[T]) Len() int {
	return len(l.Items)
}
