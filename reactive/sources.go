package reactive

// Just publishes v once and then finishes.
func Just[T any](v T) Publisher[T] {
	return FromSlice([]T{v})
}

// FromSlice publishes the items in order and then finishes.
// The slice is read, never copied or modified.
func FromSlice[T any](items []T) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		index := 0
		runEmitter(s, func() (T, bool, error) {
			if index >= len(items) {
				var zero T
				return zero, false, nil
			}
			v := items[index]
			index++
			return v, true, nil
		}, nil, nil)
	})
}

// Empty finishes immediately without publishing a value.
func Empty[T any]() Publisher[T] {
	return FromSlice[T](nil)
}

// Fail fails immediately with err.
func Fail[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		runEmitter(s, func() (T, bool, error) {
			var zero T
			return zero, false, err
		}, nil, nil)
	})
}

// FromSliceThenFail publishes the items in order and then fails with err.
// A nil err makes it behave like FromSlice.
func FromSliceThenFail[T any](items []T, err error) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		index := 0
		runEmitter(s, func() (T, bool, error) {
			if index >= len(items) {
				var zero T
				return zero, false, err
			}
			v := items[index]
			index++
			return v, true, nil
		}, nil, nil)
	})
}
