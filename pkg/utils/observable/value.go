// Package observable provides a single-emission value holder.
package observable

import (
	"context"
	"sync"
)

// Value is published at most once and can be observed by any number of
// readers. The zero Value is not usable; use New.
type Value[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

func New[T any]() *Value[T] {
	return &Value[T]{done: make(chan struct{})}
}

// Publish stores v and wakes all observers. Only the first call has an
// effect; it reports whether v was stored.
func (x *Value[T]) Publish(v T) bool {
	published := false
	x.once.Do(func() {
		x.value = v
		close(x.done)
		published = true
	})
	return published
}

// Done is closed once a value has been published.
func (x *Value[T]) Done() <-chan struct{} {
	return x.done
}

// Get returns the published value. ok is false while nothing has been
// published yet.
func (x *Value[T]) Get() (v T, ok bool) {
	select {
	case <-x.done:
		return x.value, true
	default:
		return v, false
	}
}

// Wait blocks until a value is published or ctx is done.
func (x *Value[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-x.done:
		return x.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Observe calls fn with the published value. fn runs immediately if the
// value is already there, otherwise on its own goroutine once it is.
func (x *Value[T]) Observe(fn func(T)) {
	if v, ok := x.Get(); ok {
		fn(v)
		return
	}
	go func() {
		<-x.done
		fn(x.value)
	}()
}
