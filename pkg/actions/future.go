package actions

import (
	"context"
	"sync"
)

// Future is a single-assignment result slot. The first Resolve or Reject
// wins; later ones are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with a value. It reports whether this call
// completed the future.
func (f *Future[T]) Resolve(v T) bool {
	return f.complete(v, nil)
}

// Reject completes the future with an error. It reports whether this call
// completed the future.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.complete(zero, err)
}

// Complete resolves with v when err is nil and rejects with err otherwise.
// Its signature matches the facade's completion callbacks.
func (f *Future[T]) Complete(v T, err error) {
	if err != nil {
		f.Reject(err)
		return
	}
	f.Resolve(v)
}

func (f *Future[T]) complete(v T, err error) bool {
	won := false
	f.once.Do(func() {
		f.value, f.err = v, err
		won = true
		close(f.done)
	})
	return won
}

// Done is closed once the future is completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. An abandoned
// future still receives its completion; the result is simply dropped.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
