// Package batch holds rows waiting for the next bulk insert.
package batch

import "sync"

// Buffer is a mutex-guarded slice that is drained in one piece.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
}

func New[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Add appends items.
func (b *Buffer[T]) Add(items ...T) {
	b.mu.Lock()
	b.items = append(b.items, items...)
	b.mu.Unlock()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Drain returns everything buffered so far and leaves the buffer empty.
// The returned slice is owned by the caller.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = make([]T, 0, cap(out))
	return out
}

// Requeue puts items back in front of anything added since they were drained.
func (b *Buffer[T]) Requeue(items []T) {
	if len(items) == 0 {
		return
	}
	b.mu.Lock()
	b.items = append(append(make([]T, 0, len(items)+len(b.items)), items...), b.items...)
	b.mu.Unlock()
}
