package ringbuffer

import (
	"errors"
	"fmt"

	"github.com/vnykmshr/msgthrottle/pkg/common/validation"
)

var (
	// ErrFull is the panic value cause for Push on a full buffer.
	ErrFull = errors.New("ringbuffer: buffer is full")

	// ErrEmpty is the panic value cause for Pop, Front or Back on an empty buffer.
	ErrEmpty = errors.New("ringbuffer: buffer is empty")
)

// Buffer is a fixed-capacity FIFO of T.
type Buffer[T any] struct {
	slots []T
	head  int // index of the oldest element
	count int
}

// New creates an empty buffer that holds at most capacity elements.
func New[T any](capacity int) (*Buffer[T], error) {
	if err := validation.ValidatePositive("ringbuffer", "capacity", capacity); err != nil {
		return nil, err
	}
	return &Buffer[T]{slots: make([]T, capacity)}, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int) *Buffer[T] {
	b, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return b
}

// Push appends v as the newest element. It panics if the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.Full() {
		panic(fmt.Errorf("push with %d/%d elements: %w", b.count, len(b.slots), ErrFull))
	}
	b.slots[b.index(b.count)] = v
	b.count++
}

// Pop removes and returns the oldest element. It panics if the buffer is empty.
func (b *Buffer[T]) Pop() T {
	if b.Empty() {
		panic(fmt.Errorf("pop: %w", ErrEmpty))
	}
	var zero T
	v := b.slots[b.head]
	b.slots[b.head] = zero
	b.head = b.index(1)
	b.count--
	return v
}

// Front returns the oldest element without removing it.
// It panics if the buffer is empty.
func (b *Buffer[T]) Front() T {
	if b.Empty() {
		panic(fmt.Errorf("front: %w", ErrEmpty))
	}
	return b.slots[b.head]
}

// Back returns the newest element without removing it.
// It panics if the buffer is empty.
func (b *Buffer[T]) Back() T {
	if b.Empty() {
		panic(fmt.Errorf("back: %w", ErrEmpty))
	}
	return b.slots[b.index(b.count-1)]
}

// Empty reports whether the buffer holds no elements.
func (b *Buffer[T]) Empty() bool { return b.count == 0 }

// Full reports whether the buffer holds Cap() elements.
func (b *Buffer[T]) Full() bool { return b.count == len(b.slots) }

// Len returns the number of elements currently held.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.slots) }

// Do calls fn for each element, oldest first, until fn returns false.
func (b *Buffer[T]) Do(fn func(T) bool) {
	for i := 0; i < b.count; i++ {
		if !fn(b.slots[b.index(i)]) {
			return
		}
	}
}

// Reset removes all elements.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.slots {
		b.slots[i] = zero
	}
	b.head = 0
	b.count = 0
}

// index maps the offset from the oldest element to a slot index.
func (b *Buffer[T]) index(offset int) int {
	return (b.head + offset) % len(b.slots)
}
