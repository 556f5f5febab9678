package ringbuffer

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/vnykmshr/msgthrottle/internal/testutil"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"capacity 1", 1, false},
		{"capacity 4", 4, false},
		{"zero capacity", 0, true},
		{"negative capacity", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New[int](tt.capacity)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if b != nil {
					t.Error("expected nil buffer on error")
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, b.Cap(), tt.capacity)
			testutil.AssertEqual(t, b.Len(), 0)
		})
	}
}

func TestEmpty(t *testing.T) {
	b := MustNew[uint](4)

	testutil.AssertEqual(t, b.Empty(), true)
	testutil.AssertEqual(t, b.Full(), false)
}

func TestFull(t *testing.T) {
	b := MustNew[uint](4)

	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4)

	testutil.AssertEqual(t, b.Full(), true)
	testutil.AssertEqual(t, b.Front(), uint(1))
	testutil.AssertEqual(t, b.Back(), uint(4))
}

func TestPop(t *testing.T) {
	b := MustNew[uint](4)

	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4)
	testutil.AssertEqual(t, b.Pop(), uint(1))
	testutil.AssertEqual(t, b.Pop(), uint(2))

	testutil.AssertEqual(t, b.Full(), false)
	testutil.AssertEqual(t, b.Front(), uint(3))
	testutil.AssertEqual(t, b.Len(), 2)
}

func TestWrapAround(t *testing.T) {
	b := MustNew[uint](4)

	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4)
	b.Pop()
	b.Pop()
	b.Push(5)
	b.Push(6)
	b.Pop()
	b.Pop()
	b.Pop()

	testutil.AssertEqual(t, b.Full(), false)
	testutil.AssertEqual(t, b.Front(), uint(6))
	testutil.AssertEqual(t, b.Back(), uint(6))
}

func TestPreconditionPanics(t *testing.T) {
	tests := []struct {
		name string
		want error
		op   func(b *Buffer[int])
	}{
		{"pop on empty", ErrEmpty, func(b *Buffer[int]) { b.Pop() }},
		{"front on empty", ErrEmpty, func(b *Buffer[int]) { b.Front() }},
		{"back on empty", ErrEmpty, func(b *Buffer[int]) { b.Back() }},
		{"push on full", ErrFull, func(b *Buffer[int]) {
			b.Push(1)
			b.Push(2)
			b.Push(3)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustNew[int](2)
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				err, ok := r.(error)
				if !ok || !errors.Is(err, tt.want) {
					t.Fatalf("panic value = %v, want wrapping %v", r, tt.want)
				}
			}()
			tt.op(b)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero capacity")
		}
	}()
	MustNew[int](0)
}

// TestFIFOAgainstModel drives random pushes and pops that respect the
// preconditions and compares the buffer with a plain slice queue.
func TestFIFOAgainstModel(t *testing.T) {
	const capacity = 5
	rng := rand.New(rand.NewSource(42))
	b := MustNew[int](capacity)
	var model []int
	next := 0

	for i := 0; i < 10000; i++ {
		push := rng.Intn(2) == 0
		switch {
		case push && !b.Full():
			b.Push(next)
			model = append(model, next)
			next++
		case !b.Empty():
			got := b.Pop()
			if got != model[0] {
				t.Fatalf("step %d: Pop() = %d, want %d", i, got, model[0])
			}
			model = model[1:]
		}

		if b.Len() != len(model) {
			t.Fatalf("step %d: Len() = %d, want %d", i, b.Len(), len(model))
		}
		if b.Len() > capacity {
			t.Fatalf("step %d: Len() = %d exceeds capacity", i, b.Len())
		}
		if b.Full() != (len(model) == capacity) {
			t.Fatalf("step %d: Full() = %v with %d elements", i, b.Full(), len(model))
		}
		if len(model) > 0 && b.Front() != model[0] {
			t.Fatalf("step %d: Front() = %d, want %d", i, b.Front(), model[0])
		}
	}
}

func TestDo(t *testing.T) {
	b := MustNew[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Pop()
	b.Push(4)

	var got []int
	b.Do(func(v int) bool {
		got = append(got, v)
		return true
	})
	testutil.AssertEqual(t, len(got), 3)
	testutil.AssertEqual(t, got[0], 2)
	testutil.AssertEqual(t, got[1], 3)
	testutil.AssertEqual(t, got[2], 4)

	visited := 0
	b.Do(func(int) bool {
		visited++
		return false
	})
	testutil.AssertEqual(t, visited, 1)
}

func TestReset(t *testing.T) {
	b := MustNew[*int](2)
	v := 7
	b.Push(&v)
	b.Push(&v)
	b.Reset()

	testutil.AssertEqual(t, b.Empty(), true)
	for i, slot := range b.slots {
		if slot != nil {
			t.Errorf("slot %d still references a value after Reset", i)
		}
	}

	b.Push(&v)
	testutil.AssertEqual(t, b.Front(), &v)
}

func TestPopReleasesSlot(t *testing.T) {
	b := MustNew[*int](2)
	v := 1
	b.Push(&v)
	b.Pop()

	if b.slots[0] != nil {
		t.Error("popped slot should be zeroed")
	}
}
