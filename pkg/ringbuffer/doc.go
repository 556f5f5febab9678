/*
Package ringbuffer provides a fixed-capacity FIFO container backed by a ring.

A Buffer holds at most Cap() elements in arrival order. Capacity is a hard
ceiling: Push on a full buffer and Pop or Front on an empty one are
programmer errors and panic, there is no resizing and no overwrite-on-full.
Callers that need to make room must Pop first.

Basic usage:

	buf := ringbuffer.MustNew[int](4)
	buf.Push(1)
	buf.Push(2)

	oldest := buf.Front() // 1
	buf.Pop()

A Buffer is not safe for concurrent use; guard it with the owner's lock.
*/
package ringbuffer
