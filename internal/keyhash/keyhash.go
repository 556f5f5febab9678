// Package keyhash maps comparable keys onto a fixed number of partitions.
package keyhash

import "hash/maphash"

// Partitioner assigns keys to one of n partitions. The mapping is stable for
// the lifetime of the Partitioner and differs between Partitioners.
type Partitioner[K comparable] struct {
	seed maphash.Seed
	n    uint64
}

// New creates a Partitioner over n partitions. n must be positive.
func New[K comparable](n int) Partitioner[K] {
	if n <= 0 {
		panic("keyhash: partition count must be positive")
	}
	return Partitioner[K]{seed: maphash.MakeSeed(), n: uint64(n)}
}

// Index returns the partition of key in [0, n).
func (p Partitioner[K]) Index(key K) int {
	if p.n == 1 {
		return 0
	}
	return int(maphash.Comparable(p.seed, key) % p.n)
}

// Len returns the number of partitions.
func (p Partitioner[K]) Len() int {
	return int(p.n)
}
