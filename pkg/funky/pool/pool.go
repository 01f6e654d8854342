// Package pool provides the fixed-capacity slab allocator that backs every
// runtime value of the funky interpreter.
//
// A Pool preallocates all of its slots up front, so pointers returned by
// Allocate and Get stay valid until the slot is freed. Slots are addressed by
// generation-checked handles: once a slot is freed and reused, handles issued
// for the earlier occupant are rejected instead of silently aliasing the new
// one.
//
// Running out of slots is fatal. Allocate panics with an *ExhaustedError;
// embedders that want to probe capacity use TryAllocate.
package pool

import "fmt"

// DefaultCapacity is the number of slots a pool holds when no capacity is given.
const DefaultCapacity = 1000

// Handle addresses one slot of a Pool. The zero Handle is never valid.
type Handle struct {
	index int
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// Index returns the slot index the handle points at.
func (h Handle) Index() int {
	return h.index
}

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d#%d)", h.index, h.gen)
}

// ExhaustedError is the panic value raised when a pool has no free slot left.
type ExhaustedError struct {
	Pool     string
	Capacity int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("memory pool %q exhausted (capacity %d)", e.Pool, e.Capacity)
}

// Pool is a fixed-capacity arena of T values.
type Pool[T any] struct {
	name      string
	slots     []T
	used      []bool
	gens      []uint32
	bestGuess int
	count     int
}

// New creates a pool with the given capacity. A capacity below one falls back
// to DefaultCapacity.
func New[T any](name string, capacity int) *Pool[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	gens := make([]uint32, capacity)
	for i := range gens {
		gens[i] = 1
	}
	return &Pool[T]{
		name:  name,
		slots: make([]T, capacity),
		used:  make([]bool, capacity),
		gens:  gens,
	}
}

// Name returns the pool's name as used in diagnostics.
func (p *Pool[T]) Name() string { return p.name }

// Cap returns the pool's fixed capacity.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// Len returns the number of slots currently in use.
func (p *Pool[T]) Len() int { return p.count }

// Allocate claims a free slot and returns its handle and a pointer to the
// zeroed value. It panics with *ExhaustedError when every slot is in use.
func (p *Pool[T]) Allocate() (Handle, *T) {
	h, v, ok := p.TryAllocate()
	if !ok {
		panic(&ExhaustedError{Pool: p.name, Capacity: len(p.slots)})
	}
	return h, v
}

// TryAllocate is Allocate without the panic: ok is false when the pool is full.
func (p *Pool[T]) TryAllocate() (h Handle, v *T, ok bool) {
	n := len(p.slots)
	if p.count == n {
		return Handle{}, nil, false
	}
	// scan forward from the hint, wrapping once
	for i := 0; i < n; i++ {
		j := (p.bestGuess + i) % n
		if p.used[j] {
			continue
		}
		p.used[j] = true
		p.count++
		p.bestGuess = (j + 1) % n
		return Handle{index: j, gen: p.gens[j]}, &p.slots[j], true
	}
	return Handle{}, nil, false
}

// Valid reports whether h refers to a live slot of this pool.
func (p *Pool[T]) Valid(h Handle) bool {
	if h.gen == 0 || h.index < 0 || h.index >= len(p.slots) {
		return false
	}
	return p.used[h.index] && p.gens[h.index] == h.gen
}

// Get returns the value behind h. It panics on a stale or foreign handle.
func (p *Pool[T]) Get(h Handle) *T {
	if !p.Valid(h) {
		panic(fmt.Sprintf("pool %q: invalid %s", p.name, h))
	}
	return &p.slots[h.index]
}

// Free zeroes the slot behind h and makes it available again. Freeing a stale
// handle panics, since it means two owners released the same slot.
func (p *Pool[T]) Free(h Handle) {
	if !p.Valid(h) {
		panic(fmt.Sprintf("pool %q: double free of %s", p.name, h))
	}
	var zero T
	p.slots[h.index] = zero
	p.used[h.index] = false
	p.gens[h.index]++
	if p.gens[h.index] == 0 {
		p.gens[h.index] = 1
	}
	p.count--
	p.bestGuess = h.index
}
