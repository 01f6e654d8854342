package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/lexer"
	"github.com/sambeau/funky/pkg/funky/pool"
)

// Kind is the type tag of a Data handle.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindFunction

	kindCount = int(KindFunction) + 1
)

var kindNames = [kindCount]string{"bool", "int", "float", "string", "list", "map", "function"}

func (k Kind) String() string {
	if int(k) < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// cell is a pooled payload shared by every Data aliasing it. The payload is
// released when users drops to zero.
type cell[T any] struct {
	users int
	value T
}

// Heap owns every pool a runtime allocates from: one pool of Data handles per
// kind and one pool of payload cells per kind.
type Heap struct {
	handles [kindCount]*pool.Pool[Data]

	bools   *pool.Pool[cell[bool]]
	ints    *pool.Pool[cell[int64]]
	floats  *pool.Pool[cell[float64]]
	strings *pool.Pool[cell[string]]
	lists   *pool.Pool[cell[List]]
	maps    *pool.Pool[cell[Map]]
	funcs   *pool.Pool[cell[*Function]]
}

// NewHeap creates a heap whose pools each hold capacity slots.
func NewHeap(capacity int) *Heap {
	h := &Heap{
		bools:   pool.New[cell[bool]]("bool payload", capacity),
		ints:    pool.New[cell[int64]]("int payload", capacity),
		floats:  pool.New[cell[float64]]("float payload", capacity),
		strings: pool.New[cell[string]]("string payload", capacity),
		lists:   pool.New[cell[List]]("list payload", capacity),
		maps:    pool.New[cell[Map]]("map payload", capacity),
		funcs:   pool.New[cell[*Function]]("function payload", capacity),
	}
	for k := range h.handles {
		h.handles[k] = pool.New[Data](Kind(k).String()+" value", capacity)
	}
	return h
}

// New allocates an empty handle of the given kind. Payload storage is
// allocated on first write.
func (h *Heap) New(kind Kind, isConst bool, tok lexer.Token) *Data {
	self, d := h.handles[kind].Allocate()
	*d = Data{kind: kind, isConst: isConst, token: tok, heap: h, self: self}
	return d
}

// PoolStats reports the occupancy of one pool.
type PoolStats struct {
	Name string
	Used int
	Cap  int
}

// Stats returns the occupancy of every pool in the heap.
func (h *Heap) Stats() []PoolStats {
	var stats []PoolStats
	for _, p := range h.handles {
		stats = append(stats, PoolStats{p.Name(), p.Len(), p.Cap()})
	}
	stats = append(stats,
		PoolStats{h.bools.Name(), h.bools.Len(), h.bools.Cap()},
		PoolStats{h.ints.Name(), h.ints.Len(), h.ints.Cap()},
		PoolStats{h.floats.Name(), h.floats.Len(), h.floats.Cap()},
		PoolStats{h.strings.Name(), h.strings.Len(), h.strings.Cap()},
		PoolStats{h.lists.Name(), h.lists.Len(), h.lists.Cap()},
		PoolStats{h.maps.Name(), h.maps.Len(), h.maps.Cap()},
		PoolStats{h.funcs.Name(), h.funcs.Len(), h.funcs.Cap()},
	)
	return stats
}

// Live returns the number of Data handles currently allocated.
func (h *Heap) Live() int {
	n := 0
	for _, p := range h.handles {
		n += p.Len()
	}
	return n
}

// payloadOf returns the cell behind d, allocating a fresh one for an empty
// handle.
func payloadOf[T any](p *pool.Pool[cell[T]], d *Data) *cell[T] {
	if d.payload.IsZero() {
		h, c := p.Allocate()
		c.users = 1
		d.payload = h
		return c
	}
	return p.Get(d.payload)
}

// releaseCell drops one user of the cell at h and frees it when none remain.
func releaseCell[T any](p *pool.Pool[cell[T]], h pool.Handle, finalize func(*T)) {
	c := p.Get(h)
	c.users--
	if c.users > 0 {
		return
	}
	if finalize != nil {
		finalize(&c.value)
	}
	p.Free(h)
}

func retainCell[T any](p *pool.Pool[cell[T]], h pool.Handle) {
	p.Get(h).users++
}

func cellUsers[T any](p *pool.Pool[cell[T]], h pool.Handle) int {
	return p.Get(h).users
}
