// Package pool provides the kernel's allocation and coordination
// primitives: fixed-size mini-pool arenas for short-lived match state, a
// flat-combining queue that serializes small commutative updates to a
// shared structure, and an idempotent compute-once cache for pattern and
// symbolic-form compilation results.
package pool

import (
	"sync"
	"sync/atomic"
)

// miniPoolSize is the slot count of one arena.
const miniPoolSize = 1024

// poolState tracks a mini-pool's lifecycle.
type poolState uint32

const (
	// stateReactivate: has free slots ready for allocation.
	stateReactivate poolState = iota
	// stateExhausted: every slot is handed out.
	stateExhausted
	// stateFree: every slot has been returned; the arena is parked on the
	// shared queue awaiting reuse or collection.
	stateFree
)

// slot is one allocatable cell. The free list is intrusive: a free slot's
// next field indexes the next free slot in the same arena, -1 terminates.
type slot[T any] struct {
	value T
	next  int32
}

// miniPool is a 1024-slot arena. All state transitions happen under mu;
// the critical sections are a handful of instructions (pop or push one
// free-list entry and maybe flip the state word).
type miniPool[T any] struct {
	mu       sync.Mutex
	slots    [miniPoolSize]slot[T]
	freeHead int32
	inUse    int32
	state    atomic.Uint32
}

func newMiniPool[T any]() *miniPool[T] {
	p := &miniPool[T]{}
	for i := range p.slots {
		p.slots[i].next = int32(i) + 1
	}
	p.slots[miniPoolSize-1].next = -1
	p.freeHead = 0
	p.state.Store(uint32(stateReactivate))
	return p
}

// get pops the free-list head. ok is false when the arena is exhausted.
func (p *miniPool[T]) get() (h Handle[T], ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freeHead < 0 {
		p.state.Store(uint32(stateExhausted))
		return Handle[T]{}, false
	}
	idx := p.freeHead
	p.freeHead = p.slots[idx].next
	p.inUse++
	if p.freeHead < 0 {
		p.state.Store(uint32(stateExhausted))
	}
	return Handle[T]{pool: p, index: idx}, true
}

// put pushes a slot back onto the free list, resetting its value so the
// next get sees a zero T (every returned slot is initialized exactly once
// per usage).
func (p *miniPool[T]) put(idx int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	p.slots[idx].value = zero
	p.slots[idx].next = p.freeHead
	p.freeHead = idx
	p.inUse--
	if p.inUse == 0 {
		p.state.Store(uint32(stateFree))
	} else {
		p.state.Store(uint32(stateReactivate))
	}
}

// Handle is a live reference into a mini-pool slot. Value is valid until
// Release; using a Handle after Release is a caller bug, exactly like
// using freed memory.
type Handle[T any] struct {
	pool  *miniPool[T]
	index int32
}

// Value returns the slot's contents for in-place use.
func (h Handle[T]) Value() *T { return &h.pool.slots[h.index].value }

// Release returns the slot to its arena.
func (h Handle[T]) Release() { h.pool.put(h.index) }

// Allocator hands out slots of T from a pile of mini-pools. Each
// allocating goroutine works a pile picked by round-robin sharding (Go
// offers no thread-local storage, so piles approximate the per-thread
// piles of the original design; the shared queue below them is the same).
type Allocator[T any] struct {
	shards []pile[T]
	next   atomic.Uint32

	// sharedMu guards the queue of parked stateFree arenas any pile may
	// pull from before allocating a brand-new one.
	sharedMu sync.Mutex
	shared   []*miniPool[T]
}

type pile[T any] struct {
	mu      sync.Mutex
	current *miniPool[T]
}

// NewAllocator builds an Allocator with the given shard count (piles).
func NewAllocator[T any](shards int) *Allocator[T] {
	if shards < 1 {
		shards = 1
	}
	return &Allocator[T]{shards: make([]pile[T], shards)}
}

// Get allocates one slot, pulling a fresh mini-pool from the shared queue
// (or the heap) when the pile's current arena is exhausted.
func (a *Allocator[T]) Get() Handle[T] {
	shard := &a.shards[a.next.Add(1)%uint32(len(a.shards))]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	for {
		if shard.current != nil {
			if h, ok := shard.current.get(); ok {
				return h
			}
			// Exhausted arenas go back to the shared queue; they become
			// allocatable again as their outstanding handles are released.
			a.park(shard.current)
		}
		shard.current = a.pullShared()
	}
}

func (a *Allocator[T]) pullShared() *miniPool[T] {
	a.sharedMu.Lock()
	defer a.sharedMu.Unlock()
	for i, p := range a.shared {
		if poolState(p.state.Load()) != stateExhausted {
			a.shared = append(a.shared[:i], a.shared[i+1:]...)
			return p
		}
	}
	return newMiniPool[T]()
}

// park returns an arena to the shared queue once a pile is done with it.
// The allocator calls this implicitly when replacing an exhausted arena;
// exhausted arenas become eligible again as their slots are released.
func (a *Allocator[T]) park(p *miniPool[T]) {
	a.sharedMu.Lock()
	a.shared = append(a.shared, p)
	a.sharedMu.Unlock()
}
