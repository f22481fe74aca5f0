package runtime

import (
	"sync"
	"sync/atomic"
)

// Heap hands out frame environments and takes back the ones no closure
// captured. Captured frames are left to the garbage collector, which also
// reclaims closure/environment cycles once they become unreachable.
type Heap struct {
	pool     sync.Pool
	allocs   atomic.Int64
	reuses   atomic.Int64
	releases atomic.Int64
}

// HeapStats is a snapshot of frame traffic.
type HeapStats struct {
	Allocated int64
	Reused    int64
	Released  int64
}

func NewHeap() *Heap {
	return &Heap{}
}

// Frame returns an empty environment with size slots under parent.
func (h *Heap) Frame(parent *Environment, size int) *Environment {
	if env, ok := h.pool.Get().(*Environment); ok {
		h.reuses.Add(1)
		env.reset(parent, size)
		return env
	}
	h.allocs.Add(1)
	return NewEnvironment(parent, size)
}

// Release returns env to the pool unless a closure captured it. The caller
// must hold the only reference to an uncaptured frame.
func (h *Heap) Release(env *Environment) bool {
	if env == nil || env.captured {
		return false
	}
	env.reset(nil, 0)
	h.releases.Add(1)
	h.pool.Put(env)
	return true
}

func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Allocated: h.allocs.Load(),
		Reused:    h.reuses.Load(),
		Released:  h.releases.Load(),
	}
}
