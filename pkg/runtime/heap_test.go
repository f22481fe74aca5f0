package runtime

import (
	goruntime "runtime"
	"sync"
	"testing"
	"weak"

	"github.com/ajkachnic/bliss/pkg/ast"
)

func TestAtomTableInternsConcurrently(t *testing.T) {
	atoms := NewAtomTable()
	const workers = 16
	results := make([]*AtomValue, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = atoms.Intern("ready")
		}(i)
	}
	wg.Wait()
	for _, atom := range results[1:] {
		if atom != results[0] {
			t.Fatalf("expected one interned atom")
		}
	}
	if atoms.Len() != 1 {
		t.Fatalf("expected 1 atom, got %d", atoms.Len())
	}
	if DefaultAtoms() != DefaultAtoms() {
		t.Fatalf("default atom table should be created once")
	}
}

func TestHeapReleasesOnlyUncapturedFrames(t *testing.T) {
	heap := NewHeap()
	parent := NewEnvironment(nil, 1)
	frame := heap.Frame(parent, 3)
	if frame.Size() != 3 || frame.Parent() != parent {
		t.Fatalf("unexpected frame shape")
	}
	frame.Set(0, Number(1))
	if !heap.Release(frame) {
		t.Fatalf("uncaptured frame should be released")
	}

	captured := heap.Frame(parent, 2)
	captured.Set(1, String("kept"))
	captured.Capture()
	if heap.Release(captured) {
		t.Fatalf("captured frame must not be released")
	}
	if v := captured.Get(1); !Equal(v, String("kept")) {
		t.Fatalf("captured frame lost its slot, got %v", v)
	}

	next := heap.Frame(nil, 2)
	if next.Get(0) != nil || next.Get(1) != nil || next.Parent() != nil || next.Captured() {
		t.Fatalf("frames must start empty")
	}
	stats := heap.Stats()
	if stats.Released != 1 || stats.Allocated+stats.Reused != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestEnvironmentAncestorAndGrow(t *testing.T) {
	root := NewEnvironment(nil, 1)
	mid := NewEnvironment(root, 1)
	leaf := NewEnvironment(mid, 1)
	if leaf.Ancestor(0) != leaf || leaf.Ancestor(2) != root || leaf.Ancestor(3) != nil {
		t.Fatalf("unexpected ancestor chain")
	}
	root.Set(0, True)
	root.Grow(4)
	if root.Size() != 4 || root.Get(0) != True || root.Get(3) != nil {
		t.Fatalf("grow must keep existing slots")
	}
	if root.Get(10) != nil {
		t.Fatalf("out of range slot should read as empty")
	}
}

// makeCycle builds a frame whose slot holds a closure over that same frame
// and returns only a weak reference to it.
func makeCycle() weak.Pointer[Environment] {
	env := NewEnvironment(nil, 1)
	fn := ast.NewFunctionLiteral(nil, ast.NewNullLiteral())
	env.Capture()
	env.Set(0, &ClosureValue{Function: fn, Env: env})
	return weak.Make(env)
}

func TestClosureEnvironmentCycleIsReclaimed(t *testing.T) {
	ref := makeCycle()
	for i := 0; i < 5 && ref.Value() != nil; i++ {
		goruntime.GC()
	}
	if ref.Value() != nil {
		t.Fatalf("unreachable closure/environment cycle was not reclaimed")
	}
}
