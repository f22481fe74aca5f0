package runtime

// Environment is one function frame: a fixed set of slots plus the frame
// of the enclosing function. Slot numbers come from the resolver.
type Environment struct {
	slots  []Value
	parent *Environment
	// captured is set once a closure holds this frame; captured frames are
	// never returned to the heap.
	captured bool
}

// NewEnvironment creates a frame with size empty slots nested under parent.
func NewEnvironment(parent *Environment, size int) *Environment {
	return &Environment{slots: make([]Value, size), parent: parent}
}

// Parent exposes the lexical parent (nil for a program frame).
func (e *Environment) Parent() *Environment {
	return e.parent
}

func (e *Environment) Size() int { return len(e.slots) }

// Get returns the value in slot, or nil when the slot has not been written.
func (e *Environment) Get(slot int) Value {
	if slot < 0 || slot >= len(e.slots) {
		return nil
	}
	return e.slots[slot]
}

func (e *Environment) Set(slot int, v Value) {
	e.slots[slot] = v
}

// Ancestor walks depth frames outward.
func (e *Environment) Ancestor(depth int) *Environment {
	env := e
	for i := 0; i < depth && env != nil; i++ {
		env = env.parent
	}
	return env
}

// Grow extends the frame to hold at least size slots. Interactive sessions
// grow their top-level frame as new declarations arrive.
func (e *Environment) Grow(size int) {
	if size <= len(e.slots) {
		return
	}
	grown := make([]Value, size)
	copy(grown, e.slots)
	e.slots = grown
}

// Capture marks the frame as referenced by a closure.
func (e *Environment) Capture() { e.captured = true }

func (e *Environment) Captured() bool { return e.captured }

func (e *Environment) reset(parent *Environment, size int) {
	if cap(e.slots) >= size {
		e.slots = e.slots[:size]
		clear(e.slots)
	} else {
		e.slots = make([]Value, size)
	}
	e.parent = parent
	e.captured = false
}
