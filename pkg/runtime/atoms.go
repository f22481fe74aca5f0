package runtime

import "sync"

// AtomTable interns atoms by name. Atoms are never evicted, so pointer
// identity is stable for the life of the table.
type AtomTable struct {
	mu    sync.RWMutex
	atoms map[string]*AtomValue
}

func NewAtomTable() *AtomTable {
	return &AtomTable{atoms: make(map[string]*AtomValue)}
}

// Intern returns the unique atom for name, creating it on first use.
func (t *AtomTable) Intern(name string) *AtomValue {
	t.mu.RLock()
	atom, ok := t.atoms[name]
	t.mu.RUnlock()
	if ok {
		return atom
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if atom, ok := t.atoms[name]; ok {
		return atom
	}
	atom = &AtomValue{Name: name}
	t.atoms[name] = atom
	return atom
}

// Lookup returns the atom for name without creating it.
func (t *AtomTable) Lookup(name string) (*AtomValue, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	atom, ok := t.atoms[name]
	return atom, ok
}

func (t *AtomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.atoms)
}

// DefaultAtoms is the process-wide table used when a host does not supply
// its own.
var DefaultAtoms = sync.OnceValue(NewAtomTable)
