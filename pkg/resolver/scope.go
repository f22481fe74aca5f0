package resolver

import (
	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/token"
)

// declaration is one introduction of a name. Every declaration owns a
// fresh slot in its function frame, so a slot is written exactly once.
type declaration struct {
	name string
	slot int
	kind ast.BindingKind
	pos  token.Position
	// seq orders declarations across the whole session.
	seq int
	// arity is the parameter count when the name was bound directly to a
	// function literal, otherwise -1.
	arity int
}

// scope is one lexical level: a function body, block, or match clause.
type scope struct {
	parent *scope
	frame  *frame
	names  map[string][]*declaration
}

func (s *scope) latest(name string) *declaration {
	decls := s.names[name]
	if len(decls) == 0 {
		return nil
	}
	return decls[len(decls)-1]
}

// visible returns the last declaration of name made at or before limit.
// When every declaration comes later, the first one is a forward reference.
func (s *scope) visible(name string, limit int) *declaration {
	decls := s.names[name]
	if len(decls) == 0 {
		return nil
	}
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].seq <= limit {
			return decls[i]
		}
	}
	return decls[0]
}

// frame tracks slot allocation for one function activation. Nested
// function bodies are queued and resolved once the frame's own
// declarations are complete.
type frame struct {
	parent   *frame
	slots    int
	deferred []func()
	topLevel bool
	// cutoff is the last declaration sequence the function's body sees in
	// the enclosing scopes: everything declared by the end of the statement
	// that holds the function literal.
	cutoff int
}

func (f *frame) allocate() int {
	slot := f.slots
	f.slots++
	return slot
}

func (f *frame) drain() {
	for len(f.deferred) > 0 {
		job := f.deferred[0]
		f.deferred = f.deferred[1:]
		job()
	}
}

func newScope(parent *scope, fr *frame) *scope {
	return &scope{parent: parent, frame: fr, names: make(map[string][]*declaration)}
}
