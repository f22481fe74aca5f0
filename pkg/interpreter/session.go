package interpreter

import (
	"context"

	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/parser"
	"github.com/ajkachnic/bliss/pkg/resolver"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// Session evaluates successive inputs against one top-level scope, the way
// an interactive prompt does. A Session is not safe for concurrent use.
type Session struct {
	interp  *Interpreter
	name    string
	scope   *resolver.Session
	env     *runtime.Environment
	globals map[string]int
}

func (i *Interpreter) NewSession(name string) *Session {
	return &Session{
		interp: i,
		name:   name,
		scope:  resolver.NewSession(resolver.Options{Prelude: i.preludeNames}),
		env:    runtime.NewEnvironment(nil, 0),
	}
}

// Eval runs one input. Warnings are returned even when evaluation succeeds;
// static errors come back as a *diagnostics.Error.
func (s *Session) Eval(ctx context.Context, src string) (runtime.Value, diagnostics.List, error) {
	prog, diags := parser.ParseProgram(s.name, src)
	if diags.HasErrors() {
		return nil, diags, diags.Err(s.name)
	}
	diags = append(diags, s.scope.Resolve(prog)...)
	diags.Sort()
	if diags.HasErrors() {
		return nil, diags, diags.Err(s.name)
	}
	s.globals = prog.Globals
	s.env.Grow(prog.FrameSize)
	m := s.interp.newMachine(ctx, s.name)
	v, err := m.runProgram(prog, s.env)
	return v, diags.Warnings(), err
}

// Lookup returns the current value of a top-level name.
func (s *Session) Lookup(name string) (runtime.Value, bool) {
	slot, ok := s.globals[name]
	if !ok {
		return nil, false
	}
	v := s.env.Get(slot)
	return v, v != nil
}
