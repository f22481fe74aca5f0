package interpreter

import (
	"context"
	"io"
	"os"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/parser"
	"github.com/ajkachnic/bliss/pkg/resolver"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// DefaultMaxCallDepth bounds non-tail recursion when Options leaves it unset.
const DefaultMaxCallDepth = 10000

// Options configures an Interpreter. Zero values select defaults.
type Options struct {
	// MaxCallDepth is the number of nested non-tail calls allowed before a
	// StackOverflowError.
	MaxCallDepth int
	// Stdout receives output of the log builtin.
	Stdout   io.Writer
	Registry *modules.Registry
	Atoms    *runtime.AtomTable
	Heap     *runtime.Heap
	// Sources enables imports of source modules. Without it only registered
	// modules can be imported.
	Sources SourceLocator
}

// Interpreter evaluates resolved programs. It is safe for concurrent use;
// every Run and Call gets its own stacks and frames.
type Interpreter struct {
	maxDepth int
	out      io.Writer
	registry *modules.Registry
	atoms    *runtime.AtomTable
	heap     *runtime.Heap

	prelude      []runtime.Value
	preludeNames []string
}

func New(opts Options) *Interpreter {
	i := &Interpreter{
		maxDepth: opts.MaxCallDepth,
		out:      opts.Stdout,
		registry: opts.Registry,
		atoms:    opts.Atoms,
		heap:     opts.Heap,
	}
	if i.maxDepth <= 0 {
		i.maxDepth = DefaultMaxCallDepth
	}
	if i.out == nil {
		i.out = os.Stdout
	}
	if i.registry == nil {
		i.registry = modules.NewRegistry()
	}
	if i.atoms == nil {
		i.atoms = runtime.DefaultAtoms()
	}
	if i.heap == nil {
		i.heap = runtime.NewHeap()
	}
	i.installPrelude()
	if opts.Sources != nil {
		i.registry.AddFinder(sourceFinder{interp: i, sources: opts.Sources})
	}
	return i
}

// Registry returns the module registry imports are resolved through.
func (i *Interpreter) Registry() *modules.Registry { return i.registry }

// Atoms returns the table atoms are interned in.
func (i *Interpreter) Atoms() *runtime.AtomTable { return i.atoms }

// Heap returns the pool frame environments are drawn from.
func (i *Interpreter) Heap() *runtime.Heap { return i.heap }

// MaxCallDepth is the deepest non-tail call nesting allowed.
func (i *Interpreter) MaxCallDepth() int { return i.maxDepth }

// PreludeNames lists the builtins that are in scope in every program.
func (i *Interpreter) PreludeNames() []string {
	return append([]string(nil), i.preludeNames...)
}

// Program is a parsed and resolved source file, ready to run any number of
// times.
type Program struct {
	Name     string
	AST      *ast.Program
	Warnings diagnostics.List
}

// Load lexes, parses and resolves src. Static errors come back as a
// *diagnostics.Error holding every diagnostic found.
func (i *Interpreter) Load(name, src string) (*Program, error) {
	prog, diags := parser.ParseProgram(name, src)
	if diags.HasErrors() {
		return nil, diags.Err(name)
	}
	diags = append(diags, resolver.Resolve(prog, resolver.Options{Prelude: i.preludeNames})...)
	diags.Sort()
	if diags.HasErrors() {
		return nil, diags.Err(name)
	}
	return &Program{Name: name, AST: prog, Warnings: diags.Warnings()}, nil
}

// Result is the outcome of running a program.
type Result struct {
	// Value is the value of the last expression statement, or the argument
	// of a top-level return.
	Value runtime.Value
	// Globals holds the final value of every top-level binding.
	Globals map[string]runtime.Value
	// PeakDepth is the deepest non-tail call nesting reached.
	PeakDepth int
}

// Run evaluates prog in a fresh top-level environment.
func (i *Interpreter) Run(ctx context.Context, prog *Program) (*Result, error) {
	env := runtime.NewEnvironment(nil, prog.AST.FrameSize)
	m := i.newMachine(ctx, prog.Name)
	value, err := m.runProgram(prog.AST, env)
	if err != nil {
		return nil, err
	}
	globals := make(map[string]runtime.Value, len(prog.AST.Globals))
	for name, slot := range prog.AST.Globals {
		if v := env.Get(slot); v != nil {
			globals[name] = v
		}
	}
	return &Result{Value: value, Globals: globals, PeakDepth: m.peak}, nil
}

// Exec loads and runs src in one step.
func (i *Interpreter) Exec(ctx context.Context, name, src string) (*Result, error) {
	prog, err := i.Load(name, src)
	if err != nil {
		return nil, err
	}
	return i.Run(ctx, prog)
}

// Call invokes a function value from the host.
func (i *Interpreter) Call(ctx context.Context, fn runtime.Value, args ...runtime.Value) (runtime.Value, error) {
	m := i.newMachine(ctx, "")
	return m.invoke(fn, args)
}
