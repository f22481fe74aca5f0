package runtime

import (
	"context"
	"io"

	"github.com/ajkachnic/bliss/pkg/token"
)

// Invoker calls a function value from inside a native function.
type Invoker func(fn Value, args []Value) (Value, error)

// NativeCallContext is what a native function sees of the invocation that
// called it.
type NativeCallContext struct {
	Context context.Context
	Pos     token.Position
	Out     io.Writer
	Atoms   *AtomTable
	invoke  Invoker
}

func NewNativeCallContext(ctx context.Context, pos token.Position, out io.Writer, atoms *AtomTable, invoke Invoker) *NativeCallContext {
	return &NativeCallContext{Context: ctx, Pos: pos, Out: out, Atoms: atoms, invoke: invoke}
}

// Call invokes fn with args on the calling invocation, so depth limits and
// cancellation still apply.
func (c *NativeCallContext) Call(fn Value, args ...Value) (Value, error) {
	if c.invoke == nil {
		return nil, Errorf(HostError, c.Pos, "callbacks are not available here")
	}
	return c.invoke(fn, args)
}

// TypeError is a convenience for argument checks.
func (c *NativeCallContext) TypeError(expected string, actual Value) error {
	return NewTypeError(c.Pos, expected, actual)
}

// Atom interns name in the invocation's atom table.
func (c *NativeCallContext) Atom(name string) *AtomValue {
	if c.Atoms == nil {
		return DefaultAtoms().Intern(name)
	}
	return c.Atoms.Intern(name)
}

// NativeModule builds a module from native functions keyed by their names.
func NativeModule(path string, fns ...*NativeFunctionValue) *ModuleValue {
	exports := make(map[string]Value, len(fns))
	for _, fn := range fns {
		exports[fn.Name] = fn
	}
	return NewModule(path, exports)
}
