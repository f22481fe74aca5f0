package interpreter

import (
	"fmt"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/runtime"
	"github.com/ajkachnic/bliss/pkg/token"
)

// apply calls callee with args. A tail call from inside a function reuses
// the caller's frame instead of pushing a new one.
func (m *machine) apply(callee runtime.Value, args []runtime.Value, pos token.Position, tail bool) error {
	switch fn := callee.(type) {
	case *runtime.ClosureValue:
		if want := len(fn.Function.Params); want != len(args) {
			return runtime.NewArityError(pos, fn.Name(), countArgs(want), len(args))
		}
		if top := &m.frames[len(m.frames)-1]; tail && top.fn != nil {
			m.interp.heap.Release(top.env)
			top.fn = fn
			top.env = m.interp.heap.Frame(fn.Env, fn.Function.FrameSize)
			top.pos = pos
			m.unwindTo(top)
			return m.enter(fn, args)
		}
		if err := m.pushFrame(fn, pos); err != nil {
			return err
		}
		return m.enter(fn, args)
	case *runtime.NativeFunctionValue:
		return m.callNative(fn, args, pos)
	}
	return runtime.NewTypeError(pos, "function", callee)
}

func (m *machine) pushFrame(fn *runtime.ClosureValue, pos token.Position) error {
	if m.depth >= m.interp.maxDepth {
		return runtime.Errorf(runtime.StackOverflowError, pos, "maximum call depth of %d exceeded calling %s", m.interp.maxDepth, fn.Name())
	}
	m.push(task{op: opFrameReturn})
	m.frames = append(m.frames, callFrame{
		fn:        fn,
		env:       m.interp.heap.Frame(fn.Env, fn.Function.FrameSize),
		pos:       pos,
		taskBase:  len(m.tasks),
		valueBase: len(m.values),
	})
	m.depth++
	if m.depth > m.peak {
		m.peak = m.depth
	}
	return nil
}

// enter binds the parameters in the current frame and schedules the body,
// after any parameter guards.
func (m *machine) enter(fn *runtime.ClosureValue, args []runtime.Value) error {
	env := m.env()
	var guards []ast.Expression
	for idx, param := range fn.Function.Params {
		if slot, ok := simpleBinding(param); ok {
			env.Set(slot, args[idx])
			continue
		}
		var matched bool
		guards, matched = m.unify(param, args[idx], guards)
		if !matched {
			return runtime.NewMatchError(param.Position(), args[idx])
		}
	}
	if len(guards) == 0 {
		m.pushEval(fn.Function.Body)
		return nil
	}
	return m.startGuards(&guardState{
		guards:  guards,
		subject: runtime.NewTuple(args...),
		pos:     fn.Function.Position(),
		body:    fn.Function.Body,
	})
}

func (m *machine) callNative(fn *runtime.NativeFunctionValue, args []runtime.Value, pos token.Position) error {
	if !fn.AcceptsArgs(len(args)) {
		want := countArgs(fn.Arity)
		if fn.Variadic {
			want = "at least " + want
		}
		return runtime.NewArityError(pos, fn.Name, want, len(args))
	}
	ctx := runtime.NewNativeCallContext(m.ctx, pos, m.interp.out, m.interp.atoms, m.invoke)
	v, err := fn.Impl(ctx, args)
	if err != nil {
		return runtime.AsError(err, pos)
	}
	if v == nil {
		v = runtime.Null
	}
	m.pushValue(v)
	return nil
}

// invoke runs fn to completion on this machine. Natives use it to call
// back into the program, and Interpreter.Call uses it as the entry point.
func (m *machine) invoke(fn runtime.Value, args []runtime.Value) (runtime.Value, error) {
	stop, values, frames, depth := len(m.tasks), len(m.values), len(m.frames), m.depth
	restore := func() {
		m.tasks = m.tasks[:stop]
		clear(m.values[values:])
		m.values = m.values[:values]
		m.frames = m.frames[:frames]
		m.depth = depth
	}

	var err error
	switch f := fn.(type) {
	case *runtime.ClosureValue:
		if want := len(f.Function.Params); want != len(args) {
			return nil, runtime.NewArityError(token.Position{}, f.Name(), countArgs(want), len(args))
		}
		if err = m.pushFrame(f, token.Position{}); err == nil {
			if err = m.enter(f, args); err == nil {
				err = m.run(stop)
			}
		}
	case *runtime.NativeFunctionValue:
		err = m.callNative(f, args, token.Position{})
	default:
		return nil, runtime.NewTypeError(token.Position{}, "function", fn)
	}
	if err != nil {
		restore()
		return nil, err
	}
	return m.pop(), nil
}

func countArgs(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}
