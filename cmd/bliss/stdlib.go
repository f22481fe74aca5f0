package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// registerStdlib installs the native modules the CLI offers to programs.
func registerStdlib(registry *modules.Registry) {
	registry.RegisterModule(runtime.NativeModule("std:io",
		&runtime.NativeFunctionValue{Name: "print", Variadic: true, Impl: ioPrint},
		&runtime.NativeFunctionValue{Name: "println", Variadic: true, Impl: ioPrintln},
	))

	mathModule := runtime.NativeModule("std:math",
		&runtime.NativeFunctionValue{Name: "floor", Arity: 1, Impl: mathUnary(math.Floor)},
		&runtime.NativeFunctionValue{Name: "sqrt", Arity: 1, Impl: mathUnary(math.Sqrt)},
		&runtime.NativeFunctionValue{Name: "max", Arity: 1, Variadic: true, Impl: mathFold(math.Max)},
		&runtime.NativeFunctionValue{Name: "min", Arity: 1, Variadic: true, Impl: mathFold(math.Min)},
	)
	exports := map[string]runtime.Value{"pi": runtime.Number(math.Pi)}
	for _, name := range mathModule.Names() {
		fn, _ := mathModule.Export(name)
		exports[name] = fn
	}
	registry.RegisterModule(runtime.NewModule(mathModule.Path, exports))
}

func joinArgs(args []runtime.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = runtime.ToString(arg)
	}
	return strings.Join(parts, " ")
}

func ioPrint(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	_, err := fmt.Fprint(ctx.Out, joinArgs(args))
	return runtime.Null, err
}

func ioPrintln(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	_, err := fmt.Fprintln(ctx.Out, joinArgs(args))
	return runtime.Null, err
}

func mathUnary(fn func(float64) float64) runtime.NativeFunc {
	return func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		n, ok := args[0].(runtime.NumberValue)
		if !ok {
			return nil, ctx.TypeError("number", args[0])
		}
		return runtime.Number(fn(n.Val)), nil
	}
}

func mathFold(fn func(a, b float64) float64) runtime.NativeFunc {
	return func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		var acc float64
		for i, arg := range args {
			n, ok := arg.(runtime.NumberValue)
			if !ok {
				return nil, ctx.TypeError("number", arg)
			}
			if i == 0 {
				acc = n.Val
				continue
			}
			acc = fn(acc, n.Val)
		}
		return runtime.Number(acc), nil
	}
}
