package interpreter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ajkachnic/bliss/pkg/runtime"
)

// PreludePath is the module holding the builtins every program sees.
const PreludePath = "std:prelude"

func (i *Interpreter) installPrelude() {
	fns := []*runtime.NativeFunctionValue{
		{Name: "head", Arity: 1, Impl: preludeHead},
		{Name: "tail", Arity: 1, Impl: preludeTail},
		{Name: "init", Arity: 1, Impl: preludeInit},
		{Name: "last", Arity: 1, Impl: preludeLast},
		{Name: "len", Arity: 1, Impl: preludeLen},
		{Name: "log", Arity: 0, Variadic: true, Impl: preludeLog},
		{Name: "get", Arity: 2, Impl: preludeGet},
		{Name: "at", Arity: 2, Impl: preludeAt},
		{Name: "keys", Arity: 1, Impl: preludeKeys},
		{Name: "push", Arity: 2, Impl: preludePush},
		{Name: "str", Arity: 1, Impl: preludeStr},
		{Name: "type", Arity: 1, Impl: preludeType},
		{Name: "list", Arity: 1, Impl: preludeList},
	}
	i.prelude = make([]runtime.Value, len(fns))
	i.preludeNames = make([]string, len(fns))
	for idx, fn := range fns {
		i.prelude[idx] = fn
		i.preludeNames[idx] = fn.Name
	}
	i.registry.RegisterModule(runtime.NativeModule(PreludePath, fns...))
}

func sequenceArg(ctx *runtime.NativeCallContext, v runtime.Value) ([]runtime.Value, error) {
	elems, ok := sequence(v)
	if !ok {
		return nil, ctx.TypeError("list or tuple", v)
	}
	return elems, nil
}

// sameKind wraps elems in the collection kind of like.
func sameKind(like runtime.Value, elems []runtime.Value) runtime.Value {
	if _, ok := like.(*runtime.TupleValue); ok {
		return runtime.NewTuple(elems...)
	}
	return runtime.NewList(elems...)
}

func preludeHead(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := sequenceArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return runtime.Null, nil
	}
	return elems[0], nil
}

func preludeTail(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := sequenceArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return sameKind(args[0], nil), nil
	}
	return sameKind(args[0], append([]runtime.Value(nil), elems[1:]...)), nil
}

func preludeInit(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := sequenceArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return sameKind(args[0], nil), nil
	}
	return sameKind(args[0], append([]runtime.Value(nil), elems[:len(elems)-1]...)), nil
}

func preludeLast(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := sequenceArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return runtime.Null, nil
	}
	return elems[len(elems)-1], nil
}

func preludeLen(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case *runtime.ListValue:
		return runtime.Number(float64(len(v.Elements))), nil
	case *runtime.TupleValue:
		return runtime.Number(float64(len(v.Elements))), nil
	case runtime.StringValue:
		return runtime.Number(float64(utf8.RuneCountInString(v.Val))), nil
	case *runtime.RecordValue:
		return runtime.Number(float64(v.Len())), nil
	}
	return nil, ctx.TypeError("list, tuple, string or record", args[0])
}

func preludeLog(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = runtime.ToString(arg)
	}
	if _, err := fmt.Fprintln(ctx.Out, strings.Join(parts, " ")); err != nil {
		return nil, err
	}
	return runtime.Null, nil
}

func preludeGet(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	rec, ok := args[0].(*runtime.RecordValue)
	if !ok {
		return nil, ctx.TypeError("record", args[0])
	}
	var key runtime.RecordKey
	switch k := args[1].(type) {
	case runtime.StringValue:
		key = runtime.StringKey(k.Val)
	case *runtime.AtomValue:
		key = runtime.AtomKey(k)
	default:
		return nil, ctx.TypeError("string or atom key", args[1])
	}
	if v, ok := rec.Get(key); ok {
		return v, nil
	}
	return runtime.Null, nil
}

func preludeAt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := sequenceArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	n, ok := args[1].(runtime.NumberValue)
	if !ok {
		return nil, ctx.TypeError("number", args[1])
	}
	idx := int(n.Val)
	if float64(idx) != n.Val || idx < 0 || idx >= len(elems) {
		return runtime.Null, nil
	}
	return elems[idx], nil
}

func preludeKeys(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	rec, ok := args[0].(*runtime.RecordValue)
	if !ok {
		return nil, ctx.TypeError("record", args[0])
	}
	keys := rec.Keys()
	out := make([]runtime.Value, len(keys))
	for idx, key := range keys {
		out[idx] = key.Value()
	}
	return runtime.NewList(out...), nil
}

func preludePush(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, ctx.TypeError("list", args[0])
	}
	elems := make([]runtime.Value, 0, len(list.Elements)+1)
	elems = append(elems, list.Elements...)
	return runtime.NewList(append(elems, args[1])...), nil
}

func preludeStr(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.String(runtime.ToString(args[0])), nil
}

func preludeType(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	name := runtime.TypeName(args[0])
	if args[0].Kind() == runtime.KindNativeFunction {
		name = runtime.KindClosure.String()
	}
	return ctx.Atom(name), nil
}

// preludeList converts tuples to lists and records to lists of
// [key, value] tuples.
func preludeList(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case *runtime.ListValue:
		return v, nil
	case *runtime.TupleValue:
		return runtime.NewList(append([]runtime.Value(nil), v.Elements...)...), nil
	case *runtime.RecordValue:
		keys := v.Keys()
		out := make([]runtime.Value, len(keys))
		for idx, key := range keys {
			fv, _ := v.Get(key)
			out[idx] = runtime.NewTuple(key.Value(), fv)
		}
		return runtime.NewList(out...), nil
	}
	return nil, ctx.TypeError("list, tuple or record", args[0])
}
