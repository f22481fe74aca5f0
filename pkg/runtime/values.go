package runtime

import (
	"sort"

	"github.com/ajkachnic/bliss/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindAtom
	KindList
	KindTuple
	KindRecord
	KindClosure
	KindNativeFunction
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindAtom:
		return "atom"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	case KindClosure:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Value is implemented only by the types in this file, so every switch over
// values can be exhaustive.
type Value interface {
	Kind() Kind
	isValue()
}

//----------------------------------------------------------------------------
// Scalars

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }
func (NullValue) isValue()   {}

// Null is the single null value.
var Null Value = NullValue{}

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }
func (BoolValue) isValue()   {}

var (
	True  Value = BoolValue{Val: true}
	False Value = BoolValue{Val: false}
)

// Bool returns the shared boolean value for b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

type NumberValue struct {
	Val float64
}

func (NumberValue) Kind() Kind { return KindNumber }
func (NumberValue) isValue()   {}

func Number(f float64) Value { return NumberValue{Val: f} }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }
func (StringValue) isValue()   {}

func String(s string) Value { return StringValue{Val: s} }

// AtomValue is an interned symbol. Two atoms are equal exactly when they are
// the same pointer; obtain them from an AtomTable.
type AtomValue struct {
	Name string
}

func (*AtomValue) Kind() Kind { return KindAtom }
func (*AtomValue) isValue()   {}

//----------------------------------------------------------------------------
// Collections

// ListValue is an immutable ordered sequence.
type ListValue struct {
	Elements []Value
}

func (*ListValue) Kind() Kind { return KindList }
func (*ListValue) isValue()   {}

func NewList(elements ...Value) *ListValue {
	return &ListValue{Elements: elements}
}

// TupleValue is a fixed-arity sequence.
type TupleValue struct {
	Elements []Value
}

func (*TupleValue) Kind() Kind { return KindTuple }
func (*TupleValue) isValue()   {}

func NewTuple(elements ...Value) *TupleValue {
	return &TupleValue{Elements: elements}
}

// RecordKey is either an atom key or a string key.
type RecordKey struct {
	Atom *AtomValue
	Str  string
}

func StringKey(s string) RecordKey       { return RecordKey{Str: s} }
func AtomKey(a *AtomValue) RecordKey     { return RecordKey{Atom: a} }
func (k RecordKey) IsAtom() bool         { return k.Atom != nil }
func (k RecordKey) Value() Value {
	if k.Atom != nil {
		return k.Atom
	}
	return StringValue{Val: k.Str}
}

func (k RecordKey) String() string {
	if k.Atom != nil {
		return ":" + k.Atom.Name
	}
	return k.Str
}

// RecordValue maps keys to values and remembers insertion order. Records
// are immutable once built.
type RecordValue struct {
	keys   []RecordKey
	fields map[RecordKey]Value
}

func (*RecordValue) Kind() Kind { return KindRecord }
func (*RecordValue) isValue()   {}

func (r *RecordValue) Get(key RecordKey) (Value, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *RecordValue) Keys() []RecordKey {
	out := make([]RecordKey, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *RecordValue) Len() int { return len(r.keys) }

// RecordBuilder assembles a record. Setting an existing key replaces its
// value and keeps its original position.
type RecordBuilder struct {
	rec *RecordValue
}

func NewRecordBuilder(size int) *RecordBuilder {
	return &RecordBuilder{rec: &RecordValue{
		keys:   make([]RecordKey, 0, size),
		fields: make(map[RecordKey]Value, size),
	}}
}

func (b *RecordBuilder) Set(key RecordKey, v Value) *RecordBuilder {
	if _, exists := b.rec.fields[key]; !exists {
		b.rec.keys = append(b.rec.keys, key)
	}
	b.rec.fields[key] = v
	return b
}

// Build returns the record. The builder must not be used afterwards.
func (b *RecordBuilder) Build() *RecordValue {
	rec := b.rec
	b.rec = nil
	return rec
}

//----------------------------------------------------------------------------
// Functions and modules

// ClosureValue pairs a function literal with the environment it was
// created in.
type ClosureValue struct {
	Function *ast.FunctionLiteral
	Env      *Environment
}

func (*ClosureValue) Kind() Kind { return KindClosure }
func (*ClosureValue) isValue()   {}

func (c *ClosureValue) Name() string {
	if c.Function.Name != "" {
		return c.Function.Name
	}
	return "<anonymous>"
}

// NativeFunc is the host side of a native function. args are fully
// evaluated and already checked against the declared arity.
type NativeFunc func(ctx *NativeCallContext, args []Value) (Value, error)

// NativeFunctionValue is a host-implemented function. Arity is the exact
// argument count, or the minimum when Variadic is set.
type NativeFunctionValue struct {
	Name     string
	Arity    int
	Variadic bool
	Impl     NativeFunc
}

func (*NativeFunctionValue) Kind() Kind { return KindNativeFunction }
func (*NativeFunctionValue) isValue()   {}

// AcceptsArgs reports whether n arguments satisfy the arity contract.
func (f *NativeFunctionValue) AcceptsArgs(n int) bool {
	if f.Variadic {
		return n >= f.Arity
	}
	return n == f.Arity
}

// ModuleValue is a named set of exports. Modules are immutable once created.
type ModuleValue struct {
	Path    string
	exports map[string]Value
	names   []string
}

func (*ModuleValue) Kind() Kind { return KindModule }
func (*ModuleValue) isValue()   {}

func NewModule(path string, exports map[string]Value) *ModuleValue {
	m := &ModuleValue{Path: path, exports: make(map[string]Value, len(exports))}
	for name, v := range exports {
		m.exports[name] = v
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m
}

func (m *ModuleValue) Export(name string) (Value, bool) {
	v, ok := m.exports[name]
	return v, ok
}

// Names lists the exports in sorted order.
func (m *ModuleValue) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
