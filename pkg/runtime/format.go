package runtime

import (
	"math"
	"strconv"
	"strings"
)

// TypeName is the user-facing name of v's kind.
func TypeName(v Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}

// Truthy reports whether v counts as true in a condition. Only false and
// null are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, NullValue:
		return false
	case BoolValue:
		return val.Val
	}
	return true
}

// FormatNumber prints integral values without a fraction.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToString converts v for interpolation and string concatenation. Strings
// and atoms print bare; everything else prints as Inspect would.
func ToString(v Value) string {
	switch val := v.(type) {
	case StringValue:
		return val.Val
	case *AtomValue:
		return val.Name
	}
	return Inspect(v)
}

// Inspect renders v the way it would be written in source where possible.
func Inspect(v Value) string {
	var b strings.Builder
	inspect(&b, v)
	return b.String()
}

func inspect(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil:
		b.WriteString("<nothing>")
	case NullValue:
		b.WriteString("null")
	case BoolValue:
		b.WriteString(strconv.FormatBool(val.Val))
	case NumberValue:
		b.WriteString(FormatNumber(val.Val))
	case StringValue:
		b.WriteString(strconv.Quote(val.Val))
	case *AtomValue:
		b.WriteString(":")
		b.WriteString(val.Name)
	case *ListValue:
		b.WriteString("#[")
		inspectElements(b, val.Elements)
		b.WriteString("]")
	case *TupleValue:
		b.WriteString("[")
		inspectElements(b, val.Elements)
		b.WriteString("]")
	case *RecordValue:
		b.WriteString("#{")
		for i, key := range val.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			if key.Atom != nil {
				b.WriteString(":" + key.Atom.Name)
			} else if isIdentifier(key.Str) {
				b.WriteString(key.Str)
			} else {
				b.WriteString(strconv.Quote(key.Str))
			}
			b.WriteString(" = ")
			inspect(b, val.fields[key])
		}
		b.WriteString("}")
	case *ClosureValue:
		b.WriteString("<fn ")
		b.WriteString(val.Name())
		b.WriteString(">")
	case *NativeFunctionValue:
		b.WriteString("<native fn ")
		b.WriteString(val.Name)
		b.WriteString(">")
	case *ModuleValue:
		b.WriteString("<module ")
		b.WriteString(val.Path)
		b.WriteString(">")
	}
}

func inspectElements(b *strings.Builder, elems []Value) {
	for i, el := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		inspect(b, el)
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Equal is structural equality. Atoms, functions and modules compare by
// identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x.Val == y.Val
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && x.Val == y.Val
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x.Val == y.Val
	case *ListValue:
		y, ok := b.(*ListValue)
		return ok && equalElements(x.Elements, y.Elements)
	case *TupleValue:
		y, ok := b.(*TupleValue)
		return ok && equalElements(x.Elements, y.Elements)
	case *RecordValue:
		y, ok := b.(*RecordValue)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, key := range x.keys {
			other, ok := y.fields[key]
			if !ok || !Equal(x.fields[key], other) {
				return false
			}
		}
		return true
	}
	return a == b
}

func equalElements(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
