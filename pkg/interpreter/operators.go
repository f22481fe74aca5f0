package interpreter

import (
	"math"
	"strings"

	"github.com/ajkachnic/bliss/pkg/runtime"
	"github.com/ajkachnic/bliss/pkg/token"
)

func unary(op string, v runtime.Value, pos token.Position) (runtime.Value, error) {
	switch op {
	case "-":
		n, ok := v.(runtime.NumberValue)
		if !ok {
			return nil, runtime.NewTypeError(pos, "number", v)
		}
		return runtime.Number(-n.Val), nil
	case "!":
		return runtime.Bool(!runtime.Truthy(v)), nil
	}
	return nil, runtime.Errorf(runtime.TypeError, pos, "unknown unary operator %s", op)
}

func binary(op string, left, right runtime.Value, pos token.Position) (runtime.Value, error) {
	switch op {
	case "==":
		return runtime.Bool(runtime.Equal(left, right)), nil
	case "!=":
		return runtime.Bool(!runtime.Equal(left, right)), nil
	case "+":
		return add(left, right, pos)
	case "<", "<=", ">", ">=":
		return compare(op, left, right, pos)
	case "..":
		return rangeList(left, right, pos)
	}

	a, b, err := numbers(left, right, pos)
	if err != nil {
		return nil, err
	}
	switch op {
	case "-":
		return runtime.Number(a - b), nil
	case "*":
		return runtime.Number(a * b), nil
	case "/":
		return runtime.Number(a / b), nil
	case "%":
		return runtime.Number(math.Mod(a, b)), nil
	}
	return nil, runtime.Errorf(runtime.TypeError, pos, "unknown operator %s", op)
}

func numbers(left, right runtime.Value, pos token.Position) (float64, float64, error) {
	a, ok := left.(runtime.NumberValue)
	if !ok {
		return 0, 0, runtime.NewTypeError(pos, "number", left)
	}
	b, ok := right.(runtime.NumberValue)
	if !ok {
		return 0, 0, runtime.NewTypeError(pos, "number", right)
	}
	return a.Val, b.Val, nil
}

func add(left, right runtime.Value, pos token.Position) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.NumberValue:
		r, ok := right.(runtime.NumberValue)
		if !ok {
			return nil, runtime.NewTypeError(pos, "number", right)
		}
		return runtime.Number(l.Val + r.Val), nil
	case runtime.StringValue:
		return runtime.String(l.Val + runtime.ToString(right)), nil
	case *runtime.ListValue:
		r, ok := right.(*runtime.ListValue)
		if !ok {
			return nil, runtime.NewTypeError(pos, "list", right)
		}
		elems := make([]runtime.Value, 0, len(l.Elements)+len(r.Elements))
		elems = append(elems, l.Elements...)
		elems = append(elems, r.Elements...)
		return runtime.NewList(elems...), nil
	}
	return nil, runtime.NewTypeError(pos, "number, string or list", left)
}

func compare(op string, left, right runtime.Value, pos token.Position) (runtime.Value, error) {
	var c int
	switch l := left.(type) {
	case runtime.NumberValue:
		r, ok := right.(runtime.NumberValue)
		if !ok {
			return nil, runtime.NewTypeError(pos, "number", right)
		}
		if math.IsNaN(l.Val) || math.IsNaN(r.Val) {
			return runtime.False, nil
		}
		switch {
		case l.Val < r.Val:
			c = -1
		case l.Val > r.Val:
			c = 1
		}
	case runtime.StringValue:
		r, ok := right.(runtime.StringValue)
		if !ok {
			return nil, runtime.NewTypeError(pos, "string", right)
		}
		c = strings.Compare(l.Val, r.Val)
	default:
		return nil, runtime.NewTypeError(pos, "number or string", left)
	}
	switch op {
	case "<":
		return runtime.Bool(c < 0), nil
	case "<=":
		return runtime.Bool(c <= 0), nil
	case ">":
		return runtime.Bool(c > 0), nil
	}
	return runtime.Bool(c >= 0), nil
}

// rangeList builds the integers from start up to, but excluding, end.
func rangeList(left, right runtime.Value, pos token.Position) (runtime.Value, error) {
	start, end, err := numbers(left, right, pos)
	if err != nil {
		return nil, err
	}
	if start != math.Trunc(start) || end != math.Trunc(end) {
		return nil, runtime.Errorf(runtime.TypeError, pos, "range bounds must be integers, got %s..%s", runtime.FormatNumber(start), runtime.FormatNumber(end))
	}
	if end <= start {
		return runtime.NewList(), nil
	}
	elems := make([]runtime.Value, 0, int(end-start))
	for n := start; n < end; n++ {
		elems = append(elems, runtime.Number(n))
	}
	return runtime.NewList(elems...), nil
}
