package runtime

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ajkachnic/bliss/pkg/token"
)

func TestEqualIsStructural(t *testing.T) {
	atoms := NewAtomTable()
	ok := atoms.Intern("ok")
	cases := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), String("1"), false},
		{Null, Null, true},
		{Null, False, false},
		{ok, atoms.Intern("ok"), true},
		{ok, &AtomValue{Name: "ok"}, false},
		{NewList(Number(1), String("a")), NewList(Number(1), String("a")), true},
		{NewList(Number(1)), NewTuple(Number(1)), false},
		{NewTuple(ok, Number(2)), NewTuple(ok, Number(2)), true},
		{NewTuple(Number(1)), NewTuple(Number(1), Number(2)), false},
		{
			NewRecordBuilder(2).Set(StringKey("a"), Number(1)).Set(AtomKey(ok), True).Build(),
			NewRecordBuilder(2).Set(AtomKey(ok), True).Set(StringKey("a"), Number(1)).Build(),
			true,
		},
		{
			NewRecordBuilder(1).Set(StringKey("ok"), True).Build(),
			NewRecordBuilder(1).Set(AtomKey(ok), True).Build(),
			false,
		},
	}
	for i, tc := range cases {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Errorf("case %d: Equal(%s, %s) = %v, want %v", i, Inspect(tc.a), Inspect(tc.b), got, tc.want)
		}
	}
}

func TestRecordKeepsInsertionOrder(t *testing.T) {
	atoms := NewAtomTable()
	rec := NewRecordBuilder(3).
		Set(StringKey("z"), Number(1)).
		Set(AtomKey(atoms.Intern("a")), Number(2)).
		Set(StringKey("z"), Number(3)).
		Set(StringKey("two words"), Null).
		Build()
	if got := Inspect(rec); got != `#{z = 3, :a = 2, "two words" = null}` {
		t.Fatalf("unexpected record rendering %s", got)
	}
	if v, ok := rec.Get(StringKey("z")); !ok || !Equal(v, Number(3)) {
		t.Fatalf("expected z = 3, got %v", v)
	}
	if _, ok := rec.Get(StringKey("a")); ok {
		t.Fatalf("string key must not find atom key")
	}
}

func TestInspectAndToString(t *testing.T) {
	atoms := NewAtomTable()
	cases := []struct {
		v       Value
		inspect string
		str     string
	}{
		{Number(3), "3", "3"},
		{Number(-0.5), "-0.5", "-0.5"},
		{Number(math.Inf(1)), "Infinity", "Infinity"},
		{String("hi"), `"hi"`, "hi"},
		{atoms.Intern("get"), ":get", "get"},
		{NewList(Number(1), String("a")), `#[1, "a"]`, `#[1, "a"]`},
		{NewTuple(True, Null), "[true, null]", "[true, null]"},
		{&NativeFunctionValue{Name: "len"}, "<native fn len>", "<native fn len>"},
	}
	for _, tc := range cases {
		if got := Inspect(tc.v); got != tc.inspect {
			t.Errorf("Inspect = %q, want %q", got, tc.inspect)
		}
		if got := ToString(tc.v); got != tc.str {
			t.Errorf("ToString = %q, want %q", got, tc.str)
		}
	}
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{Null, False}
	truthy := []Value{True, Number(0), String(""), NewList(), NewTuple()}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("%s should be falsy", Inspect(v))
		}
	}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("%s should be truthy", Inspect(v))
		}
	}
}

func TestErrorKindsMatchSentinels(t *testing.T) {
	pos := token.Position{Line: 3, Column: 5, Offset: 20}
	typeErr := NewTypeError(pos, "number", String("x"))
	if !errors.Is(typeErr, ErrTypeError) || errors.Is(typeErr, ErrMatch) {
		t.Fatalf("type error should only match its sentinel")
	}
	if typeErr.Expected != "number" || typeErr.Actual != "string" {
		t.Fatalf("unexpected type error fields %+v", typeErr)
	}

	cause := fmt.Errorf("disk full")
	hostErr := AsError(fmt.Errorf("write: %w", cause), pos)
	if hostErr.Kind != HostError || !errors.Is(hostErr, ErrHost) || !errors.Is(hostErr, cause) {
		t.Fatalf("expected host error wrapping cause, got %+v", hostErr)
	}
	if hostErr.Pos != pos {
		t.Fatalf("host error should carry call position, got %v", hostErr.Pos)
	}

	kept := AsError(fmt.Errorf("checking: %w", NewTypeError(token.Position{}, "list", Null)), pos)
	if kept.Kind != TypeError || kept.Pos != pos {
		t.Fatalf("runtime errors keep their kind, got %+v", kept)
	}

	var rerr *Error
	wrapped := fmt.Errorf("run: %w", NewImportError("std:nope", nil))
	if !errors.As(wrapped, &rerr) || rerr.Path != "std:nope" || !errors.Is(wrapped, ErrImport) {
		t.Fatalf("expected import error naming the path, got %v", wrapped)
	}
}

func TestErrorMessageIncludesPosition(t *testing.T) {
	err := Errorf(MatchError, token.Position{Line: 2, Column: 7, Offset: 9}, "no pattern matched 4")
	err.Source = "main.bl"
	if got := err.Error(); got != "main.bl:2:7: MatchError: no pattern matched 4" {
		t.Fatalf("unexpected message %q", got)
	}
}
