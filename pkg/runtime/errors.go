package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajkachnic/bliss/pkg/token"
)

// ErrorKind classifies runtime failures.
type ErrorKind string

const (
	UnboundNameError   ErrorKind = "UnboundNameError"
	ArityError         ErrorKind = "ArityError"
	TypeError          ErrorKind = "TypeError"
	MatchError         ErrorKind = "MatchError"
	StackOverflowError ErrorKind = "StackOverflowError"
	ImportError        ErrorKind = "ImportError"
	HostError          ErrorKind = "HostError"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrUnboundName   = errors.New("unbound name")
	ErrArity         = errors.New("arity mismatch")
	ErrTypeError     = errors.New("type error")
	ErrMatch         = errors.New("no pattern matched")
	ErrStackOverflow = errors.New("stack overflow")
	ErrImport        = errors.New("import failed")
	ErrHost          = errors.New("host function failed")
)

var sentinels = map[ErrorKind]error{
	UnboundNameError:   ErrUnboundName,
	ArityError:         ErrArity,
	TypeError:          ErrTypeError,
	MatchError:         ErrMatch,
	StackOverflowError: ErrStackOverflow,
	ImportError:        ErrImport,
	HostError:          ErrHost,
}

// TraceEntry is one active call at the time an error was raised.
type TraceEntry struct {
	Function string
	Pos      token.Position
}

// Error is a runtime failure. Fields beyond Kind, Pos and Message are set
// when they apply to the kind.
type Error struct {
	Kind    ErrorKind
	Pos     token.Position
	Message string
	// Source is the name of the program the error was raised in.
	Source string

	Name     string // UnboundNameError
	Value    Value  // MatchError
	Path     string // ImportError
	Expected string // TypeError, ArityError
	Actual   string
	Cause    error // HostError, ImportError

	Trace []TraceEntry
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(":")
	}
	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	} else if e.Source != "" {
		b.WriteString(" ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Errorf builds an error of kind at pos.
func Errorf(kind ErrorKind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewTypeError reports that expected was required but actual was supplied.
func NewTypeError(pos token.Position, expected string, actual Value) *Error {
	got := TypeName(actual)
	return &Error{
		Kind:     TypeError,
		Pos:      pos,
		Message:  fmt.Sprintf("expected %s, got %s", expected, got),
		Expected: expected,
		Actual:   got,
	}
}

func NewArityError(pos token.Position, name string, expected string, got int) *Error {
	return &Error{
		Kind:     ArityError,
		Pos:      pos,
		Message:  fmt.Sprintf("%s expects %s, got %d", name, expected, got),
		Name:     name,
		Expected: expected,
		Actual:   fmt.Sprint(got),
	}
}

func NewMatchError(pos token.Position, v Value) *Error {
	return &Error{
		Kind:    MatchError,
		Pos:     pos,
		Message: "no pattern matched " + Inspect(v),
		Value:   v,
	}
}

// NewImportError reports a module path that could not be loaded.
func NewImportError(path string, cause error) *Error {
	msg := fmt.Sprintf("cannot import '%s'", path)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &Error{Kind: ImportError, Message: msg, Path: path, Cause: cause}
}

// AsError returns err as a runtime error. Anything that is not one already
// becomes a HostError at pos.
func AsError(err error, pos token.Position) *Error {
	var rerr *Error
	if errors.As(err, &rerr) {
		if !rerr.Pos.IsValid() {
			rerr.Pos = pos
		}
		return rerr
	}
	return &Error{Kind: HostError, Pos: pos, Message: err.Error(), Cause: err}
}
