package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajkachnic/bliss/pkg/token"
)

// Severity captures diagnostic levels.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind classifies static diagnostics.
type Kind string

const (
	LexError         Kind = "LexError"
	ParseError       Kind = "ParseError"
	UnboundNameError Kind = "UnboundNameError"
	ArityError       Kind = "ArityError"
	Redeclaration    Kind = "Redeclaration"
)

// Diagnostic is a single positioned message produced before evaluation.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Pos      token.Position
	Message  string
	// Name is the identifier involved, for resolution diagnostics.
	Name string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

func (l *List) Errorf(kind Kind, pos token.Position, format string, args ...any) {
	*l = append(*l, Diagnostic{Severity: SeverityError, Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (l *List) Warnf(kind Kind, pos token.Position, format string, args ...any) {
	*l = append(*l, Diagnostic{Severity: SeverityWarning, Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Sort orders diagnostics by source position, keeping insertion order for
// diagnostics at the same offset.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Pos.Offset < l[j].Pos.Offset })
}

func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity subset.
func (l List) Errors() List {
	return l.filter(SeverityError)
}

// Warnings returns the warning-severity subset.
func (l List) Warnings() List {
	return l.filter(SeverityWarning)
}

func (l List) filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Err returns an *Error carrying the list when it holds any errors.
func (l List) Err(path string) error {
	if !l.HasErrors() {
		return nil
	}
	return &Error{Path: path, Diagnostics: l}
}

// Error reports that a program failed to load.
type Error struct {
	Path        string
	Diagnostics List
}

func (e *Error) Error() string {
	errs := e.Diagnostics.Errors()
	if len(errs) == 0 {
		return "no errors"
	}
	first := Describe(e.Path, errs[0])
	if len(errs) == 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more errors)", first, len(errs)-1)
}

// Describe formats a diagnostic for CLI output.
func Describe(path string, d Diagnostic) string {
	prefix := ""
	if d.Severity == SeverityWarning {
		prefix = "warning: "
	}
	location := formatLocation(path, d.Pos)
	if location != "" {
		return fmt.Sprintf("%s%s: %s: %s", prefix, location, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s%s: %s", prefix, d.Kind, d.Message)
}

func formatLocation(path string, pos token.Position) string {
	path = strings.TrimSpace(path)
	switch {
	case path != "" && pos.Line > 0 && pos.Column > 0:
		return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Column)
	case path != "" && pos.Line > 0:
		return fmt.Sprintf("%s:%d", path, pos.Line)
	case path != "":
		return path
	case pos.Line > 0 && pos.Column > 0:
		return fmt.Sprintf("line %d, column %d", pos.Line, pos.Column)
	case pos.Line > 0:
		return fmt.Sprintf("line %d", pos.Line)
	default:
		return ""
	}
}

// Snippet renders the source line around pos with a caret under the column.
func Snippet(src string, pos token.Position) string {
	if !pos.IsValid() {
		return ""
	}
	lines := strings.Split(src, "\n")
	line := pos.Line
	if line > len(lines) {
		line = len(lines)
	}
	col := pos.Column
	if col < 1 {
		col = 1
	}
	var b strings.Builder
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	return b.String()
}

// Render formats every diagnostic followed by its source snippet.
func Render(path, src string, diags List) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Describe(path, d))
		b.WriteString("\n")
		if src != "" {
			b.WriteString(Snippet(src, d.Pos))
		}
	}
	return b.String()
}
