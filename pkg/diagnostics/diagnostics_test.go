package diagnostics

import (
	"errors"
	"strings"
	"testing"

	"github.com/ajkachnic/bliss/pkg/token"
)

func TestDescribeFormatsLocation(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Kind: ParseError, Pos: token.Position{Line: 3, Column: 7}, Message: "expected ')'"}
	if got := Describe("main.bl", d); got != "main.bl:3:7: ParseError: expected ')'" {
		t.Fatalf("unexpected description %q", got)
	}
	if got := Describe("", d); got != "line 3, column 7: ParseError: expected ')'" {
		t.Fatalf("unexpected description %q", got)
	}
	d.Severity = SeverityWarning
	if got := Describe("main.bl", d); !strings.HasPrefix(got, "warning: main.bl:3:7") {
		t.Fatalf("expected warning prefix, got %q", got)
	}
}

func TestListErrAndSort(t *testing.T) {
	var list List
	list.Warnf(Redeclaration, token.Position{Line: 1, Column: 1, Offset: 0}, "x redeclared")
	if list.Err("a.bl") != nil {
		t.Fatalf("warnings alone must not fail")
	}
	list.Errorf(ParseError, token.Position{Line: 2, Column: 1, Offset: 10}, "second")
	list.Errorf(LexError, token.Position{Line: 1, Column: 5, Offset: 4}, "first")
	list.Sort()
	if list[1].Message != "first" || list[2].Message != "second" {
		t.Fatalf("unexpected order %v", list)
	}
	err := list.Err("a.bl")
	var diagErr *Error
	if !errors.As(err, &diagErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(diagErr.Diagnostics.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", diagErr.Diagnostics)
	}
	if !strings.Contains(err.Error(), "and 1 more errors") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSnippetPointsAtColumn(t *testing.T) {
	src := "let a = 1\nlet b = @\nlet c = 3"
	got := Snippet(src, token.Position{Line: 2, Column: 9})
	want := "   1 | let a = 1\n   2 | let b = @\n     |         ^\n"
	if got != want {
		t.Fatalf("unexpected snippet:\n%s\nwant:\n%s", got, want)
	}
}
