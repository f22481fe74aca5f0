package parser

import (
	"strings"
	"testing"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/diagnostics"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := ParseProgram("test.bl", src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return prog
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a || b && c == d", "(a || (b && (c == d)))"},
		{"a < b == c >= d", "((a < b) == (c >= d))"},
		{"1..n + 1", "(1 .. (n + 1))"},
		{"-a * b", "((-a) * b)"},
		{"!a.b(c)", "(!a.b(c))"},
		{"a % b / c", "((a % b) / c)"},
		{"x |> f(y) |> g", "((x |> f(y)) |> g)"},
		{"a + b |> f", "((a + b) |> f)"},
		{"h.status(200).send(x)", "h.status(200).send(x)"},
		{"pair.0 + pair.1", "(pair.0 + pair.1)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-n :: { _ -> 1 }", "(-(n :: { _ -> 1 }))"},
	}
	for _, tc := range cases {
		prog := mustParse(t, tc.src)
		if got := ast.Describe(prog); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.src, tc.want, got)
		}
	}
}

func TestParseLiteralsAndCollections(t *testing.T) {
	prog := mustParse(t, `[1, 'two', :three] ; #[true, null,] ; #{ a = 1, 'b c' = 2, :d = 3, e }`)
	want := `[1, "two", :three]; #[true, null]; #{a = 1, b c = 2, :d = 3, e = e}`
	if got := ast.Describe(prog); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	rec := prog.Statements[2].(*ast.RecordLiteral)
	if !rec.Fields[2].Key.Atom || rec.Fields[1].Key.Atom {
		t.Fatalf("unexpected record keys %#v", rec.Fields)
	}
}

func TestParseStringInterpolation(t *testing.T) {
	prog := mustParse(t, `"method #{method} not allowed"`)
	interp, ok := prog.Statements[0].(*ast.StringInterpolation)
	if !ok {
		t.Fatalf("expected interpolation, got %T", prog.Statements[0])
	}
	if got := ast.Describe(interp); got != `(str "method " method " not allowed")` {
		t.Fatalf("unexpected parts %s", got)
	}
}

func TestParseFunctionsAndBlocks(t *testing.T) {
	prog := mustParse(t, `
let add = fn (a, b) -> a + b
inc = fn x -> x + 1
let body = fn () -> {
  y = 2
  y * 3
}
`)
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(prog.Statements))
	}
	assign := prog.Statements[0].(*ast.Assignment)
	fn := assign.Value.(*ast.FunctionLiteral)
	if !assign.Let || fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function %#v", fn)
	}
	inc := prog.Statements[1].(*ast.Assignment)
	if inc.Let || inc.Value.(*ast.FunctionLiteral).Name != "inc" {
		t.Fatalf("unexpected assignment %#v", inc)
	}
	block := prog.Statements[2].(*ast.Assignment).Value.(*ast.FunctionLiteral).Body.(*ast.BlockExpression)
	if len(block.Body) != 2 {
		t.Fatalf("expected block with 2 statements, got %d", len(block.Body))
	}
}

func TestParseCallOnNextLineIsNewStatement(t *testing.T) {
	prog := mustParse(t, "f\n(1 + 2)")
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %s", ast.Describe(prog))
	}
}

func TestParseMatchExpression(t *testing.T) {
	prog := mustParse(t, `[req.method, req.path] :: {
  [:GET, '/'] -> res.send('hello world'),
  [method, '/'] -> res.status(405).send("method #{method} not allowed"),
  #[first, ..rest] if first > 0 -> rest,
  #{ name, age = (n if n >= 18) } -> name,
  -1 -> :neg,
  _ -> null,
}`)
	match, ok := prog.Statements[0].(*ast.MatchExpression)
	if !ok {
		t.Fatalf("expected match expression, got %T", prog.Statements[0])
	}
	if len(match.Clauses) != 6 {
		t.Fatalf("expected 6 clauses, got %d", len(match.Clauses))
	}
	if _, ok := match.Clauses[0].Pattern.(*ast.TuplePattern); !ok {
		t.Fatalf("expected tuple pattern, got %T", match.Clauses[0].Pattern)
	}
	list, ok := match.Clauses[2].Pattern.(*ast.ListPattern)
	if !ok || !list.HasRest || match.Clauses[2].Guard == nil {
		t.Fatalf("expected guarded list pattern clause, got %s", ast.Describe(match.Clauses[2]))
	}
	rec := match.Clauses[3].Pattern.(*ast.RecordPattern)
	if _, ok := rec.Fields[1].Pattern.(*ast.GuardedPattern); !ok {
		t.Fatalf("expected guarded field pattern, got %s", ast.Describe(rec))
	}
	lit := match.Clauses[4].Pattern.(*ast.LiteralPattern)
	if lit.Literal.(*ast.NumberLiteral).Value != -1 {
		t.Fatalf("expected negative literal pattern")
	}
	if match.Position().Line != 1 || match.Position().Column != 1 {
		t.Fatalf("unexpected match position %v", match.Position())
	}
}

func TestParseIfForms(t *testing.T) {
	prog := mustParse(t, "if a { 1 } else if b { 2 } else { 3 }\nif c then 1 else 2\nif d { 4 }")
	want := "(if a { 1 } else (if b { 2 } else { 3 })); (if c 1 else 2); (if d { 4 })"
	if got := ast.Describe(prog); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseImportsAndReturn(t *testing.T) {
	prog := mustParse(t, "import http from 'std:http'\nimport './util' as util\nreturn 1")
	first := prog.Statements[0].(*ast.ImportDeclaration)
	second := prog.Statements[1].(*ast.ImportDeclaration)
	if first.Name.Name != "http" || first.Path != "std:http" || second.Name.Name != "util" || second.Path != "./util" {
		t.Fatalf("unexpected imports %#v %#v", first, second)
	}
	if ret := prog.Statements[2].(*ast.ReturnStatement); ret.Argument == nil {
		t.Fatalf("expected return argument")
	}
}

func TestParseDestructuringLet(t *testing.T) {
	prog := mustParse(t, "let [a, #[b, .._]] = pair")
	if got := ast.Describe(prog); got != "let [a, #[b, .._]] = pair" {
		t.Fatalf("unexpected let %s", got)
	}
}

func TestParseReportsEveryError(t *testing.T) {
	src := "let a = 1 +* 2\nlet b = )\nlet c = 3\nd = fn (x -> x\nlet e = #{ 1 = 2 }\n"
	prog, diags := ParseProgram("bad.bl", src)
	errs := diags.Errors()
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(errs), errs)
	}
	lines := []int{1, 2, 4, 5}
	for i, line := range lines {
		if errs[i].Pos.Line != line || errs[i].Kind != diagnostics.ParseError {
			t.Fatalf("error %d: expected parse error on line %d, got %v", i, line, errs[i])
		}
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected the valid statement to survive, got %s", ast.Describe(prog))
	}
}

func TestParseRecoversFromUnclosedBrackets(t *testing.T) {
	src := "a = (1 + ]\nb = fn ( -> 1\nd = 4\nc = 2 *\n"
	prog, diags := ParseProgram("bad.bl", src)
	errs := diags.Errors()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Pos.Line != 1 || errs[1].Pos.Line != 2 || errs[2].Pos.Line < 4 {
		t.Fatalf("unexpected error lines: %v", errs)
	}
	if len(prog.Statements) != 1 || ast.Describe(prog) != "d = 4" {
		t.Fatalf("expected only d to survive, got %s", ast.Describe(prog))
	}
}

func TestParseRecoversInsideBlocksAndClauses(t *testing.T) {
	src := `f = fn () -> {
  x = )
  y = 2
  z = ]
  y
}
v :: {
  1 -> ),
  2 -> :two,
  [ -> 3,
}`
	prog, diags := ParseProgram("bad.bl", src)
	if n := len(diags.Errors()); n != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", n, diags)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("expected both statements to survive, got %s", ast.Describe(prog))
	}
	match := prog.Statements[1].(*ast.MatchExpression)
	if len(match.Clauses) != 1 {
		t.Fatalf("expected one surviving clause, got %s", ast.Describe(match))
	}
}

func TestParseReportsLexErrors(t *testing.T) {
	_, diags := ParseProgram("bad.bl", "a = 1 @ 2\nb = 'open")
	if len(diags) < 2 {
		t.Fatalf("expected lex errors, got %v", diags)
	}
	if diags[0].Kind != diagnostics.LexError || !strings.Contains(diags[0].Message, "unexpected character") {
		t.Fatalf("unexpected first diagnostic %v", diags[0])
	}
	found := false
	for _, d := range diags {
		if d.Kind == diagnostics.LexError && d.Message == "unterminated string" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unterminated string error, got %v", diags)
	}
}

func TestParseImportRequiresPlainString(t *testing.T) {
	_, diags := ParseProgram("bad.bl", "import x from \"a#{b}\"\nimport y from z")
	if n := len(diags.Errors()); n != 2 {
		t.Fatalf("expected 2 errors, got %v", diags)
	}
}
