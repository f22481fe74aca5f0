package parser

import (
	"fmt"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/lexer"
	"github.com/ajkachnic/bliss/pkg/token"
)

// bailout unwinds the parser to the nearest recovery point after an error
// has been recorded.
type bailout struct{}

// Parser builds an AST from a lexer. It is used for a single source.
type Parser struct {
	lex *lexer.Lexer

	prev token.Token
	cur  token.Token
	peek token.Token

	// open holds the kinds of brackets consumed but not yet closed.
	open []token.Kind

	diags   diagnostics.List
	errLine int
}

// ParseProgram parses a whole source file. The program is always returned;
// statements that failed to parse are dropped and reported in the list.
func ParseProgram(name, src string) (*ast.Program, diagnostics.List) {
	p := New(src)
	prog := p.ParseProgram(name)
	return prog, p.Diagnostics()
}

func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.peek = p.fetch()
	p.advance()
	return p
}

// Diagnostics returns lex and parse errors ordered by position.
func (p *Parser) Diagnostics() diagnostics.List {
	p.diags.Sort()
	return p.diags
}

func (p *Parser) ParseProgram(name string) *ast.Program {
	start := p.cur.Pos
	var stmts []ast.Statement
	for p.cur.Kind != token.EOF {
		before := p.cur.Pos.Offset
		if stmt := p.parseStatementRecovering(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.cur.Pos.Offset == before && p.cur.Kind != token.EOF {
			// a stray closer at top level
			p.advance()
		}
	}
	return ast.At(start, ast.NewProgram(name, stmts))
}

// fetch pulls the next token, reporting and skipping illegal ones.
func (p *Parser) fetch() token.Token {
	for {
		tok := p.lex.Next()
		if tok.Kind != token.Illegal {
			return tok
		}
		p.diags.Errorf(diagnostics.LexError, tok.Pos, "%s", tok.Err)
	}
}

func (p *Parser) advance() token.Token {
	p.track(p.cur.Kind)
	p.prev = p.cur
	p.cur = p.peek
	if p.cur.Kind != token.EOF {
		p.peek = p.fetch()
	}
	return p.prev
}

func (p *Parser) track(kind token.Kind) {
	switch kind {
	case token.LParen, token.LBracket, token.LBrace, token.HashBracket, token.HashBrace:
		p.open = append(p.open, kind)
	case token.RParen, token.RBracket, token.RBrace:
		if i := p.opener(kind); i >= 0 {
			p.open = p.open[:i]
		}
	}
}

// opener returns the index of the innermost open bracket that closer
// would close, or -1.
func (p *Parser) opener(closer token.Kind) int {
	for i := len(p.open) - 1; i >= 0; i-- {
		switch p.open[i] {
		case token.LParen:
			if closer == token.RParen {
				return i
			}
		case token.LBracket, token.HashBracket:
			if closer == token.RBracket {
				return i
			}
		case token.LBrace, token.HashBrace:
			if closer == token.RBrace {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) at(kind token.Kind) bool { return p.cur.Kind == kind }

func (p *Parser) accept(kind token.Kind) bool {
	if p.cur.Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind, context string) token.Token {
	if p.cur.Kind != kind {
		p.failf(p.cur.Pos, "expected '%s' %s, found %s", kind, context, describeToken(p.cur))
	}
	return p.advance()
}

func (p *Parser) failf(pos token.Position, format string, args ...any) {
	p.diags.Errorf(diagnostics.ParseError, pos, format, args...)
	p.errLine = pos.Line
	panic(bailout{})
}

// recovering runs fn and reports whether it finished without a parse error.
func (p *Parser) recovering(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}

// synchronize skips tokens after an error until a likely statement or
// clause boundary. Brackets opened since base are skipped as a unit; at the
// base level it stops after a `;`, or before a closer of an enclosing
// construct, a `,` (for match clauses), a statement keyword, or the first
// token on a later line. A later line that starts with a statement keyword,
// or at or left of startCol, always stops the scan and abandons brackets
// left open by the failed construct.
func (p *Parser) synchronize(base, startCol int, stopAtComma bool) {
	for p.cur.Kind != token.EOF {
		switch p.cur.Kind {
		case token.RParen, token.RBracket, token.RBrace:
			if i := p.opener(p.cur.Kind); i >= 0 && i < base {
				p.open = p.open[:i+1]
				return
			}
		}
		laterLine := p.cur.Pos.Line > p.errLine
		if len(p.open) <= base {
			switch p.cur.Kind {
			case token.Semicolon:
				p.advance()
				return
			case token.Comma:
				if stopAtComma {
					return
				}
			case token.Let, token.Import, token.Return:
				return
			}
			if laterLine {
				return
			}
		} else if laterLine && (isStatementKeyword(p.cur.Kind) || p.startsLineAt(startCol)) {
			p.open = p.open[:base]
			return
		}
		p.advance()
	}
}

// startsLineAt reports whether the current token is the first on its line
// and sits at or left of col.
func (p *Parser) startsLineAt(col int) bool {
	return p.cur.Pos.Line > p.prev.Pos.Line && p.cur.Pos.Column <= col
}

func isStatementKeyword(kind token.Kind) bool {
	return kind == token.Let || kind == token.Import || kind == token.Return
}

func (p *Parser) parseStatementRecovering() ast.Statement {
	var stmt ast.Statement
	base := len(p.open)
	startCol := p.cur.Pos.Column
	if !p.recovering(func() { stmt = p.parseStatement() }) {
		p.synchronize(base, startCol, false)
		return nil
	}
	return stmt
}

func describeToken(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.Ident:
		return fmt.Sprintf("identifier '%s'", tok.Literal)
	case token.Number:
		return fmt.Sprintf("number %s", tok.Literal)
	case token.String, token.StringPart:
		return "string"
	case token.Atom:
		return fmt.Sprintf("atom :%s", tok.Literal)
	}
	return fmt.Sprintf("'%s'", tok.Kind)
}
