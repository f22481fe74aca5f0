package parser

import (
	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/token"
)

func (p *Parser) parseStatement() ast.Statement {
	var stmt ast.Statement
	switch p.cur.Kind {
	case token.Let:
		stmt = p.parseLet()
	case token.Import:
		stmt = p.parseImport()
	case token.Return:
		stmt = p.parseReturn()
	case token.Ident:
		if p.peek.Kind == token.Assign {
			stmt = p.parseAssignment()
			break
		}
		stmt = p.parseExpression(precLowest)
	default:
		stmt = p.parseExpression(precLowest)
	}
	p.endStatement()
	return stmt
}

// endStatement consumes an optional `;`. A statement followed by more input
// on the same line needs the semicolon.
func (p *Parser) endStatement() {
	if p.accept(token.Semicolon) {
		return
	}
	switch p.cur.Kind {
	case token.EOF, token.RBrace:
		return
	}
	if p.cur.Pos.Line == p.prev.Pos.Line {
		p.failf(p.cur.Pos, "unexpected %s after statement", describeToken(p.cur))
	}
}

func (p *Parser) parseLet() ast.Statement {
	start := p.expect(token.Let, "").Pos
	target := p.parsePattern()
	p.expect(token.Assign, "after let pattern")
	value := p.parseExpression(precLowest)
	nameFunction(target, value)
	return ast.At(start, ast.NewAssignment(target, value, true))
}

func (p *Parser) parseAssignment() ast.Statement {
	nameTok := p.advance()
	p.expect(token.Assign, "")
	value := p.parseExpression(precLowest)
	target := ast.At(nameTok.Pos, ast.NewBindingPattern(ast.At(nameTok.Pos, ast.NewIdentifier(nameTok.Literal))))
	nameFunction(target, value)
	return ast.At(nameTok.Pos, ast.NewAssignment(target, value, false))
}

func nameFunction(target ast.Pattern, value ast.Expression) {
	bind, ok := target.(*ast.BindingPattern)
	if !ok {
		return
	}
	if fn, ok := value.(*ast.FunctionLiteral); ok && fn.Name == "" {
		fn.Name = bind.Name.Name
	}
}

// parseImport handles `import name from 'path'` and `import 'path' as name`.
func (p *Parser) parseImport() ast.Statement {
	start := p.expect(token.Import, "").Pos
	if p.at(token.Ident) {
		nameTok := p.advance()
		p.expect(token.From, "after import name")
		path := p.parseImportPath()
		return ast.At(start, ast.NewImportDeclaration(ast.At(nameTok.Pos, ast.NewIdentifier(nameTok.Literal)), path))
	}
	path := p.parseImportPath()
	p.expect(token.As, "after import path")
	nameTok := p.expect(token.Ident, "after 'as'")
	return ast.At(start, ast.NewImportDeclaration(ast.At(nameTok.Pos, ast.NewIdentifier(nameTok.Literal)), path))
}

func (p *Parser) parseImportPath() string {
	if p.at(token.StringPart) {
		p.failf(p.cur.Pos, "import path must be a plain string literal")
	}
	if !p.at(token.String) {
		p.failf(p.cur.Pos, "expected module path string, found %s", describeToken(p.cur))
	}
	tok := p.advance()
	if tok.Literal == "" {
		p.failf(tok.Pos, "module path must not be empty")
	}
	return tok.Literal
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.expect(token.Return, "")
	switch p.cur.Kind {
	case token.Semicolon, token.RBrace, token.EOF:
		return ast.At(tok.Pos, ast.NewReturnStatement(nil))
	}
	if p.cur.Pos.Line != tok.Pos.Line {
		return ast.At(tok.Pos, ast.NewReturnStatement(nil))
	}
	return ast.At(tok.Pos, ast.NewReturnStatement(p.parseExpression(precLowest)))
}

// parseBlock parses `{ stmt* }`. Each statement recovers on its own so one
// malformed line does not hide errors in the rest of the block.
func (p *Parser) parseBlock() *ast.BlockExpression {
	start := p.expect(token.LBrace, "to open block").Pos
	var body []ast.Statement
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.cur.Pos.Offset
		if stmt := p.parseStatementRecovering(); stmt != nil {
			body = append(body, stmt)
		}
		if p.cur.Pos.Offset == before && !p.at(token.RBrace) && !p.at(token.EOF) {
			p.advance()
		}
	}
	p.expect(token.RBrace, "to close block")
	return ast.At(start, ast.NewBlockExpression(body))
}
