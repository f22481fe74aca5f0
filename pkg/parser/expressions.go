package parser

import (
	"strconv"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/token"
)

// Binding power of infix operators, lowest first. Every binary operator is
// left-associative.
type precedence int

const (
	precLowest precedence = iota
	precPipeline
	precOr
	precAnd
	precEquality
	precComparison
	precRange
	precSum
	precProduct
	precPrefix
	precMatch
	precCall
)

var infixPrecedence = map[token.Kind]precedence{
	token.Pipe:        precPipeline,
	token.Or:          precOr,
	token.And:         precAnd,
	token.Eq:          precEquality,
	token.NotEq:       precEquality,
	token.Lt:          precComparison,
	token.LtEq:        precComparison,
	token.Gt:          precComparison,
	token.GtEq:        precComparison,
	token.Range:       precRange,
	token.Plus:        precSum,
	token.Minus:       precSum,
	token.Star:        precProduct,
	token.Slash:       precProduct,
	token.Percent:     precProduct,
	token.DoubleColon: precMatch,
	token.LParen:      precCall,
	token.Dot:         precCall,
}

// curPrecedence reports the binding power of the current token as an infix
// operator. A `(` only continues an expression as a call when it sits on
// the same line as the callee.
func (p *Parser) curPrecedence() precedence {
	if p.cur.Kind == token.LParen && p.cur.Pos.Line != p.prev.Pos.Line {
		return precLowest
	}
	return infixPrecedence[p.cur.Kind]
}

func (p *Parser) parseExpression(prec precedence) ast.Expression {
	left := p.parsePrefix()
	for prec < p.curPrecedence() {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.cur
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return ast.At(tok.Pos, ast.NewIdentifier(tok.Literal))
	case token.Number:
		p.advance()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.failf(tok.Pos, "invalid number %s", tok.Literal)
		}
		return ast.At(tok.Pos, ast.NewNumberLiteral(value))
	case token.String:
		p.advance()
		return ast.At(tok.Pos, ast.NewStringLiteral(tok.Literal))
	case token.StringPart:
		return p.parseInterpolation()
	case token.Atom:
		p.advance()
		return ast.At(tok.Pos, ast.NewAtomLiteral(tok.Literal))
	case token.True, token.False:
		p.advance()
		return ast.At(tok.Pos, ast.NewBooleanLiteral(tok.Kind == token.True))
	case token.Null:
		p.advance()
		return ast.At(tok.Pos, ast.NewNullLiteral())
	case token.Minus, token.Bang:
		p.advance()
		operand := p.parseExpression(precPrefix)
		return ast.At(tok.Pos, ast.NewUnaryExpression(tok.Literal, operand))
	case token.LParen:
		p.advance()
		inner := p.parseExpression(precLowest)
		p.expect(token.RParen, "to close parenthesized expression")
		return inner
	case token.LBracket:
		p.advance()
		elems := p.parseExpressionList(token.RBracket, "to close tuple")
		return ast.At(tok.Pos, ast.NewTupleLiteral(elems))
	case token.HashBracket:
		p.advance()
		elems := p.parseExpressionList(token.RBracket, "to close list")
		return ast.At(tok.Pos, ast.NewListLiteral(elems))
	case token.HashBrace:
		return p.parseRecord()
	case token.LBrace:
		return p.parseBlock()
	case token.Fn:
		return p.parseFunction()
	case token.If:
		return p.parseIf()
	}
	p.failf(tok.Pos, "expected expression, found %s", describeToken(tok))
	return nil
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.cur
	switch tok.Kind {
	case token.LParen:
		p.advance()
		args := p.parseExpressionList(token.RParen, "to close argument list")
		return ast.At(left.Position(), ast.NewCallExpression(left, args))
	case token.Dot:
		return p.parseMember(left)
	case token.DoubleColon:
		return p.parseMatch(left)
	case token.Pipe:
		p.advance()
		target := p.parseExpression(precPipeline)
		return ast.At(tok.Pos, ast.NewPipelineExpression(left, target))
	}
	prec := infixPrecedence[tok.Kind]
	p.advance()
	right := p.parseExpression(prec)
	return ast.At(tok.Pos, ast.NewBinaryExpression(tok.Literal, left, right))
}

// parseExpressionList parses comma separated expressions up to closer,
// allowing a trailing comma. The opening token has been consumed.
func (p *Parser) parseExpressionList(closer token.Kind, context string) []ast.Expression {
	var out []ast.Expression
	for !p.at(closer) {
		out = append(out, p.parseExpression(precLowest))
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(closer, context)
	return out
}

func (p *Parser) parseMember(object ast.Expression) ast.Expression {
	p.expect(token.Dot, "")
	tok := p.cur
	switch {
	case tok.Kind == token.Number:
		p.advance()
		index, err := strconv.Atoi(tok.Literal)
		if err != nil || index < 0 {
			p.failf(tok.Pos, "invalid positional member %s", tok.Literal)
		}
		return ast.At(tok.Pos, ast.NewIndexAccess(object, index))
	case tok.Kind == token.Ident || isKeyword(tok.Kind):
		p.advance()
		return ast.At(tok.Pos, ast.NewMemberAccess(object, tok.Literal))
	}
	p.failf(tok.Pos, "expected member name after '.', found %s", describeToken(tok))
	return nil
}

func isKeyword(kind token.Kind) bool {
	return kind >= token.Let && kind <= token.Null
}

func (p *Parser) parseRecord() ast.Expression {
	start := p.expect(token.HashBrace, "").Pos
	var fields []*ast.RecordField
	for !p.at(token.RBrace) {
		tok := p.cur
		var key ast.RecordKey
		switch tok.Kind {
		case token.Ident:
			key = ast.RecordKey{Name: tok.Literal}
		case token.String:
			key = ast.RecordKey{Name: tok.Literal}
		case token.Atom:
			key = ast.RecordKey{Name: tok.Literal, Atom: true}
		default:
			p.failf(tok.Pos, "expected record key, found %s", describeToken(tok))
		}
		p.advance()
		var value ast.Expression
		if p.accept(token.Assign) {
			value = p.parseExpression(precLowest)
		} else if tok.Kind == token.Ident {
			value = ast.At(tok.Pos, ast.NewIdentifier(tok.Literal))
		} else {
			p.failf(p.cur.Pos, "expected '=' after record key, found %s", describeToken(p.cur))
		}
		fields = append(fields, ast.At(tok.Pos, ast.NewRecordField(key, value)))
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, "to close record")
	return ast.At(start, ast.NewRecordLiteral(fields))
}

// parseInterpolation assembles StringPart tokens and the expressions between
// them into one node. The literal ends with a String token.
func (p *Parser) parseInterpolation() ast.Expression {
	start := p.cur.Pos
	var parts []ast.Expression
	for {
		tok := p.advance()
		if tok.Literal != "" {
			parts = append(parts, ast.At(tok.Pos, ast.NewStringLiteral(tok.Literal)))
		}
		if tok.Kind == token.String {
			break
		}
		parts = append(parts, p.parseExpression(precLowest))
		if !p.at(token.StringPart) && !p.at(token.String) {
			p.failf(p.cur.Pos, "expected '}' to close interpolation, found %s", describeToken(p.cur))
		}
	}
	return ast.At(start, ast.NewStringInterpolation(parts))
}

// parseFunction handles `fn (a, b) -> body` and `fn a -> body`.
func (p *Parser) parseFunction() ast.Expression {
	start := p.expect(token.Fn, "").Pos
	var params []ast.Pattern
	if p.accept(token.LParen) {
		for !p.at(token.RParen) {
			params = append(params, p.parsePattern())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen, "to close parameter list")
	} else {
		params = append(params, p.parsePattern())
	}
	p.expect(token.Arrow, "before function body")
	body := p.parseExpression(precLowest)
	return ast.At(start, ast.NewFunctionLiteral(params, body))
}

// parseIf handles `if c { } else { }`, `else if` chains and the
// single-line form `if c then a else b`.
func (p *Parser) parseIf() ast.Expression {
	start := p.expect(token.If, "").Pos
	cond := p.parseExpression(precLowest)
	var consequent ast.Expression
	if p.accept(token.Then) {
		consequent = p.parseExpression(precLowest)
	} else {
		if !p.at(token.LBrace) {
			p.failf(p.cur.Pos, "expected '{' or 'then' after if condition, found %s", describeToken(p.cur))
		}
		consequent = p.parseBlock()
	}
	var alternate ast.Expression
	if p.accept(token.Else) {
		alternate = p.parseExpression(precLowest)
	}
	return ast.At(start, ast.NewIfExpression(cond, consequent, alternate))
}

// parseMatch parses the clause list of `subject :: { pat -> body, ... }`.
// Each clause recovers independently.
func (p *Parser) parseMatch(subject ast.Expression) ast.Expression {
	p.expect(token.DoubleColon, "")
	p.expect(token.LBrace, "to open match clauses")
	var clauses []*ast.MatchClause
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.cur.Pos.Offset
		base := len(p.open)
		startCol := p.cur.Pos.Column
		var clause *ast.MatchClause
		if p.recovering(func() { clause = p.parseClause() }) {
			clauses = append(clauses, clause)
		} else {
			p.synchronize(base, startCol, true)
		}
		if p.accept(token.Comma) {
			continue
		}
		if p.at(token.RBrace) {
			break
		}
		if p.cur.Pos.Offset == before {
			p.advance()
			continue
		}
		if clause != nil {
			p.failf(p.cur.Pos, "expected ',' or '}' after match clause, found %s", describeToken(p.cur))
		}
	}
	p.expect(token.RBrace, "to close match clauses")
	if len(clauses) == 0 {
		p.failf(subject.Position(), "match expression needs at least one clause")
	}
	return ast.At(subject.Position(), ast.NewMatchExpression(subject, clauses))
}

func (p *Parser) parseClause() *ast.MatchClause {
	start := p.cur.Pos
	pattern := p.parsePattern()
	var guard ast.Expression
	if p.accept(token.If) {
		guard = p.parseExpression(precLowest)
	}
	p.expect(token.Arrow, "after match pattern")
	body := p.parseExpression(precLowest)
	return ast.At(start, ast.NewMatchClause(pattern, body, guard))
}
