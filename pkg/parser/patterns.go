package parser

import (
	"strconv"

	"github.com/ajkachnic/bliss/pkg/ast"
	"github.com/ajkachnic/bliss/pkg/token"
)

func (p *Parser) parsePattern() ast.Pattern {
	tok := p.cur
	switch tok.Kind {
	case token.Ident:
		p.advance()
		if tok.Literal == "_" {
			return ast.At(tok.Pos, ast.NewWildcardPattern())
		}
		return ast.At(tok.Pos, ast.NewBindingPattern(ast.At(tok.Pos, ast.NewIdentifier(tok.Literal))))
	case token.Number:
		return ast.At(tok.Pos, ast.NewLiteralPattern(p.parseNumberLiteral(false)))
	case token.Minus:
		p.advance()
		if !p.at(token.Number) {
			p.failf(p.cur.Pos, "expected number after '-' in pattern, found %s", describeToken(p.cur))
		}
		return ast.At(tok.Pos, ast.NewLiteralPattern(p.parseNumberLiteral(true)))
	case token.String:
		p.advance()
		return ast.At(tok.Pos, ast.NewLiteralPattern(ast.At(tok.Pos, ast.NewStringLiteral(tok.Literal))))
	case token.StringPart:
		p.failf(tok.Pos, "interpolated strings cannot be used as patterns")
	case token.True, token.False:
		p.advance()
		return ast.At(tok.Pos, ast.NewLiteralPattern(ast.At(tok.Pos, ast.NewBooleanLiteral(tok.Kind == token.True))))
	case token.Null:
		p.advance()
		return ast.At(tok.Pos, ast.NewLiteralPattern(ast.At(tok.Pos, ast.NewNullLiteral())))
	case token.Atom:
		p.advance()
		return ast.At(tok.Pos, ast.NewAtomPattern(tok.Literal))
	case token.LBracket:
		return p.parseSequencePattern(false)
	case token.HashBracket:
		return p.parseSequencePattern(true)
	case token.HashBrace:
		return p.parseRecordPattern()
	case token.LParen:
		p.advance()
		inner := p.parsePattern()
		if p.accept(token.If) {
			guard := p.parseExpression(precLowest)
			p.expect(token.RParen, "to close guarded pattern")
			return ast.At(tok.Pos, ast.NewGuardedPattern(inner, guard))
		}
		p.expect(token.RParen, "to close pattern")
		return inner
	}
	p.failf(tok.Pos, "expected pattern, found %s", describeToken(tok))
	return nil
}

func (p *Parser) parseNumberLiteral(negate bool) ast.Expression {
	tok := p.advance()
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.failf(tok.Pos, "invalid number %s", tok.Literal)
	}
	if negate {
		value = -value
	}
	return ast.At(tok.Pos, ast.NewNumberLiteral(value))
}

// parseSequencePattern parses `[a, b]` (a tuple pattern unless it has a
// rest element) and `#[a, ..rest]` (always a list pattern).
func (p *Parser) parseSequencePattern(list bool) ast.Pattern {
	start := p.advance().Pos
	var elems []ast.Pattern
	var rest ast.Pattern
	for !p.at(token.RBracket) {
		if p.at(token.Range) {
			restTok := p.advance()
			rest = p.parseRestTarget(restTok)
			p.accept(token.Comma)
			if !p.at(token.RBracket) {
				p.failf(p.cur.Pos, "rest pattern must be the last element")
			}
			break
		}
		elems = append(elems, p.parsePattern())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, "to close sequence pattern")
	if list || rest != nil {
		return ast.At(start, ast.NewListPattern(elems, rest))
	}
	return ast.At(start, ast.NewTuplePattern(elems))
}

func (p *Parser) parseRestTarget(rangeTok token.Token) ast.Pattern {
	tok := p.cur
	if tok.Kind != token.Ident {
		p.failf(tok.Pos, "expected name or '_' after '..', found %s", describeToken(tok))
	}
	p.advance()
	if tok.Literal == "_" {
		return ast.At(rangeTok.Pos, ast.NewWildcardPattern())
	}
	return ast.At(rangeTok.Pos, ast.NewBindingPattern(ast.At(tok.Pos, ast.NewIdentifier(tok.Literal))))
}

// parseRecordPattern parses `#{ a, b = pat, 'key' = pat, :key = pat }`.
// A bare name binds the field of the same name.
func (p *Parser) parseRecordPattern() ast.Pattern {
	start := p.advance().Pos
	var fields []*ast.RecordPatternField
	for !p.at(token.RBrace) {
		tok := p.cur
		var key ast.RecordKey
		switch tok.Kind {
		case token.Ident, token.String:
			key = ast.RecordKey{Name: tok.Literal}
		case token.Atom:
			key = ast.RecordKey{Name: tok.Literal, Atom: true}
		default:
			p.failf(tok.Pos, "expected record key in pattern, found %s", describeToken(tok))
		}
		p.advance()
		var sub ast.Pattern
		if p.accept(token.Assign) {
			sub = p.parsePattern()
		} else if tok.Kind == token.Ident {
			sub = ast.At(tok.Pos, ast.NewBindingPattern(ast.At(tok.Pos, ast.NewIdentifier(tok.Literal))))
		} else {
			p.failf(p.cur.Pos, "expected '=' after record key in pattern, found %s", describeToken(p.cur))
		}
		fields = append(fields, ast.At(tok.Pos, ast.NewRecordPatternField(key, sub)))
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, "to close record pattern")
	return ast.At(start, ast.NewRecordPattern(fields))
}
