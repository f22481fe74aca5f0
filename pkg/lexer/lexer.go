package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ajkachnic/bliss/pkg/token"
)

const eof = -1

// interpolation tracks one open `#{` inside a string literal.
type interpolation struct {
	quote rune
	depth int
}

// Lexer turns source text into tokens on demand. A Lexer is single pass:
// once it reports EOF it keeps reporting EOF.
type Lexer struct {
	src string

	ch     rune
	width  int
	offset int
	line   int
	column int

	modes []interpolation
	// last is the kind of the previous token.
	last token.Kind
}

// New creates a lexer positioned at the start of src.
func New(src string) *Lexer {
	l := &Lexer{src: src, line: 1, column: 1}
	l.decode()
	return l
}

// Tokenize scans the whole input, including the trailing EOF token.
func Tokenize(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) decode() {
	if l.offset >= len(l.src) {
		l.ch, l.width = eof, 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.src[l.offset:])
	l.ch, l.width = r, w
}

func (l *Lexer) advance() {
	if l.ch == eof {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.offset += l.width
	l.decode()
}

func (l *Lexer) peek() rune {
	next := l.offset + l.width
	if next >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[next:])
	return r
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.offset}
}

// Next returns the next token of the stream.
func (l *Lexer) Next() token.Token {
	tok := l.next()
	l.last = tok.Kind
	return tok
}

func (l *Lexer) next() token.Token {
	l.skipTrivia()
	start := l.pos()

	if n := len(l.modes); n > 0 && l.modes[n-1].depth == 0 && l.ch == '}' {
		l.advance()
		quote := l.modes[n-1].quote
		l.modes = l.modes[:n-1]
		return l.scanString(quote, start)
	}

	if l.ch == eof {
		if len(l.modes) > 0 {
			l.modes = l.modes[:0]
			return token.Token{Kind: token.Illegal, Pos: start, Err: "unterminated string interpolation"}
		}
		return token.Token{Kind: token.EOF, Pos: start}
	}

	ch := l.ch
	switch {
	case isLetter(ch):
		ident := l.scanIdent()
		return token.Token{Kind: token.LookupIdent(ident), Literal: ident, Pos: start}
	case isDigit(ch):
		return token.Token{Kind: token.Number, Literal: l.scanNumber(l.last != token.Dot), Pos: start}
	case ch == '\'' || ch == '"':
		l.advance()
		return l.scanString(ch, start)
	}

	l.advance()
	switch ch {
	case '=':
		if l.ch == '=' {
			l.advance()
			return l.emit(token.Eq, "==", start)
		}
		return l.emit(token.Assign, "=", start)
	case '+':
		return l.emit(token.Plus, "+", start)
	case '-':
		if l.ch == '>' {
			l.advance()
			return l.emit(token.Arrow, "->", start)
		}
		return l.emit(token.Minus, "-", start)
	case '*':
		return l.emit(token.Star, "*", start)
	case '/':
		return l.emit(token.Slash, "/", start)
	case '%':
		return l.emit(token.Percent, "%", start)
	case '!':
		if l.ch == '=' {
			l.advance()
			return l.emit(token.NotEq, "!=", start)
		}
		return l.emit(token.Bang, "!", start)
	case '<':
		if l.ch == '=' {
			l.advance()
			return l.emit(token.LtEq, "<=", start)
		}
		return l.emit(token.Lt, "<", start)
	case '>':
		if l.ch == '=' {
			l.advance()
			return l.emit(token.GtEq, ">=", start)
		}
		return l.emit(token.Gt, ">", start)
	case '&':
		if l.ch == '&' {
			l.advance()
			return l.emit(token.And, "&&", start)
		}
	case '|':
		switch l.ch {
		case '|':
			l.advance()
			return l.emit(token.Or, "||", start)
		case '>':
			l.advance()
			return l.emit(token.Pipe, "|>", start)
		}
	case '.':
		if l.ch == '.' {
			l.advance()
			return l.emit(token.Range, "..", start)
		}
		return l.emit(token.Dot, ".", start)
	case ':':
		if l.ch == ':' {
			l.advance()
			return l.emit(token.DoubleColon, "::", start)
		}
		if isLetter(l.ch) {
			return token.Token{Kind: token.Atom, Literal: l.scanIdent(), Pos: start}
		}
		return l.emit(token.Colon, ":", start)
	case '#':
		switch l.ch {
		case '[':
			l.advance()
			return l.emit(token.HashBracket, "#[", start)
		case '{':
			l.advance()
			l.openBrace()
			return l.emit(token.HashBrace, "#{", start)
		}
	case ',':
		return l.emit(token.Comma, ",", start)
	case ';':
		return l.emit(token.Semicolon, ";", start)
	case '(':
		return l.emit(token.LParen, "(", start)
	case ')':
		return l.emit(token.RParen, ")", start)
	case '[':
		return l.emit(token.LBracket, "[", start)
	case ']':
		return l.emit(token.RBracket, "]", start)
	case '{':
		l.openBrace()
		return l.emit(token.LBrace, "{", start)
	case '}':
		if n := len(l.modes); n > 0 {
			l.modes[n-1].depth--
		}
		return l.emit(token.RBrace, "}", start)
	}
	return token.Token{
		Kind:    token.Illegal,
		Literal: string(ch),
		Pos:     start,
		Err:     fmt.Sprintf("unexpected character %q", ch),
	}
}

func (l *Lexer) emit(kind token.Kind, lit string, pos token.Position) token.Token {
	return token.Token{Kind: kind, Literal: lit, Pos: pos}
}

func (l *Lexer) openBrace() {
	if n := len(l.modes); n > 0 {
		l.modes[n-1].depth++
	}
}

func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.advance()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && l.ch != eof {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanIdent() string {
	start := l.offset
	for isLetter(l.ch) || isDigit(l.ch) {
		l.advance()
	}
	return l.src[start:l.offset]
}

// scanNumber reads a decimal literal. Positional members such as the 1 in
// `t.1.0` take no fraction.
func (l *Lexer) scanNumber(fraction bool) string {
	start := l.offset
	for isDigit(l.ch) {
		l.advance()
	}
	if fraction && l.ch == '.' && isDigit(l.peek()) {
		l.advance()
		for isDigit(l.ch) {
			l.advance()
		}
	}
	return l.src[start:l.offset]
}

// scanString reads string contents up to the closing quote or the next
// interpolation. The opening quote (or the closing brace of the previous
// interpolation) has already been consumed.
func (l *Lexer) scanString(quote rune, start token.Position) token.Token {
	var sb strings.Builder
	for {
		switch l.ch {
		case eof:
			return token.Token{Kind: token.Illegal, Literal: sb.String(), Pos: start, Err: "unterminated string"}
		case quote:
			l.advance()
			return token.Token{Kind: token.String, Literal: sb.String(), Pos: start}
		case '\\':
			l.advance()
			sb.WriteRune(unescape(l.ch))
			l.advance()
		case '#':
			if l.peek() == '{' {
				l.advance()
				l.advance()
				l.modes = append(l.modes, interpolation{quote: quote})
				return token.Token{Kind: token.StringPart, Literal: sb.String(), Pos: start}
			}
			sb.WriteRune(l.ch)
			l.advance()
		default:
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	}
	return ch
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
