package token

import "fmt"

// Kind identifies the lexical category of a token.
type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident
	Number
	String
	// StringPart is the literal text preceding an interpolation inside a string.
	StringPart
	Atom

	// keywords
	Let
	Fn
	Return
	Import
	From
	As
	If
	Then
	Else
	True
	False
	Null

	// operators
	Assign   // =
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Percent  // %
	Bang     // !
	Eq       // ==
	NotEq    // !=
	Lt       // <
	LtEq     // <=
	Gt       // >
	GtEq     // >=
	And      // &&
	Or       // ||
	Range    // ..
	Dot      // .
	Arrow    // ->
	DoubleColon
	Pipe  // |>
	Colon // :

	// delimiters
	Comma
	Semicolon
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	HashBracket // #[
	HashBrace   // #{
)

var kindNames = map[Kind]string{
	Illegal:     "illegal",
	EOF:         "end of input",
	Ident:       "identifier",
	Number:      "number",
	String:      "string",
	StringPart:  "string",
	Atom:        "atom",
	Let:         "let",
	Fn:          "fn",
	Return:      "return",
	Import:      "import",
	From:        "from",
	As:          "as",
	If:          "if",
	Then:        "then",
	Else:        "else",
	True:        "true",
	False:       "false",
	Null:        "null",
	Assign:      "=",
	Plus:        "+",
	Minus:       "-",
	Star:        "*",
	Slash:       "/",
	Percent:     "%",
	Bang:        "!",
	Eq:          "==",
	NotEq:       "!=",
	Lt:          "<",
	LtEq:        "<=",
	Gt:          ">",
	GtEq:        ">=",
	And:         "&&",
	Or:          "||",
	Range:       "..",
	Dot:         ".",
	Arrow:       "->",
	DoubleColon: "::",
	Pipe:        "|>",
	Colon:       ":",
	Comma:       ",",
	Semicolon:   ";",
	LParen:      "(",
	RParen:      ")",
	LBracket:    "[",
	RBracket:    "]",
	LBrace:      "{",
	RBrace:      "}",
	HashBracket: "#[",
	HashBrace:   "#{",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"let":    Let,
	"fn":     Fn,
	"return": Return,
	"import": Import,
	"from":   From,
	"as":     As,
	"if":     If,
	"then":   Then,
	"else":   Else,
	"true":   True,
	"false":  False,
	"null":   Null,
}

// LookupIdent maps reserved words to their keyword kind.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return Ident
}

// Position locates a token in its source. Line and Column are 1-based;
// Column counts runes and Offset counts bytes.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position points into a source.
func (p Position) IsValid() bool { return p.Line > 0 }

// Before orders positions by offset.
func (p Position) Before(other Position) bool { return p.Offset < other.Offset }

// Token is a single lexeme. Literal holds the decoded text for strings and
// atoms and the raw text for everything else.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
	// Err describes the problem for Illegal tokens.
	Err string
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Number:
		return t.Literal
	case String, StringPart:
		return fmt.Sprintf("%q", t.Literal)
	case Atom:
		return ":" + t.Literal
	case Illegal:
		return fmt.Sprintf("illegal %q", t.Literal)
	}
	return t.Kind.String()
}
