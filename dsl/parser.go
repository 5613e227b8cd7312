package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})`},
		{Name: "Number", Pattern: `-?(?:\d*\.\d+|\d+)(?:fr|pt|mm|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	reportParser = participle.MustBuild[Report](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
	)
)

// tokenKinds names the lexer token types, eg: tokenKinds[tok.Type] == "Number".
var tokenKinds = func() map[lexer.TokenType]string {
	kinds := map[lexer.TokenType]string{}
	for name, tt := range dslLexer.Symbols() {
		kinds[tt] = name
	}
	return kinds
}()

// Report is the root AST node of a report file:
//
//	report "Title" landscape letter { ... }
type Report struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Title  StringLiteral  `parser:"Newline* 'report' @String?"`
	Params []*Lexeme      `parser:"@@*"`
	Block  *Block         `parser:"@@ Newline*"`
}

// Block is a delimited list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block: an assignment, a command or a bare string.
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command is a keyword with arguments and an optional body, eg:
//
//	column 2fr right split
//	cell span 2 bold { "Total" }
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral encapsulates raw string statements within blocks.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value is the right-hand side of an assignment.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Bool   *Boolean       `parser:"| @('true' | 'false')"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Path   *Path          `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` lists, eg: chart values.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject captures `{ key: value }` inline maps.
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// Boolean is a true/false literal.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Path is a dotted reference into the bound data, eg: totals.qty.
type Path struct {
	Segments []string `parser:"@Ident ( '.' @Ident )*"`
}

func (p Path) String() string { return strings.Join(p.Segments, ".") }

// Lexeme is a single command argument token.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable. An argument list ends at a
// newline, a brace or a semicolon.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	tok := lex.Peek()
	if tok.EOF() {
		return participle.NextMatch
	}
	kind := tokenKinds[tok.Type]
	switch {
	case kind == "Newline", kind == "LBrace", kind == "RBrace":
		return participle.NextMatch
	case kind == "Symbol" && tok.Value == ";":
		return participle.NextMatch
	}

	value := tok.Value
	if kind == "String" {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", tok.Pos, err)
		}
		value = unquoted
	}
	lex.Next()
	*l = Lexeme{Type: kind, Value: value, Raw: tok.Value, Pos: tok.Pos}
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a report from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Report, error) {
	rep, err := reportParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return rep, nil
}

// ParseString parses a report from a string.
func ParseString(input string) (*Report, error) {
	rep, err := reportParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return rep, nil
}
