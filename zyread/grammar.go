package zyread

import (
	"errors"
	"fmt"

	"github.com/glycerine/zyread/parsec"
)

var ErrNotANode = errors.New("rule produced a value that is not a Node")

func errNotANode(v interface{}) error {
	return fmt.Errorf("%w: %T", ErrNotANode, v)
}

// BasicRules are the character, trivia and structural rules.
//
// ListTerminator is the bare CloseParenChar and does not consume
// the trivia after it; the Lexeme wrapped around List does that,
// outside the List's Mark. A list's span therefore ends right after
// its closing paren, and a quoted form's span ends where the quoted
// expression's own span ends.
type BasicRules struct {
	OpenParenChar               *parsec.Parser
	CloseParenChar              *parsec.Parser
	CommentChar                 *parsec.Parser
	EscapeChar                  *parsec.Parser
	StringDelimiterChar         *parsec.Parser
	QuoteChar                   *parsec.Parser
	QuasiquoteChar              *parsec.Parser
	UnquoteChar                 *parsec.Parser
	UnquoteSplicingModifierChar *parsec.Parser
	WhitespaceChar              *parsec.Parser
	Whitespace                  *parsec.Parser
	EndOfLineComment            *parsec.Parser
	OptWhitespace               *parsec.Parser
	ShebangLine                 *parsec.Parser
	SingleCharEscape            *parsec.Parser
	List                        *parsec.Parser
	ListOpener                  *parsec.Parser
	ListTerminator              *parsec.Parser
	ListContent                 *parsec.Parser
	Expression                  *parsec.Parser
}

type AtomRules struct {
	Main              *parsec.Parser
	CharNeedingEscape *parsec.Parser
	EscapedCharacter  *parsec.Parser
	NormalCharacter   *parsec.Parser
	AnyCharacter      *parsec.Parser
}

type StringRules struct {
	Main             *parsec.Parser
	Delimiter        *parsec.Parser
	EscapedDelimiter *parsec.Parser
	EscapedCharacter *parsec.Parser
	NormalCharacter  *parsec.Parser
	AnyCharacter     *parsec.Parser
	Content          *parsec.Parser
}

type QuotedRules struct {
	Main            *parsec.Parser
	Quote           *parsec.Parser
	Quasiquote      *parsec.Parser
	Unquote         *parsec.Parser
	UnquoteSplicing *parsec.Parser
	AnyQuote        *parsec.Parser
}

// Grammar is the assembled reader. Every field is a rule cell that a
// host may read, Clone or Replace.
//
// Build the grammar once and treat it as read-only while any parse
// is running; Replace rules only between parses. Separate parses
// over the same Grammar may run concurrently as long as nothing is
// being replaced.
type Grammar struct {
	Main   *parsec.Parser
	Basic  BasicRules
	Atom   AtomRules
	String StringRules
	Quoted QuotedRules

	syntax *Syntax
}

// NewGrammar builds and ties a grammar for syn (nil means DefaultSyntax).
func NewGrammar(syn *Syntax) *Grammar {
	if syn == nil {
		syn = DefaultSyntax()
	}
	g := &Grammar{syntax: syn}
	b := &g.Basic

	b.OpenParenChar = parsec.Char(syn.OpenParen)
	b.CloseParenChar = parsec.Char(syn.CloseParen)
	b.CommentChar = parsec.Char(syn.Comment)
	b.EscapeChar = parsec.Char(syn.Escape)
	b.StringDelimiterChar = parsec.Char(syn.StringDelimiter)
	b.QuoteChar = parsec.Char(syn.Quote)
	b.QuasiquoteChar = parsec.Char(syn.Quasiquote)
	b.UnquoteChar = parsec.Char(syn.Unquote)
	b.UnquoteSplicingModifierChar = parsec.Char(syn.UnquoteSplicingModifier)
	b.WhitespaceChar = parsec.Satisfy(syn.IsWhitespace, "whitespace")
	b.Whitespace = b.WhitespaceChar.AtLeast(1)

	b.EndOfLineComment = b.CommentChar.
		Then(parsec.NotChars("\n", 0)).
		Skip(parsec.Alt(parsec.Str("\n"), parsec.EOF())).
		Desc("end-of-line comment")
	b.OptWhitespace = parsec.Alt(b.EndOfLineComment, b.Whitespace).Many()

	b.SingleCharEscape = b.EscapeChar.
		Then(parsec.Satisfy(func(r rune) bool {
			_, ok := syn.ResolveEscape(r, false)
			return ok
		}, "escape character")).
		Map(func(v interface{}) interface{} {
			r, _ := syn.ResolveEscape(v.(rune), false)
			return r
		})

	g.buildString()
	g.buildAtom()

	b.ListOpener = g.Lexeme(b.OpenParenChar).Desc("opening paren")
	b.ListTerminator = b.CloseParenChar.Desc("closing paren")

	// List and Quoted.Main are recursive; they start as forward
	// references and are tied below.
	b.List = parsec.Later()
	g.Quoted.Main = parsec.Later()
	b.Expression = parsec.Alt(
		b.List,
		g.Atom.Main,
		g.String.Main,
		g.Quoted.Main,
	)
	b.ListContent = b.Expression.Many().Desc("list content")
	Replace(b.List, g.Lexeme(b.ListOpener.
		Then(b.ListContent).
		Skip(b.ListTerminator).
		Mark().
		Map(toListNode)))

	g.buildQuoted()

	b.ShebangLine = parsec.Str(syn.ShebangPrefix).
		Then(parsec.NotChars("\n", 0)).
		Skip(parsec.Alt(parsec.Str("\n"), parsec.EOF())).
		Desc("shebang line")

	g.Main = b.ShebangLine.AtMost(1).
		Then(b.OptWhitespace).
		Then(b.Expression.Many())

	return g
}

// Syntax returns the character set the grammar was built with.
func (g *Grammar) Syntax() *Syntax {
	return g.syntax
}

// Lexeme makes p consume the trivia that follows it.
func (g *Grammar) Lexeme(p *parsec.Parser) *parsec.Parser {
	return p.Skip(g.Basic.OptWhitespace)
}

func (g *Grammar) buildString() {
	b := &g.Basic
	s := &g.String

	s.Delimiter = b.StringDelimiterChar
	s.EscapedDelimiter = b.EscapeChar.Then(s.Delimiter)
	s.EscapedCharacter = parsec.Alt(s.EscapedDelimiter, b.SingleCharEscape)
	s.NormalCharacter = parsec.CharNot(s.Delimiter, b.EscapeChar)
	s.AnyCharacter = parsec.Alt(s.NormalCharacter, s.EscapedCharacter)
	s.Content = s.AnyCharacter.Many().Desc("string content")

	s.Main = g.Lexeme(s.Delimiter.Desc("string-opener").
		Then(s.Content).
		Skip(s.Delimiter.Desc("string-terminator")).
		Mark().
		Map(toStringNode).
		Desc("string literal"))
}

func (g *Grammar) buildAtom() {
	b := &g.Basic
	a := &g.Atom

	a.CharNeedingEscape = parsec.Alt(
		b.CommentChar,
		b.StringDelimiterChar,
		b.QuoteChar,
		b.QuasiquoteChar,
		b.UnquoteChar,
		b.EscapeChar,
		b.OpenParenChar,
		b.CloseParenChar,
		b.WhitespaceChar,
	)
	a.EscapedCharacter = parsec.Alt(
		b.EscapeChar.Then(a.CharNeedingEscape),
		b.SingleCharEscape,
	)
	a.NormalCharacter = parsec.CharNot(a.CharNeedingEscape)
	a.AnyCharacter = parsec.Alt(a.EscapedCharacter, a.NormalCharacter)

	a.Main = g.Lexeme(a.AnyCharacter.AtLeast(1).
		Mark().
		Map(toAtomNode).
		Desc("atom"))
}

func (g *Grammar) buildQuoted() {
	b := &g.Basic
	q := &g.Quoted

	symbol := func(marker *parsec.Parser, name string) *parsec.Parser {
		return marker.Then(parsec.Succeed(name)).Mark().Map(toSymbolNode)
	}
	q.Quote = symbol(b.QuoteChar, "quote")
	q.Quasiquote = symbol(b.QuasiquoteChar, "quasiquote")
	q.Unquote = symbol(b.UnquoteChar, "unquote")
	q.UnquoteSplicing = symbol(b.UnquoteChar.Then(b.UnquoteSplicingModifierChar), "unquote-splicing")

	// splicing before plain unquote: they share the leading marker
	q.AnyQuote = parsec.Alt(q.Quote, q.Quasiquote, q.UnquoteSplicing, q.Unquote)

	Replace(q.Main, parsec.Seq(g.Lexeme(q.AnyQuote), b.Expression).
		Mark().
		Map(toQuotedNode).
		Desc("quoted expression"))
}

// Parse reads every top-level expression in src. On failure it
// returns a *parsec.ParseError and no nodes.
func (g *Grammar) Parse(src string) ([]Node, error) {
	v, err := parsec.Parse(g.Main, src)
	if err != nil {
		return nil, err
	}
	return toNodes(v), nil
}

// ReadString parses src with a freshly built default grammar.
func ReadString(src string) ([]Node, error) {
	return NewGrammar(nil).Parse(src)
}
