package zyread

import (
	"strings"

	"github.com/glycerine/zyread/parsec"
)

type NodeKind int

const (
	KindAtom NodeKind = iota
	KindString
	KindList
)

func (k NodeKind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindString:
		return "string"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Position is a source location: 0-based byte Offset, 1-based Line
// and Column.
type Position = parsec.Position

// Span is the start and end of the source text a node came from.
type Span struct {
	Start Position
	End   Position
}

// Node is a syntax node. Nodes are immutable once built.
type Node interface {
	Kind() NodeKind
	Span() Span
	SexpString() string
}

var (
	_ Node = (*Atom)(nil)
	_ Node = (*StringLiteral)(nil)
	_ Node = (*List)(nil)
)

// Atom is a bare token with its escapes resolved.
type Atom struct {
	Content  string
	Location Span
}

func (a *Atom) Kind() NodeKind { return KindAtom }
func (a *Atom) Span() Span { return a.Location }
func (a *Atom) SexpString() string { return DefaultSyntax().Render(a) }

// StringLiteral is the text between two string delimiters.
type StringLiteral struct {
	Content  string
	Location Span
}

func (s *StringLiteral) Kind() NodeKind { return KindString }
func (s *StringLiteral) Span() Span { return s.Location }
func (s *StringLiteral) SexpString() string { return DefaultSyntax().Render(s) }

// List holds child nodes in source order.
type List struct {
	Content  []Node
	Location Span
}

func (l *List) Kind() NodeKind { return KindList }
func (l *List) Span() Span { return l.Location }
func (l *List) SexpString() string { return DefaultSyntax().Render(l) }

// Render prints n back as source text in this syntax, re-applying
// escapes so that reading the output yields an equal tree.
func (s *Syntax) Render(n Node) string {
	var sb strings.Builder
	s.render(&sb, n)
	return sb.String()
}

func (s *Syntax) render(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *Atom:
		for _, r := range x.Content {
			if letter, ok := escapeLetter(r); ok {
				sb.WriteRune(s.Escape)
				sb.WriteRune(letter)
			} else if s.NeedsEscape(r) {
				sb.WriteRune(s.Escape)
				sb.WriteRune(r)
			} else {
				sb.WriteRune(r)
			}
		}
	case *StringLiteral:
		sb.WriteRune(s.StringDelimiter)
		for _, r := range x.Content {
			if r == s.StringDelimiter || r == s.Escape {
				sb.WriteRune(s.Escape)
				sb.WriteRune(r)
			} else if letter, ok := escapeLetter(r); ok {
				sb.WriteRune(s.Escape)
				sb.WriteRune(letter)
			} else {
				sb.WriteRune(r)
			}
		}
		sb.WriteRune(s.StringDelimiter)
	case *List:
		sb.WriteRune(s.OpenParen)
		for i, child := range x.Content {
			if i > 0 {
				sb.WriteByte(' ')
			}
			s.render(sb, child)
		}
		sb.WriteRune(s.CloseParen)
	default:
		sb.WriteString(n.SexpString())
	}
}

func spanOf(m parsec.Marked) Span {
	return Span{Start: m.Start, End: m.End}
}

func joinRunes(v interface{}) string {
	var sb strings.Builder
	for _, r := range v.([]interface{}) {
		sb.WriteRune(r.(rune))
	}
	return sb.String()
}

func toAtomNode(v interface{}) interface{} {
	m := v.(parsec.Marked)
	return &Atom{Content: joinRunes(m.Value), Location: spanOf(m)}
}

func toStringNode(v interface{}) interface{} {
	m := v.(parsec.Marked)
	return &StringLiteral{Content: joinRunes(m.Value), Location: spanOf(m)}
}

// toSymbolNode builds the synthetic atom of a quote marker; its
// content is the symbol name, its span covers the marker.
func toSymbolNode(v interface{}) interface{} {
	m := v.(parsec.Marked)
	return &Atom{Content: m.Value.(string), Location: spanOf(m)}
}

func toListNode(v interface{}) interface{} {
	m := v.(parsec.Marked)
	return &List{Content: toNodes(m.Value), Location: spanOf(m)}
}

// toQuotedNode pairs the quote symbol with the expression after it.
// The span ends where that expression ends, excluding its trailing trivia.
func toQuotedNode(v interface{}) interface{} {
	m := v.(parsec.Marked)
	kids := toNodes(m.Value)
	loc := spanOf(m)
	loc.End = kids[len(kids)-1].Span().End
	return &List{Content: kids, Location: loc}
}

func toNodes(v interface{}) []Node {
	vals := v.([]interface{})
	nodes := make([]Node, 0, len(vals))
	for _, x := range vals {
		n, ok := x.(Node)
		if !ok {
			panic(errNotANode(x))
		}
		nodes = append(nodes, n)
	}
	return nodes
}
