// Package parsec layers rule cells, furthest-failure diagnostics and
// source positions over the goparsify combinators.
//
// A goparsify Parser reports at most one expected token and forgets
// it once a later alternative succeeds. The readers built here need
// the full set of things that could have come next at the deepest
// offset reached, so every parse carries a tracker alongside its
// goparsify State that collects them.
package parsec

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	gp "github.com/vektah/goparsify"
)

// ErrUnresolvedRule is the panic value raised when a Later
// placeholder is run before anything was assigned to it.
var ErrUnresolvedRule = errors.New("parsec: unresolved forward-reference rule")

// Parser is a rule cell. Composite parsers hold a pointer to the
// goparsify Parser inside each cell they were built from, and
// goparsify dereferences it at parse time, so SetBehaviour on a cell
// is seen by every parser that references it.
type Parser struct {
	fn gp.Parser
}

// New wraps a goparsify Parser into a rule cell. fn must report
// failures with Expect.
func New(fn gp.Parser) *Parser {
	return &Parser{fn: fn}
}

// Custom adopts any goparsify Parser, including the library's own
// (gp.NumberLit, gp.StringLit, ...). A failure it raises with
// State.ErrorHere is carried into the expected set.
func Custom(fn gp.Parser) *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		fn(ps, node)
		if ps.Errored() {
			trackerFor(ps).note(ps.Error.Pos(), []string{expectedOf(ps.Error)})
		}
	})
}

// Native returns a goparsify Parser that runs whatever behaviour
// the cell holds when it is called.
func (p *Parser) Native() gp.Parser {
	return gp.Parsify(&p.fn)
}

// Behaviour returns the cell's current matcher.
func (p *Parser) Behaviour() gp.Parser {
	return p.fn
}

// SetBehaviour swaps the cell's matcher in place.
func (p *Parser) SetBehaviour(fn gp.Parser) {
	p.fn = fn
}

// Later returns an unresolved placeholder, to be tied to its
// real behaviour with SetBehaviour once the grammar exists.
func Later() *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		panic(ErrUnresolvedRule)
	})
}

// tracker is the per-parse record of the deepest failure seen so
// far and what was expected there, plus the line index used by
// Index and Mark.
type tracker struct {
	furthest int
	expected []string
	lines    *LineIndex
}

type failureMark struct {
	furthest int
	expected []string
}

func newTracker(src string) *tracker {
	return &tracker{furthest: -1, lines: NewLineIndex(src)}
}

// trackers maps each in-flight *gp.State to its tracker.
var trackers sync.Map

func trackerFor(ps *gp.State) *tracker {
	if t, ok := trackers.Load(ps); ok {
		return t.(*tracker)
	}
	// a cell run outside Parse still works; its diagnostics are dropped
	return newTracker(ps.Input)
}

func (t *tracker) note(at int, expected []string) {
	switch {
	case at > t.furthest:
		t.furthest = at
		t.expected = append([]string(nil), expected...)
	case at == t.furthest:
		t.expected = union(t.expected, expected)
	}
}

func (t *tracker) save() failureMark {
	return failureMark{furthest: t.furthest, expected: t.expected}
}

func (t *tracker) restore(m failureMark) {
	t.furthest, t.expected = m.furthest, m.expected
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Expect fails the current parser at the current offset. Rules
// built with New report their failures through it.
func Expect(ps *gp.State, expected ...string) {
	if len(expected) == 0 {
		expected = []string{"something else"}
	}
	trackerFor(ps).note(ps.Pos, expected)
	ps.ErrorHere(expected[0])
}

func expectedOf(e gp.Error) string {
	return strings.TrimPrefix(e.Error(), fmt.Sprintf("offset %d: expected ", e.Pos()))
}

func cells(rules []*Parser) []gp.Parserish {
	out := make([]gp.Parserish, len(rules))
	for k, p := range rules {
		out[k] = &p.fn
	}
	return out
}

// leaf adapts a goparsify matcher that leaves its match in .Token.
func leaf(match gp.Parser, expected string) *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		match(ps, node)
		if ps.Errored() {
			Expect(ps, expected)
			return
		}
		node.Result = node.Token
	})
}

// Str matches the literal s.
func Str(s string) *Parser {
	return leaf(gp.Exact(s), strconv.Quote(s))
}

// Regexp matches pattern anchored at the current offset. The value
// is the matched text. An empty match counts as a failure.
func Regexp(pattern string) *Parser {
	return leaf(gp.Regex(`(?:`+pattern+`)`), `/`+pattern+`/`)
}

// NotChars matches at least min runes up to the first one found in
// matcher (goparsify's range syntax, e.g. "a-z\n").
func NotChars(matcher string, min int) *Parser {
	return leaf(gp.NotChars(matcher, min), "anything but "+strconv.Quote(matcher))
}

// nextRune decodes the rune at the current offset. At end of input
// it fails with expected; invalid UTF-8 is never read as U+FFFD.
func nextRune(ps *gp.State, expected string) (rune, int, bool) {
	if ps.Pos >= len(ps.Input) {
		Expect(ps, expected)
		return 0, 0, false
	}
	r, size := utf8.DecodeRuneInString(ps.Get())
	if r == utf8.RuneError && size == 1 {
		Expect(ps, "valid UTF-8")
		return 0, 0, false
	}
	return r, size, true
}

// Satisfy matches one rune for which pred holds. The value is the rune.
func Satisfy(pred func(r rune) bool, desc string) *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		r, size, ok := nextRune(ps, desc)
		if !ok {
			return
		}
		if !pred(r) {
			Expect(ps, desc)
			return
		}
		ps.Advance(size)
		node.Result = r
	})
}

// Char matches exactly the rune c.
func Char(c rune) *Parser {
	return Satisfy(func(r rune) bool { return r == c }, strconv.QuoteRune(c))
}

// CharNot matches any single rune at which none of rules match.
func CharNot(rules ...*Parser) *Parser {
	excluded := gp.ParsifyAll(cells(rules)...)
	return New(func(ps *gp.State, node *gp.Result) {
		if ps.Pos >= len(ps.Input) {
			Expect(ps, "any character")
			return
		}
		t := trackerFor(ps)
		mark := t.save()
		start := ps.Pos
		for _, rule := range excluded {
			var r gp.Result
			rule(ps, &r)
			if !ps.Errored() {
				ps.Pos = start
				t.restore(mark)
				Expect(ps, "a character that needs no escape")
				return
			}
			ps.Recover()
		}
		t.restore(mark)

		r, size, ok := nextRune(ps, "any character")
		if !ok {
			return
		}
		ps.Advance(size)
		node.Result = r
	})
}

// Succeed consumes nothing and yields v.
func Succeed(v interface{}) *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		node.Result = v
	})
}

// Fail never matches.
func Fail(expected string) *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		Expect(ps, expected)
	})
}

func atEOF(ps *gp.State, node *gp.Result) {
	if ps.Pos < len(ps.Input) {
		Expect(ps, "EOF")
	}
}

// EOF matches only at the end of input.
func EOF() *Parser {
	return New(atEOF)
}

func childValues(n *gp.Result) {
	vals := make([]interface{}, len(n.Child))
	for k := range n.Child {
		vals[k] = n.Child[k].Result
	}
	n.Result = vals
}

// Seq runs rules in order; the value is a []interface{} of their values.
func Seq(rules ...*Parser) *Parser {
	return New(gp.Seq(cells(rules)...).Map(childValues))
}

// SeqMap is Seq followed by fn over the collected values.
func SeqMap(fn func(vals []interface{}) interface{}, rules ...*Parser) *Parser {
	return Seq(rules...).Map(func(v interface{}) interface{} {
		return fn(v.([]interface{}))
	})
}

// Alt tries rules in order and returns the first success. Unlike
// gp.Any it also tries every branch at end of input.
func Alt(rules ...*Parser) *Parser {
	branches := gp.ParsifyAll(cells(rules)...)
	return New(func(ps *gp.State, node *gp.Result) {
		if len(branches) == 0 {
			Expect(ps, "nothing")
			return
		}
		var failed gp.Error
		for _, branch := range branches {
			var r gp.Result
			branch(ps, &r)
			if !ps.Errored() {
				*node = r
				return
			}
			failed = ps.Error
			ps.Recover()
		}
		ps.Error = failed
	})
}

// consuming panics when p succeeds without moving, which would
// make an unbounded repetition spin forever.
func (p *Parser) consuming() gp.Parser {
	elem := p.Native()
	return func(ps *gp.State, node *gp.Result) {
		at := ps.Pos
		elem(ps, node)
		if !ps.Errored() && ps.Pos == at {
			panic(fmt.Sprintf("parsec: repeated rule matched empty input at offset %d", at))
		}
	}
}

// Times matches p between min and max times (max < 0 means no
// upper bound). The value is a []interface{}.
func (p *Parser) Times(min, max int) *Parser {
	if max < 0 {
		if min <= 0 {
			return New(gp.Some(p.consuming()).Map(childValues))
		}
		if min == 1 {
			return New(gp.Many(p.consuming()).Map(childValues))
		}
	}
	elem := p.Native()
	if max < 0 {
		elem = p.consuming()
	}
	return New(func(ps *gp.State, node *gp.Result) {
		start := ps.Pos
		vals := []interface{}{}
		var failed gp.Error
		for max < 0 || len(vals) < max {
			var r gp.Result
			elem(ps, &r)
			if ps.Errored() {
				failed = ps.Error
				ps.Recover()
				break
			}
			vals = append(vals, r.Result)
		}
		if len(vals) < min {
			ps.Pos = start
			ps.Error = failed
			return
		}
		node.Result = vals
	})
}

// Many matches p zero or more times.
func (p *Parser) Many() *Parser { return p.Times(0, -1) }

// AtLeast matches p n or more times.
func (p *Parser) AtLeast(n int) *Parser { return p.Times(n, -1) }

// AtMost matches p up to n times.
func (p *Parser) AtMost(n int) *Parser { return p.Times(0, n) }

// Map transforms a successful value.
func (p *Parser) Map(fn func(v interface{}) interface{}) *Parser {
	return New(gp.Map(&p.fn, func(n *gp.Result) {
		n.Result = fn(n.Result)
	}))
}

// Then runs p then next, keeping next's value.
func (p *Parser) Then(next *Parser) *Parser {
	return Seq(p, next).Map(func(v interface{}) interface{} {
		return v.([]interface{})[1]
	})
}

// Skip runs p then next, keeping p's value.
func (p *Parser) Skip(next *Parser) *Parser {
	return Seq(p, next).Map(func(v interface{}) interface{} {
		return v.([]interface{})[0]
	})
}

// Desc replaces what p's own failures report as expected. Deeper
// failures recorded before p ran are kept.
func (p *Parser) Desc(expected string) *Parser {
	inner := p.Native()
	return New(func(ps *gp.State, node *gp.Result) {
		t := trackerFor(ps)
		outer := t.save()
		t.restore(failureMark{furthest: -1})
		inner(ps, node)
		if ps.Errored() {
			if t.furthest < 0 {
				t.furthest = ps.Error.Pos()
			}
			t.expected = []string{expected}
		}
		own := t.save()
		t.restore(outer)
		if own.furthest >= 0 {
			t.note(own.furthest, own.expected)
		}
	})
}

// Mark wraps p so its value carries the positions before and
// after p ran.
func (p *Parser) Mark() *Parser {
	return Mark(p)
}

// Parse runs p over the whole of src. Leftover input is a failure.
func Parse(p *Parser, src string) (interface{}, error) {
	ps := gp.NewState(src)
	ps.WS = gp.NoWhitespace
	t := newTracker(src)
	trackers.Store(ps, t)
	defer trackers.Delete(ps)

	var node gp.Result
	p.fn(ps, &node)
	if !ps.Errored() {
		atEOF(ps, &node)
	}
	if !ps.Errored() {
		return node.Result, nil
	}

	if t.furthest < 0 {
		t.note(ps.Error.Pos(), []string{expectedOf(ps.Error)})
	}
	expected := append([]string(nil), t.expected...)
	sort.Strings(expected)
	return nil, &ParseError{
		Pos:      t.lines.Position(t.furthest),
		Expected: expected,
	}
}
