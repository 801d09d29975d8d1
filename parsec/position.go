package parsec

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	gp "github.com/vektah/goparsify"
)

// Position is a location in the input. Offset is a 0-based byte
// offset; Line and Column are 1-based, Column counting runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex maps byte offsets of one input to Positions. The line
// starts are found once; a lookup is a binary search plus a rune
// count from the start of the line, or from the previous lookup
// when it was earlier on the same line.
//
// A LineIndex is not safe for concurrent use. Parse builds one per call.
type LineIndex struct {
	src    string
	starts []int

	lastOffset int
	lastLine   int
	lastColumn int
}

func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); {
		k := strings.IndexByte(src[i:], '\n')
		if k < 0 {
			break
		}
		i += k + 1
		starts = append(starts, i)
	}
	return &LineIndex{src: src, starts: starts}
}

// Lines is the number of lines in the input. A trailing newline
// starts an empty last line.
func (x *LineIndex) Lines() int {
	return len(x.starts)
}

// Position converts byte offset i, clamped to the input.
func (x *LineIndex) Position(i int) Position {
	if i > len(x.src) {
		i = len(x.src)
	}
	if i < 0 {
		i = 0
	}
	line := sort.Search(len(x.starts), func(k int) bool {
		return x.starts[k] > i
	})

	var column int
	if x.lastLine == line && x.lastOffset <= i {
		column = x.lastColumn + utf8.RuneCountInString(x.src[x.lastOffset:i])
	} else {
		column = utf8.RuneCountInString(x.src[x.starts[line-1]:i]) + 1
	}
	x.lastOffset, x.lastLine, x.lastColumn = i, line, column

	return Position{Offset: i, Line: line, Column: column}
}

// PositionAt computes the position of byte offset i in src. Prefer
// a LineIndex when converting many offsets of the same input.
func PositionAt(src string, i int) Position {
	return NewLineIndex(src).Position(i)
}

// Index consumes nothing and yields the current Position.
func Index() *Parser {
	return New(func(ps *gp.State, node *gp.Result) {
		node.Result = trackerFor(ps).lines.Position(ps.Pos)
	})
}

// Marked is the value produced by Mark.
type Marked struct {
	Start Position
	End   Position
	Value interface{}
}

// Mark wraps p so its value is a Marked carrying the position
// before and after p.
func Mark(p *Parser) *Parser {
	inner := p.Native()
	return New(func(ps *gp.State, node *gp.Result) {
		lines := trackerFor(ps).lines
		start := lines.Position(ps.Pos)
		var r gp.Result
		inner(ps, &r)
		if ps.Errored() {
			return
		}
		node.Result = Marked{
			Start: start,
			Value: r.Result,
			End:   lines.Position(ps.Pos),
		}
	})
}

// ParseError is the single failure value returned by Parse.
type ParseError struct {
	Pos      Position
	Expected []string
}

func (e *ParseError) Error() string {
	var want string
	switch len(e.Expected) {
	case 0:
		want = "expected nothing"
	case 1:
		want = "expected " + e.Expected[0]
	default:
		want = "expected one of " + strings.Join(e.Expected, ", ")
	}
	return fmt.Sprintf("%s at line %d column %d (offset %d)",
		want, e.Pos.Line, e.Pos.Column, e.Pos.Offset)
}

// Incomplete reports whether the failure happened at the very end
// of src, meaning more input might have completed the parse.
func (e *ParseError) Incomplete(src string) bool {
	return e.Pos.Offset >= len(src)
}
