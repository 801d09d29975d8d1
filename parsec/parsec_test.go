package parsec

import (
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
	gp "github.com/vektah/goparsify"
)

func Test001PositionAtCountsLinesAndRunes(t *testing.T) {

	cv.Convey(`PositionAt should count newlines in the consumed prefix, and the column should be the rune length of the partial last line plus one`, t, func() {
		src := "ab\ncdé\nf"
		cv.So(PositionAt(src, 0), cv.ShouldResemble, Position{Offset: 0, Line: 1, Column: 1})
		cv.So(PositionAt(src, 2), cv.ShouldResemble, Position{Offset: 2, Line: 1, Column: 3})
		cv.So(PositionAt(src, 3), cv.ShouldResemble, Position{Offset: 3, Line: 2, Column: 1})
		// é is two bytes but one column
		cv.So(PositionAt(src, 7), cv.ShouldResemble, Position{Offset: 7, Line: 2, Column: 4})
		cv.So(PositionAt(src, 8), cv.ShouldResemble, Position{Offset: 8, Line: 3, Column: 1})
	})
}

func Test002AltIsOrderedAndMergesExpectations(t *testing.T) {

	cv.Convey(`Alt should return the first successful branch, and on total failure report the union of what each branch expected`, t, func() {
		p := Alt(Str("ab"), Str("a"))
		v, err := Parse(p, "ab")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldEqual, "ab")

		_, err = Parse(Alt(Str("x"), Str("y")), "z")
		cv.So(err, cv.ShouldNotBeNil)
		pe := err.(*ParseError)
		cv.So(pe.Pos.Offset, cv.ShouldEqual, 0)
		cv.So(pe.Expected, cv.ShouldResemble, []string{`"x"`, `"y"`})
	})
}

func Test003RepetitionAndMapping(t *testing.T) {

	cv.Convey(`Many, AtLeast and AtMost should bound repetition, and Map should only run on success`, t, func() {
		digit := Satisfy(func(r rune) bool { return r >= '0' && r <= '9' }, "digit")

		v, err := Parse(digit.Many(), "")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldResemble, []interface{}{})

		_, err = Parse(digit.AtLeast(1), "")
		cv.So(err, cv.ShouldNotBeNil)

		v, err = Parse(digit.AtMost(2).Skip(Str("x")), "1x")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldResemble, []interface{}{'1'})

		count := digit.AtLeast(1).Map(func(v interface{}) interface{} {
			return len(v.([]interface{}))
		})
		v, err = Parse(count, "12345")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldEqual, 5)
	})
}

func Test004FurthestFailureWins(t *testing.T) {

	cv.Convey(`when a sequence gets partway in before failing, the error should point at the furthest offset, not the start`, t, func() {
		p := Alt(Seq(Str("("), Str("a"), Str(")")), Str("b"))
		_, err := Parse(p, "(a]")
		pe := err.(*ParseError)
		cv.So(pe.Pos.Offset, cv.ShouldEqual, 2)
		cv.So(pe.Expected, cv.ShouldResemble, []string{`")"`})
		cv.So(pe.Incomplete("(a]"), cv.ShouldBeFalse)

		_, err = Parse(p, "(a")
		pe = err.(*ParseError)
		cv.So(pe.Incomplete("(a"), cv.ShouldBeTrue)
		cv.So(pe.Error(), cv.ShouldEqual, `expected ")" at line 1 column 3 (offset 2)`)
	})
}

func Test005DescReplacesExpectations(t *testing.T) {

	cv.Convey(`Desc should name a failing rule for diagnostics`, t, func() {
		_, err := Parse(Regexp(`[0-9]+`).Desc("number"), "x")
		cv.So(err.Error(), cv.ShouldEqual, "expected number at line 1 column 1 (offset 0)")

		_, err = Parse(Str("a"), "ab")
		cv.So(err.(*ParseError).Expected, cv.ShouldResemble, []string{"EOF"})
	})
}

func Test006MarkRecordsSpan(t *testing.T) {

	cv.Convey(`Mark should record the position before and after the wrapped rule`, t, func() {
		p := Str("\n").Then(Str("abc").Mark())
		v, err := Parse(p, "\nabc")
		cv.So(err, cv.ShouldBeNil)
		m := v.(Marked)
		cv.So(m.Value, cv.ShouldEqual, "abc")
		cv.So(m.Start, cv.ShouldResemble, Position{Offset: 1, Line: 2, Column: 1})
		cv.So(m.End, cv.ShouldResemble, Position{Offset: 4, Line: 2, Column: 4})
	})
}

func Test007CellsSeeSwappedBehaviour(t *testing.T) {

	cv.Convey(`a composite built over a cell should observe SetBehaviour on that cell, which is how forward references get tied`, t, func() {
		later := Later()
		list := Seq(Str("("), later.Many(), Str(")")).Map(func(v interface{}) interface{} {
			return len(v.([]interface{})[1].([]interface{}))
		})
		expr := Alt(list, Str("x"))
		later.SetBehaviour(expr.Behaviour())

		v, err := Parse(expr, "(x(x)x)")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldEqual, 3)

		unresolved := Later()
		cv.So(func() { Parse(unresolved, "") }, cv.ShouldPanicWith, ErrUnresolvedRule)
	})
}

func Test008CharNotAndCustom(t *testing.T) {

	cv.Convey(`CharNot should accept one rune that none of its arguments match, and Custom should adopt a raw goparsify matcher`, t, func() {
		p := CharNot(Char('"'), Char('\\')).AtLeast(1)
		v, err := Parse(p, "héllo")
		cv.So(err, cv.ShouldBeNil)
		cv.So(len(v.([]interface{})), cv.ShouldEqual, 5)

		_, err = Parse(p, `a"`)
		cv.So(err, cv.ShouldNotBeNil)

		two := Custom(func(ps *gp.State, node *gp.Result) {
			if len(ps.Input)-ps.Pos < 2 {
				ps.ErrorHere("two bytes")
				return
			}
			node.Result = ps.Get()[:2]
			ps.Advance(2)
		})
		v, err = Parse(two, "ok")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldEqual, "ok")

		_, err = Parse(Alt(two, Str("?")), "k")
		cv.So(err.(*ParseError).Expected, cv.ShouldResemble, []string{`"?"`, "two bytes"})

		v, err = Parse(Seq(Custom(gp.NumberLit()), Str(" "), Custom(gp.NumberLit())), "42 2.5")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldResemble, []interface{}{int64(42), " ", 2.5})
	})
}

func Test009LineIndexLookups(t *testing.T) {

	cv.Convey(`a LineIndex should agree with a fresh scan for offsets visited in any order`, t, func() {
		src := "ab\ncdé\n\nf"
		x := NewLineIndex(src)
		cv.So(x.Lines(), cv.ShouldEqual, 4)

		order := []int{9, 0, 5, 7, 2, 3, 8, 7, 100, -1}
		for _, i := range order {
			want := PositionAt(src, i)
			cv.So(x.Position(i), cv.ShouldResemble, want)
		}
		cv.So(x.Position(7), cv.ShouldResemble, Position{Offset: 7, Line: 2, Column: 4})
		cv.So(x.Position(100), cv.ShouldResemble, Position{Offset: 10, Line: 4, Column: 2})
	})

	cv.Convey(`Mark should report exact positions on the last line of a large input`, t, func() {
		src := strings.Repeat("x\n", 50000) + "yz"
		v, err := Parse(Regexp(`[x\n]+`).Then(Str("yz").Mark()), src)
		cv.So(err, cv.ShouldBeNil)
		m := v.(Marked)
		cv.So(m.Start, cv.ShouldResemble, Position{Offset: 100000, Line: 50001, Column: 1})
		cv.So(m.End, cv.ShouldResemble, Position{Offset: 100002, Line: 50001, Column: 3})
	})
}

func Test010InvalidUTF8(t *testing.T) {

	cv.Convey(`Satisfy and CharNot should refuse a byte that is not valid UTF-8 rather than yield U+FFFD`, t, func() {
		anyRune := Satisfy(func(r rune) bool { return true }, "any rune")
		_, err := Parse(anyRune, "\xff")
		pe := err.(*ParseError)
		cv.So(pe.Pos.Offset, cv.ShouldEqual, 0)
		cv.So(pe.Expected, cv.ShouldResemble, []string{"valid UTF-8"})

		_, err = Parse(CharNot(Char('"')).Many(), "a\xffb")
		pe = err.(*ParseError)
		cv.So(pe.Pos.Offset, cv.ShouldEqual, 1)
		cv.So(pe.Expected, cv.ShouldResemble, []string{"EOF", "valid UTF-8"})

		v, err := Parse(anyRune, "\uFFFD")
		cv.So(err, cv.ShouldBeNil)
		cv.So(v, cv.ShouldEqual, '\uFFFD')
	})
}
