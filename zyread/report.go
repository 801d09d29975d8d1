package zyread

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/glycerine/zyread/parsec"
)

func style(useColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if useColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// FormatError renders err for a human. A *parsec.ParseError gets the
// offending source line with a caret under the failure column;
// anything else is printed as is. filename labels the source.
func FormatError(filename, src string, err error, useColor bool) string {
	errorStyle := style(useColor, color.FgRed, color.Bold)
	fileStyle := style(useColor, color.FgCyan, color.Bold)
	lineStyle := style(useColor, color.FgHiBlue, color.Bold)

	var pe *parsec.ParseError
	if !errors.As(err, &pe) {
		return errorStyle.Sprint("error") + ": " + err.Error() + "\n"
	}

	lines := strings.Split(src, "\n")
	lineNo := pe.Pos.Line
	var text string
	if lineNo >= 1 && lineNo <= len(lines) {
		text = lines[lineNo-1]
	}
	width := len(fmt.Sprint(lineNo))
	gutter := strings.Repeat(" ", width)

	var sb strings.Builder
	sb.WriteString(errorStyle.Sprint("error"))
	sb.WriteString(": ")
	sb.WriteString(parseErrorMessage(pe))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s%s %s\n", gutter, lineStyle.Sprint("-->"),
		fileStyle.Sprintf("%s:%d:%d", filename, pe.Pos.Line, pe.Pos.Column))
	fmt.Fprintf(&sb, "%s %s\n", gutter, lineStyle.Sprint("|"))
	fmt.Fprintf(&sb, "%s %s %s\n", lineStyle.Sprintf("%*d", width, lineNo), lineStyle.Sprint("|"), text)
	fmt.Fprintf(&sb, "%s %s %s%s\n", gutter, lineStyle.Sprint("|"),
		caretPadding(text, pe.Pos.Column), errorStyle.Sprint("^"))
	return sb.String()
}

func parseErrorMessage(pe *parsec.ParseError) string {
	switch len(pe.Expected) {
	case 0:
		return "unexpected input"
	case 1:
		return "expected " + pe.Expected[0]
	}
	return "expected one of " + strings.Join(pe.Expected, ", ")
}

// caretPadding keeps tabs so the caret lines up under column.
func caretPadding(line string, column int) string {
	var sb strings.Builder
	n := 1
	for _, r := range line {
		if n >= column {
			break
		}
		if r == '\t' {
			sb.WriteRune('\t')
		} else {
			sb.WriteByte(' ')
		}
		n++
	}
	for ; n < column; n++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}
