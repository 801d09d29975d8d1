package zyread

// escape letter -> literal
var singleCharEscapes = map[rune]rune{
	'b': '\b',
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': '\v',
	'0': 0,
}

// ResolveEscape maps the character following the escape introducer
// to its literal value. The string delimiter is only a valid escape
// inside strings.
func (s *Syntax) ResolveEscape(c rune, inString bool) (rune, bool) {
	if c == s.Escape {
		return c, true
	}
	if inString && c == s.StringDelimiter {
		return c, true
	}
	r, ok := singleCharEscapes[c]
	return r, ok
}

// escapeLetter is the inverse of singleCharEscapes, used when
// rendering nodes back to source text.
func escapeLetter(r rune) (rune, bool) {
	for letter, lit := range singleCharEscapes {
		if lit == r {
			return letter, true
		}
	}
	return 0, false
}
