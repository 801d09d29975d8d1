package zyread

import (
	"errors"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var ErrBadSyntaxFile = errors.New("bad syntax file")

// Syntax holds the special characters of the reader. Every predicate
// on it is a pure function of one rune.
type Syntax struct {
	OpenParen               rune
	CloseParen              rune
	Comment                 rune
	Escape                  rune
	StringDelimiter         rune
	Quote                   rune
	Quasiquote              rune
	Unquote                 rune
	UnquoteSplicingModifier rune
	ShebangPrefix           string
}

func DefaultSyntax() *Syntax {
	return &Syntax{
		OpenParen:               '(',
		CloseParen:              ')',
		Comment:                 ';',
		Escape:                  '\\',
		StringDelimiter:         '"',
		Quote:                   '\'',
		Quasiquote:              '`',
		Unquote:                 ',',
		UnquoteSplicingModifier: '@',
		ShebangPrefix:           "#!",
	}
}

// IsWhitespace is the ECMAScript \s set: Unicode White_Space
// without U+0085 (NEL), plus U+FEFF (byte order mark).
func (s *Syntax) IsWhitespace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\ufeff':
		return true
	}
	return unicode.IsSpace(r)
}

func (s *Syntax) IsDelimiter(r rune) bool { return r == s.StringDelimiter }
func (s *Syntax) IsEscapeIntroducer(r rune) bool { return r == s.Escape }
func (s *Syntax) IsCommentIntroducer(r rune) bool { return r == s.Comment }
func (s *Syntax) IsOpenParen(r rune) bool { return r == s.OpenParen }
func (s *Syntax) IsCloseParen(r rune) bool { return r == s.CloseParen }
func (s *Syntax) IsQuote(r rune) bool { return r == s.Quote }
func (s *Syntax) IsQuasiquote(r rune) bool { return r == s.Quasiquote }
func (s *Syntax) IsUnquote(r rune) bool { return r == s.Unquote }
func (s *Syntax) IsSplicingModifier(r rune) bool { return r == s.UnquoteSplicingModifier }

// NeedsEscape reports whether r must be escaped to appear inside an atom.
func (s *Syntax) NeedsEscape(r rune) bool {
	return s.IsCommentIntroducer(r) ||
		s.IsDelimiter(r) ||
		s.IsQuote(r) ||
		s.IsQuasiquote(r) ||
		s.IsUnquote(r) ||
		s.IsEscapeIntroducer(r) ||
		s.IsOpenParen(r) ||
		s.IsCloseParen(r) ||
		s.IsWhitespace(r)
}

// Validate checks that the special characters are distinct and
// none of them is whitespace.
func (s *Syntax) Validate() error {
	chars := []struct {
		name string
		r    rune
	}{
		{"open_paren", s.OpenParen},
		{"close_paren", s.CloseParen},
		{"comment", s.Comment},
		{"escape", s.Escape},
		{"string_delimiter", s.StringDelimiter},
		{"quote", s.Quote},
		{"quasiquote", s.Quasiquote},
		{"unquote", s.Unquote},
		{"unquote_splicing_modifier", s.UnquoteSplicingModifier},
	}
	seen := make(map[rune]string)
	for _, c := range chars {
		if c.r == 0 || c.r == utf8.RuneError || s.IsWhitespace(c.r) {
			return fmt.Errorf("%w: %s must be a visible character, got %q", ErrBadSyntaxFile, c.name, c.r)
		}
		if prev, dup := seen[c.r]; dup {
			return fmt.Errorf("%w: %s and %s both use %q", ErrBadSyntaxFile, prev, c.name, c.r)
		}
		seen[c.r] = c.name
	}
	if s.ShebangPrefix == "" {
		return fmt.Errorf("%w: shebang prefix must not be empty", ErrBadSyntaxFile)
	}
	return nil
}

// SyntaxFile is the YAML shape of a syntax override file. Empty
// fields keep the default.
type SyntaxFile struct {
	OpenParen               string `yaml:"open_paren"`
	CloseParen              string `yaml:"close_paren"`
	Comment                 string `yaml:"comment"`
	Escape                  string `yaml:"escape"`
	StringDelimiter         string `yaml:"string_delimiter"`
	Quote                   string `yaml:"quote"`
	Quasiquote              string `yaml:"quasiquote"`
	Unquote                 string `yaml:"unquote"`
	UnquoteSplicingModifier string `yaml:"unquote_splicing_modifier"`
	ShebangPrefix           string `yaml:"shebang_prefix"`
}

// LoadSyntaxFile reads a YAML syntax file and applies it to the defaults.
func LoadSyntaxFile(filename string) (*Syntax, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax file '%s': %w", filename, err)
	}
	syn, err := ParseSyntaxYAML(data)
	if err != nil {
		return nil, fmt.Errorf("syntax file '%s': %w", filename, err)
	}
	return syn, nil
}

func ParseSyntaxYAML(data []byte) (*Syntax, error) {
	var f SyntaxFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSyntaxFile, err)
	}
	return ApplySyntaxFile(&f)
}

// ApplySyntaxFile overlays f on DefaultSyntax and validates the result.
func ApplySyntaxFile(f *SyntaxFile) (*Syntax, error) {
	syn := DefaultSyntax()
	fields := []struct {
		name string
		text string
		dst  *rune
	}{
		{"open_paren", f.OpenParen, &syn.OpenParen},
		{"close_paren", f.CloseParen, &syn.CloseParen},
		{"comment", f.Comment, &syn.Comment},
		{"escape", f.Escape, &syn.Escape},
		{"string_delimiter", f.StringDelimiter, &syn.StringDelimiter},
		{"quote", f.Quote, &syn.Quote},
		{"quasiquote", f.Quasiquote, &syn.Quasiquote},
		{"unquote", f.Unquote, &syn.Unquote},
		{"unquote_splicing_modifier", f.UnquoteSplicingModifier, &syn.UnquoteSplicingModifier},
	}
	for _, fld := range fields {
		if fld.text == "" {
			continue
		}
		if utf8.RuneCountInString(fld.text) != 1 {
			return nil, fmt.Errorf("%w: %s must be a single character, got %q", ErrBadSyntaxFile, fld.name, fld.text)
		}
		r, _ := utf8.DecodeRuneInString(fld.text)
		*fld.dst = r
	}
	if f.ShebangPrefix != "" {
		syn.ShebangPrefix = f.ShebangPrefix
	}
	if err := syn.Validate(); err != nil {
		return nil, err
	}
	return syn, nil
}
