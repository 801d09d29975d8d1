package zyread

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/glycerine/zyread/parsec"
	"github.com/shurcooL/go-goon"
)

type OutputFormat int

const (
	FormatSexp OutputFormat = iota
	FormatLocations
	FormatJson
	FormatMsgpack
	FormatDump
)

func (f OutputFormat) String() string {
	switch f {
	case FormatSexp:
		return "sexp"
	case FormatLocations:
		return "locations"
	case FormatJson:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	case FormatDump:
		return "dump"
	}
	return "unknown"
}

// Format picks the output format from the config flags.
func (c *ReaderConfig) Format() OutputFormat {
	switch {
	case c.Json:
		return FormatJson
	case c.Msgpack:
		return FormatMsgpack
	case c.Dump:
		return FormatDump
	case c.Locations:
		return FormatLocations
	}
	return FormatSexp
}

// WriteNodes prints nodes to w in format.
func WriteNodes(w io.Writer, nodes []Node, format OutputFormat) error {
	switch format {
	case FormatJson:
		by, err := NodesToJson(nodes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", by)
		return err
	case FormatMsgpack:
		by, err := MarshalTree(nil, nodes)
		if err != nil {
			return err
		}
		_, err = w.Write(by)
		return err
	case FormatDump:
		_, err := io.WriteString(w, goon.Sdump(nodes))
		return err
	case FormatLocations:
		for _, n := range nodes {
			if err := writeLocations(w, n, 0); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range nodes {
		if _, err := fmt.Fprintln(w, n.SexpString()); err != nil {
			return err
		}
	}
	return nil
}

func writeLocations(w io.Writer, n Node, depth int) error {
	sp := n.Span()
	indent := strings.Repeat("  ", depth)
	var err error
	switch x := n.(type) {
	case *List:
		_, err = fmt.Fprintf(w, "%s%s %s-%s\n", indent, n.Kind(), sp.Start, sp.End)
		for _, child := range x.Content {
			if err != nil {
				break
			}
			err = writeLocations(w, child, depth+1)
		}
	case *Atom:
		_, err = fmt.Fprintf(w, "%s%s %s-%s %q\n", indent, n.Kind(), sp.Start, sp.End, x.Content)
	case *StringLiteral:
		_, err = fmt.Fprintf(w, "%s%s %s-%s %q\n", indent, n.Kind(), sp.Start, sp.End, x.Content)
	}
	return err
}

func getLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var continuationPrompt = "... "

type replSession struct {
	cfg      *ReaderConfig
	cache    *ParseCache
	out      io.Writer
	reader   *bufio.Reader
	pr       *Prompter
	format   OutputFormat
	useColor bool
}

func (s *replSession) readLine(prompt string) (string, error) {
	if s.pr != nil {
		return s.pr.Getline(&prompt)
	}
	fmt.Fprint(s.out, prompt)
	return getLine(s.reader)
}

// getExpression reads lines until they parse, or until the parse
// fails somewhere other than at the end of the input.
func (s *replSession) getExpression() (src string, nodes []Node, err error) {
	src, err = s.readLine(s.cfg.Prompt)
	if err != nil {
		return "", nil, err
	}
	if isCommand(src) {
		return src, nil, nil
	}
	for {
		nodes, err = s.cache.Parse(src)
		var pe *parsec.ParseError
		if err == nil || !errors.As(err, &pe) || !pe.Incomplete(src) {
			return src, nodes, err
		}
		next, rerr := s.readLine(continuationPrompt)
		if rerr != nil {
			if rerr == io.EOF {
				return src, nil, err
			}
			return src, nil, rerr
		}
		src += "\n" + next
	}
}

func isCommand(line string) bool {
	switch strings.TrimSpace(line) {
	case ".quit", ".dump", ".json", ".locations", ".sexp", ".verb":
		return true
	}
	return false
}

// runCommand handles a dot command; it returns false on .quit.
func (s *replSession) runCommand(line string) bool {
	toggle := func(f OutputFormat) {
		if s.format == f {
			s.format = FormatSexp
		} else {
			s.format = f
		}
		fmt.Fprintf(s.out, "output: %s.\n", s.format)
	}
	switch strings.TrimSpace(line) {
	case ".quit":
		return false
	case ".dump":
		toggle(FormatDump)
	case ".json":
		toggle(FormatJson)
	case ".locations":
		toggle(FormatLocations)
	case ".sexp":
		s.format = FormatSexp
		fmt.Fprintf(s.out, "output: %s.\n", s.format)
	case ".verb":
		Verbose = !Verbose
		fmt.Fprintf(s.out, "verbose: %v.\n", Verbose)
	}
	return true
}

// Repl reads expressions from in and prints the nodes to out until
// end of input or .quit. With cfg.NoLiner unset and in == os.Stdin,
// lines come from the liner line editor instead.
func Repl(cfg *ReaderConfig, in io.Reader, out io.Writer) error {
	s := &replSession{
		cfg:      cfg,
		cache:    NewParseCache(NewGrammar(cfg.Syntax)),
		out:      out,
		format:   cfg.Format(),
		useColor: out == io.Writer(os.Stdout) && !color.NoColor,
	}
	if s.format == FormatMsgpack {
		// raw bytes are no use at a prompt
		s.format = FormatJson
	}
	if !cfg.NoLiner && in == io.Reader(os.Stdin) {
		s.pr = NewPrompter(cfg.Prompt)
		defer s.pr.Close()
	} else {
		s.reader = bufio.NewReader(in)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "zyread: reads s-expressions and prints the syntax tree.\n")
		fmt.Fprintf(out, "commands: .json .locations .dump .sexp .verb .quit. Ctrl-d to exit.\n")
	}

	for {
		src, nodes, err := s.getExpression()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *parsec.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			fmt.Fprint(out, FormatError("<repl>", src, err, s.useColor))
			continue
		}
		if isCommand(src) {
			if !s.runCommand(src) {
				return nil
			}
			continue
		}
		VPrintf("read %d nodes from %q", len(nodes), src)
		if err := WriteNodes(out, nodes, s.format); err != nil {
			return err
		}
	}
}

// ReadSource parses src and writes the nodes to out in the
// configured format.
func ReadSource(cfg *ReaderConfig, g *Grammar, src string, out io.Writer) error {
	nodes, err := g.Parse(src)
	if err != nil {
		return err
	}
	return WriteNodes(out, nodes, cfg.Format())
}

func ReplMain(cfg *ReaderConfig) {
	g := NewGrammar(cfg.Syntax)
	useColor := !color.NoColor

	if cfg.Command != "" {
		err := ReadSource(cfg, g, cfg.Command, os.Stdout)
		if err != nil {
			fmt.Fprint(os.Stderr, FormatError("-c", cfg.Command, err, useColor))
			os.Exit(1)
		}
		return
	}

	args := cfg.Flags.Args()
	if len(args) > 0 {
		failed := false
		for _, fname := range args {
			by, err := os.ReadFile(fname)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed = true
				continue
			}
			err = ReadSource(cfg, g, string(by), os.Stdout)
			if err != nil {
				fmt.Fprint(os.Stderr, FormatError(fname, string(by), err, useColor))
				failed = true
			}
		}
		if !failed {
			return
		}
		if cfg.ExitOnFailure {
			os.Exit(1)
		}
	}

	err := Repl(cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
