package zyread

import (
	"errors"
	"flag"
)

var ErrConflictingOutput = errors.New("-json and -msgpack cannot both be set")

// configure a reader repl
type ReaderConfig struct {
	Flags         *flag.FlagSet
	Command       string
	ExitOnFailure bool
	Quiet         bool
	Verbose       bool

	// output formats; the default is one s-expression per line
	Json      bool
	Msgpack   bool
	Dump      bool
	Locations bool

	SyntaxFile string
	Syntax     *Syntax

	// liner bombs under emacs, avoid it with this flag.
	NoLiner bool
	Prompt  string // default "zyread> "
}

func NewReaderConfig(cmdname string) *ReaderConfig {
	return &ReaderConfig{
		Flags: flag.NewFlagSet(cmdname, flag.ExitOnError),
	}
}

// call DefineFlags before myflags.Parse()
func (c *ReaderConfig) DefineFlags() {
	c.Flags.StringVar(&c.Command, "c", "", "expressions to read")
	c.Flags.BoolVar(&c.ExitOnFailure, "exitonfail", false, "exit on failure instead of starting repl")
	c.Flags.BoolVar(&c.Quiet, "quiet", false, "start repl without printing the banner")
	c.Flags.BoolVar(&c.Verbose, "verbose", false, "trace reads (very chatty)")
	c.Flags.BoolVar(&c.Json, "json", false, "print each node as json")
	c.Flags.BoolVar(&c.Msgpack, "msgpack", false, "write each node as msgpack bytes")
	c.Flags.BoolVar(&c.Dump, "dump", false, "print each node with goon.Dump")
	c.Flags.BoolVar(&c.Locations, "locations", false, "print each node with its source span")
	c.Flags.StringVar(&c.SyntaxFile, "syntax", "", "yaml file overriding the special characters")
	c.Flags.BoolVar(&c.NoLiner, "noliner", false, "read plain lines from stdin without line editing")
	c.Flags.StringVar(&c.Prompt, "prompt", "", "repl prompt")
}

// call c.ValidateConfig() after myflags.Parse()
func (c *ReaderConfig) ValidateConfig() error {
	if c.Prompt == "" {
		c.Prompt = "zyread> "
	}
	if c.Json && c.Msgpack {
		return ErrConflictingOutput
	}
	if c.SyntaxFile != "" {
		syn, err := LoadSyntaxFile(c.SyntaxFile)
		if err != nil {
			return err
		}
		c.Syntax = syn
	}
	if c.Syntax == nil {
		c.Syntax = DefaultSyntax()
	}
	if c.Verbose {
		Verbose = true
	}
	return c.Syntax.Validate()
}
