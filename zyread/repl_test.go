package zyread

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func testConfig(args ...string) *ReaderConfig {
	cfg := NewReaderConfig("zyread-test")
	cfg.DefineFlags()
	panicOn(cfg.Flags.Parse(append([]string{"-noliner", "-quiet"}, args...)))
	panicOn(cfg.ValidateConfig())
	return cfg
}

func Test070ConfigFlags(t *testing.T) {

	cv.Convey(`Flags should pick the output format and the default prompt`, t, func() {
		cfg := testConfig("-locations")
		cv.So(cfg.Prompt, cv.ShouldEqual, "zyread> ")
		cv.So(cfg.NoLiner, cv.ShouldBeTrue)
		cv.So(cfg.Format(), cv.ShouldEqual, FormatLocations)
		cv.So(cfg.Syntax, cv.ShouldResemble, DefaultSyntax())

		cv.So(testConfig().Format(), cv.ShouldEqual, FormatSexp)
		cv.So(testConfig("-json").Format(), cv.ShouldEqual, FormatJson)
		cv.So(testConfig("-dump").Format(), cv.ShouldEqual, FormatDump)
	})

	cv.Convey(`-json and -msgpack together should be refused`, t, func() {
		cfg := NewReaderConfig("zyread-test")
		cfg.DefineFlags()
		panicOn(cfg.Flags.Parse([]string{"-json", "-msgpack"}))
		cv.So(cfg.ValidateConfig(), cv.ShouldEqual, ErrConflictingOutput)
	})

	cv.Convey(`-syntax should load the named YAML file`, t, func() {
		fn := filepath.Join(t.TempDir(), "brackets.yaml")
		panicOn(os.WriteFile(fn, []byte("open_paren: \"[\"\nclose_paren: \"]\"\n"), 0644))
		cfg := testConfig("-syntax", fn)
		cv.So(cfg.Syntax.OpenParen, cv.ShouldEqual, '[')

		var out bytes.Buffer
		cv.So(ReadSource(cfg, NewGrammar(cfg.Syntax), "[a [b]]", &out), cv.ShouldBeNil)
		cv.So(out.String(), cv.ShouldEqual, "(a (b))\n")
	})
}

func Test071WriteNodesFormats(t *testing.T) {

	cv.Convey(`Each output format should render the same nodes`, t, func() {
		nodes := mustRead(`(a "b") c`)
		var out bytes.Buffer

		cv.So(WriteNodes(&out, nodes, FormatSexp), cv.ShouldBeNil)
		cv.So(out.String(), cv.ShouldEqual, "(a \"b\")\nc\n")

		out.Reset()
		cv.So(WriteNodes(&out, nodes, FormatLocations), cv.ShouldBeNil)
		cv.So(out.String(), cv.ShouldEqual,
			"list 1:1-1:8\n  atom 1:2-1:3 \"a\"\n  string 1:4-1:7 \"b\"\natom 1:9-1:10 \"c\"\n")

		out.Reset()
		cv.So(WriteNodes(&out, nodes, FormatJson), cv.ShouldBeNil)
		back, err := JsonToNodes(out.Bytes())
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)

		out.Reset()
		cv.So(WriteNodes(&out, nodes, FormatMsgpack), cv.ShouldBeNil)
		back, _, err = UnmarshalTree(out.Bytes())
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)

		out.Reset()
		cv.So(WriteNodes(&out, nodes, FormatDump), cv.ShouldBeNil)
		cv.So(out.String(), cv.ShouldContainSubstring, "Content")
	})
}

func Test072ReplReadsUntilComplete(t *testing.T) {

	cv.Convey(`The repl should keep reading lines while the input is incomplete, then print the nodes`, t, func() {
		cfg := testConfig()
		var out bytes.Buffer
		in := strings.NewReader("(a\n b)\n.json\nc\n.quit\nd\n")
		cv.So(Repl(cfg, in, &out), cv.ShouldBeNil)

		s := out.String()
		cv.So(s, cv.ShouldStartWith, "zyread> ... (a b)\n")
		cv.So(s, cv.ShouldContainSubstring, "output: json.\n")
		cv.So(s, cv.ShouldContainSubstring, `"content":"c"`)
		cv.So(s, cv.ShouldNotContainSubstring, `"d"`)
	})

	cv.Convey(`Errors should be reported without ending the session, and end of input should end it quietly`, t, func() {
		cfg := testConfig()
		var out bytes.Buffer
		in := strings.NewReader("(a))\n.locations\nx\n(unfinished")
		cv.So(Repl(cfg, in, &out), cv.ShouldBeNil)

		s := out.String()
		cv.So(s, cv.ShouldContainSubstring, "--> <repl>:1:4")
		cv.So(s, cv.ShouldContainSubstring, "output: locations.\n")
		cv.So(s, cv.ShouldContainSubstring, "atom 1:1-1:2 \"x\"\n")
		cv.So(s, cv.ShouldContainSubstring, "closing paren")
	})

	cv.Convey(`.verb should toggle tracing and the banner should print unless -quiet`, t, func() {
		cfg := NewReaderConfig("zyread-test")
		cfg.DefineFlags()
		panicOn(cfg.Flags.Parse([]string{"-noliner"}))
		panicOn(cfg.ValidateConfig())

		var out bytes.Buffer
		prev := Verbose
		OurStdout = &out
		defer func() {
			Verbose = prev
			OurStdout = os.Stdout
		}()
		cv.So(Repl(cfg, strings.NewReader(".verb\n.verb\n"), &out), cv.ShouldBeNil)
		s := out.String()
		cv.So(s, cv.ShouldStartWith, "zyread: ")
		cv.So(s, cv.ShouldContainSubstring, "verbose: "+boolString(!prev))
		cv.So(Verbose, cv.ShouldEqual, prev)
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
