/*
The zyread command reads s-expressions and prints their syntax trees.
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/glycerine/zyread/zyread"
)

func usage(myflags *flag.FlagSet) {
	fmt.Printf("zyread command line help:\n")
	myflags.PrintDefaults()
	os.Exit(1)
}

func main() {
	cfg := zyread.NewReaderConfig("zyread")
	cfg.DefineFlags()
	err := cfg.Flags.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		usage(cfg.Flags)
	}

	if err != nil {
		panic(err)
	}
	err = cfg.ValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zyread command line error: '%v'\n", err)
		usage(cfg.Flags)
	}

	zyread.ReplMain(cfg)
}
