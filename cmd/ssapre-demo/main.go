// Command ssapre-demo runs the ssapre pass over a handful of built-in
// toyir scenarios and prints the function before and after, plus the
// event counts the pass reports.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/m4yers/llvm-opt-ssapre/ssapre"
	"github.com/m4yers/llvm-opt-ssapre/toyir"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")
	flag.Parse()

	if help {
		printUsage(stdErr)
		exit(0)
		return
	}

	name := "diamond"
	if flag.NArg() > 0 {
		name = flag.Arg(0)
	}

	scenario, ok := scenarios[name]
	if !ok {
		fmt.Fprintf(stdErr, "unknown scenario %q\n", name)
		printUsage(stdErr)
		exit(1)
		return
	}

	fn := scenario()

	fmt.Fprintln(stdOut, "before:")
	fmt.Fprint(stdOut, ssapre.FormatFunction(fn))

	dt := toyir.BuildDominatorTree(fn)
	result := ssapre.Run(fn, dt, toyir.Simplifier{}, toyir.NoFacts{}, ssapre.DefaultOptions())

	fmt.Fprintln(stdOut, "after:")
	fmt.Fprint(stdOut, ssapre.FormatFunction(fn))

	fmt.Fprintf(stdOut, "changed=%v substituted=%d inserted=%d killed=%d phi_inserted=%d phi_killed=%d\n",
		result.Changed, result.Stats.InstrSubstituted, result.Stats.InstrInserted,
		result.Stats.InstrKilled, result.Stats.PHIInserted, result.Stats.PHIKilled)

	exit(0)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: ssapre-demo [-h] [scenario]")
	fmt.Fprintln(w, "available scenarios:")
	for name := range scenarios {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
