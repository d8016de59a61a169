// Command rpal is the RPAL interpreter's CLI: run a source file to its
// residual value, or drop into an interactive read-eval-print loop when
// given none.
//
// Grounded on terex/terexlang/trepl's main(): schuko tracing set up via
// gologadapter, pterm for colored status output, readline for the REPL
// line editor, and flag.Parse for CLI switches.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/gorpal/rpal/internal/builtins"
	"github.com/gorpal/rpal/internal/control"
	"github.com/gorpal/rpal/internal/cse"
	"github.com/gorpal/rpal/internal/diagnostics"
	"github.com/gorpal/rpal/internal/envtree"
	"github.com/gorpal/rpal/internal/lexer"
	"github.com/gorpal/rpal/internal/parse"
	"github.com/gorpal/rpal/internal/rtrace"
	"github.com/gorpal/rpal/internal/standardize"
	"github.com/gorpal/rpal/internal/value"
)

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " rpal",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()

	showAST := flag.Bool("ast", false, "dump the parsed AST before evaluating")
	showST := flag.Bool("st", false, "dump the standardized tree before evaluating")
	traceLevel := flag.String("trace", "Error", "trace level [Debug|Info|Error]")
	traceFlag := flag.Bool("trace-cse", false, "log every CSE machine step")
	repl := flag.Bool("repl", false, "start an interactive session instead of running a file")
	flag.Parse()

	rtrace.T().SetTraceLevel(tracing.TraceLevelFromString(*traceLevel))

	if *repl || flag.NArg() == 0 {
		runREPL(*showAST, *showST, *traceFlag)
		return
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}

	arena := envtree.New()
	builtins.Install(arena)
	v, err := evalSource(string(src), arena, *showAST, *showST, *traceFlag)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	fmt.Println(v.String())
}

// evalSource drives the full pipeline: lex, parse, standardize, compile,
// run. arena is shared across REPL lines so definitions could later be
// made to persist; a one-shot file run uses a fresh arena.
func evalSource(src string, arena *envtree.Arena, showAST, showST, traceCSE bool) (value.Value, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return value.Value{}, err
	}
	tree, err := parse.Parse(toks)
	if err != nil {
		return value.Value{}, err
	}
	if showAST {
		diagnostics.DumpAST("AST", tree)
	}
	st, err := standardize.Standardize(tree)
	if err != nil {
		return value.Value{}, err
	}
	if showST {
		diagnostics.DumpStandardized("Standardized tree", st)
	}
	table := control.Build(st)
	m := cse.New(table, arena, os.Stdout)
	if traceCSE {
		return m.RunTraced()
	}
	return m.Run()
}

func runREPL(showAST, showST, traceCSE bool) {
	rl, err := readline.New("rpal> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(3)
	}
	defer rl.Close()

	pterm.Info.Println("RPAL interactive session. Quit with <ctrl>D.")
	arena := envtree.New()
	builtins.Install(arena)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on ctrl-D
			break
		}
		if line == "" {
			continue
		}
		v, err := evalSource(line, arena, showAST, showST, traceCSE)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		pterm.Info.Println(v.String())
	}
	fmt.Println("Good bye!")
}
