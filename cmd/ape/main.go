package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/clarete/ape"
)

type args struct {
	run         *string
	code        *string
	astOnly     *bool
	asmOnly     *bool
	interactive *bool
	gcInterval  *int
	replMode    *bool
}

func readArgs() *args {
	a := &args{
		run:  flag.String("run", "", "Path to a source file to run"),
		code: flag.String("c", "", "Inline source to run"),

		astOnly: flag.Bool("ast-only", false, "Print the parsed AST and exit"),
		asmOnly: flag.Bool("asm-only", false, "Print the disassembled bytecode and exit"),

		interactive: flag.Bool("interactive", false, "Drop into a REPL"),
		gcInterval:  flag.Int("gc-interval", 10000, "Number of VM ticks between GC cycles"),
		replMode:    flag.Bool("repl-mode", false, "Parse in REPL mode (bare expression statements allowed)"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	cfg := ape.NewConfig()
	cfg.SetInt("vm.gc_interval", *a.gcInterval)
	cfg.SetBool("vm.repl_mode", *a.replMode || *a.interactive)

	engine := ape.NewEngine(cfg, nil)
	ape.RegisterDefaultBuiltins(engine)

	if *a.interactive {
		runREPL(engine)
		return
	}

	if *a.code != "" {
		runSource(engine, []byte(*a.code), "<c>", *a.astOnly, *a.asmOnly)
		return
	}

	if *a.run == "" {
		log.Fatal("Nothing to run: pass -run <path>, -c <code>, or -interactive")
	}

	data, err := os.ReadFile(*a.run)
	if err != nil {
		log.Fatalf("Can't open input file: %s", err.Error())
	}
	runSource(engine, data, *a.run, *a.astOnly, *a.asmOnly)
}

func runSource(engine *ape.Engine, src []byte, file string, astOnly, asmOnly bool) {
	if astOnly {
		stmts, errs := ape.ParseProgram(src, file, false)
		if errs.HasErrors() {
			for _, e := range errs.All() {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			os.Exit(1)
		}
		fmt.Println(ape.PrintStatements(stmts))
		return
	}

	prog, err := engine.Compile(src, file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if asmOnly {
		fmt.Print(prog.DisassembleColor())
		return
	}

	result, err := engine.Run(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if result != nil && result != ape.Null {
		fmt.Println(result.String())
	}
}

// runREPL mirrors cmd/langlang's interactive shell: read a line, run
// it against the same Engine so earlier definitions stay visible, and
// print whatever value (if any) the line produced.
func runREPL(engine *ape.Engine) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, _ := reader.ReadString('\n')

		if text == "" {
			fmt.Println("")
			break
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		result, err := engine.Execute([]byte(text), "<repl>")
		if err != nil {
			fmt.Println("ERROR: " + err.Error())
			continue
		}
		if result != nil && result != ape.Null {
			fmt.Println(result.String())
		}
	}
}
