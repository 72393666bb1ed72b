package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"git.sr.ht/~sircmpwn/getopt"

	"miniplc0/pkg/asm"
	"miniplc0/pkg/compiler"
	"miniplc0/pkg/conformance"
	"miniplc0/pkg/vm"
)

const usage = `usage: plc0 [-t | -l | -r | -a] [-x] [-o output] [-s snapshot] input
       plc0 -c suite.yaml|dir [-j jobs]`

type mode int

const (
	modeRun mode = iota
	modeTokens
	modeListing
	modeAssembled
	modeConformance
)

type options struct {
	mode     mode
	trace    bool
	output   string
	snapshot string
	jobs     int
	input    string
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func parseArgs(args []string) (options, error) {
	var o options
	opts, optind, err := getopt.Getopts(args, "tlraxco:s:j:")
	if err != nil {
		return o, err
	}

	modes := 0
	for _, opt := range opts {
		switch opt.Option {
		case 't':
			o.mode, modes = modeTokens, modes+1
		case 'l':
			o.mode, modes = modeListing, modes+1
		case 'r':
			o.mode, modes = modeRun, modes+1
		case 'a':
			o.mode, modes = modeAssembled, modes+1
		case 'c':
			o.mode, modes = modeConformance, modes+1
		case 'x':
			o.trace = true
		case 'o':
			o.output = opt.Value
		case 's':
			o.snapshot = opt.Value
		case 'j':
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n < 1 {
				return o, fmt.Errorf("invalid job count %q", opt.Value)
			}
			o.jobs = n
		}
	}
	if modes > 1 {
		return o, errors.New("at most one of -t, -l, -r, -a, -c may be given")
	}

	rest := args[optind:]
	if len(rest) != 1 {
		return o, errors.New("exactly one input file is required")
	}
	o.input = rest[0]
	return o, nil
}

// run executes the driver and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "plc0: ", 0)

	o, err := parseArgs(args)
	if err != nil {
		logger.Printf("%v\n%s", err, usage)
		return 2
	}

	if o.mode == modeConformance {
		return runConformance(o, stdout, stderr, logger)
	}

	source, err := os.ReadFile(o.input)
	if err != nil {
		logger.Printf("failed to read input file %q: %v", o.input, err)
		return 1
	}

	out := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			logger.Printf("failed to create output file %q: %v", o.output, err)
			return 1
		}
		defer f.Close()
		out = f
	}

	switch o.mode {
	case modeTokens:
		tokens, err := compiler.Lex(string(source))
		for _, tok := range tokens {
			fmt.Fprintln(out, tok)
		}
		if err != nil {
			fmt.Fprintln(stderr, "lex error:", compiler.Diagnose(err, string(source)))
			return 1
		}
		return 0

	case modeAssembled:
		program, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintln(stderr, "assembly error:", err)
			return 1
		}
		return execute(program, o, out, stderr, logger)
	}

	program, _, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintln(stderr, "analyse error:", compiler.Diagnose(err, string(source)))
		return 1
	}

	if o.mode == modeListing {
		if _, err := io.WriteString(out, asm.Disassemble(program)); err != nil {
			logger.Printf("write error: %v", err)
			return 1
		}
		return 0
	}
	return execute(program, o, out, stderr, logger)
}

func execute(program []vm.Instruction, o options, out, stderr io.Writer, logger *log.Logger) int {
	m := vm.NewVM(program, vm.LineWriter{W: out})
	if o.trace {
		m.Trace = stderr
	}

	err := m.Run()
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "runtime error:", err)
	if o.snapshot != "" {
		if serr := m.SnapshotToFile(o.snapshot); serr != nil {
			logger.Printf("failed to write snapshot %q: %v", o.snapshot, serr)
		} else {
			fmt.Fprintf(stderr, "snapshot written to %s\n", o.snapshot)
		}
	}
	return 1
}

func runConformance(o options, stdout, stderr io.Writer, logger *log.Logger) int {
	load := conformance.LoadFile
	if fi, err := os.Stat(o.input); err == nil && fi.IsDir() {
		load = conformance.LoadDir
	}
	tests, err := load(o.input)
	if err != nil {
		logger.Printf("load error: %v", err)
		return 1
	}

	results, err := conformance.RunAll(context.Background(), tests, o.jobs)
	if err != nil {
		fmt.Fprintln(stderr, "conformance error:", err)
		return 1
	}

	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(stdout, "SKIP %s (%s)\n", r.Test.Name(), r.SkipReason)
		case r.Passed:
			fmt.Fprintf(stdout, "PASS %s\n", r.Test.Name())
		default:
			fmt.Fprintf(stdout, "FAIL %s: %v\n", r.Test.Name(), r.Error)
		}
	}

	passed, failed, skipped := conformance.Summary(results)
	fmt.Fprintf(stdout, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	if failed > 0 {
		return 1
	}
	return 0
}
