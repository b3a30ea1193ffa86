// intcode CLI - runs, inspects and resumes Intcode programs
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	configDir := flag.String("config", "", "Directory to search for intcode.toml (default: current directory and its parents)")
	inputs := flag.String("i", "", "Comma-separated input values")
	interactive := flag.Bool("interactive", false, "Prompt for input on stdin whenever the queue runs dry")
	trace := flag.Bool("trace", false, "Log every executed instruction (needs -v 2)")
	verbosity := flag.Int("v", 0, "Log verbosity, -4 (silent) to 2 (debug)")
	disasm := flag.Bool("disasm", false, "Print a disassembly instead of running")
	dump := flag.Bool("dump", false, "Print non-zero memory after the machine stops")
	mode := flag.String("mode", "", "run, chain, feedback, best-chain or best-feedback")
	phases := flag.String("phases", "", "Comma-separated amplifier phase settings")
	workers := flag.Int("workers", 0, "Parallel evaluations for the best-* modes")
	ascii := flag.Bool("ascii", false, "Treat input lines and output values as ASCII text")
	save := flag.Bool("save", false, "Save a snapshot when the machine waits for input that was not given")
	resume := flag.String("resume", "", "Resume the snapshot with this id")
	list := flag.Bool("list", false, "List stored snapshots")
	db := flag.String("db", "", "Snapshot database (default: .intcode/snapshots.db)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: intcode [options] [program]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an Intcode program. Settings not given as flags come from intcode.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  intcode -i 1 day5.txt                      # Run with input 1\n")
		fmt.Fprintf(os.Stderr, "  intcode -interactive day5.txt              # Prompt for every input\n")
		fmt.Fprintf(os.Stderr, "  intcode -mode best-feedback day7.txt       # Search phase orders 5..9\n")
		fmt.Fprintf(os.Stderr, "  intcode -disasm day9.txt                   # Disassemble\n")
		fmt.Fprintf(os.Stderr, "  intcode -save day25.txt && intcode -list   # Suspend, then list snapshots\n")
	}
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	dir := *configDir
	if dir == "" {
		dir = "."
	}
	man, err := manifest.FindAndLoad(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", manifest.FileName, err)
		os.Exit(1)
	}

	opts := defaultOptions()
	if man != nil {
		opts.applyManifest(man)
	}

	if set["v"] {
		opts.verbosity = *verbosity
	}
	var logPath *string
	if opts.logFile != "" {
		logPath = &opts.logFile
	}
	commonlog.Configure(opts.verbosity, logPath)

	if set["i"] {
		if opts.inputs, err = parseValues(*inputs); err != nil {
			fail(fmt.Errorf("-i: %w", err))
		}
	}
	if set["phases"] {
		if opts.phases, err = parseValues(*phases); err != nil {
			fail(fmt.Errorf("-phases: %w", err))
		}
	}
	if set["mode"] {
		opts.mode = *mode
	}
	if set["workers"] {
		opts.workers = *workers
	}
	if set["db"] {
		opts.dbPath = *db
	}
	opts.interactive = *interactive
	opts.trace = opts.trace || *trace
	opts.ascii = opts.ascii || *ascii
	opts.disasm = *disasm
	opts.dump = *dump
	opts.save = *save
	opts.resume = *resume
	opts.list = *list

	if !opts.list && opts.resume == "" {
		switch {
		case flag.NArg() > 0:
			opts.name = flag.Arg(0)
			opts.program, err = readProgramFile(flag.Arg(0))
		case man != nil && man.ProgramPath() != "":
			opts.name = man.ProgramPath()
			opts.program, err = man.LoadProgram()
		default:
			flag.Usage()
			os.Exit(1)
		}
		if err != nil {
			fail(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, opts, os.Stdin, os.Stdout); err != nil {
		stop()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func readProgramFile(path string) (intcode.Program, error) {
	if path == "-" {
		return intcode.ReadProgram(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return intcode.Program{}, err
	}
	defer f.Close()
	program, err := intcode.ReadProgram(f)
	if err != nil {
		return intcode.Program{}, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}
