package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/harness"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/pkg/store"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.cli")

// options is the merged result of intcode.toml and the command line.
type options struct {
	name    string
	program intcode.Program

	mode    string
	inputs  []int64
	phases  []int64
	workers int

	interactive bool
	trace       bool
	ascii       bool
	disasm      bool
	dump        bool

	save   bool
	resume string
	list   bool
	dbPath string

	verbosity int
	logFile   string
}

func defaultOptions() *options {
	return &options{
		mode:    "run",
		workers: 1,
		dbPath:  filepath.Join(".intcode", "snapshots.db"),
	}
}

func (o *options) applyManifest(m *manifest.Manifest) {
	o.mode = m.Run.Mode
	o.inputs = m.Run.Inputs
	o.phases = m.Run.Phases
	o.workers = m.Run.Workers
	o.trace = m.Run.Trace
	o.ascii = m.Run.ASCII
	o.verbosity = m.Log.Verbosity
	o.logFile = m.Log.File
	o.dbPath = m.SnapshotPath()
}

// parseValues parses a comma-separated list of integers.
func parseValues(s string) ([]int64, error) {
	var out []int64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", field)
		}
		out = append(out, v)
	}
	return out, nil
}

func execute(ctx context.Context, o *options, in io.Reader, out io.Writer) error {
	switch {
	case o.list:
		return listSnapshots(ctx, o, out)
	case o.resume != "":
		st, err := store.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		m, err := st.Load(ctx, o.resume, intcode.WithTrace(o.trace))
		if err != nil {
			return err
		}
		log.Infof("resuming %s at ip %d", m.Name(), m.IP())
		return runMachine(ctx, o, m, st, in, out)
	case o.disasm:
		_, err := io.WriteString(out, intcode.DisassembleProgram(o.program, filepath.Base(o.name)))
		return err
	}

	log.Infof("running %s (%d words) in %s mode", o.name, o.program.Len(), o.mode)
	if o.mode == "run" {
		m, err := intcode.NewProgram(o.program, intcode.WithTrace(o.trace))
		if err != nil {
			return err
		}
		return runMachine(ctx, o, m, nil, in, out)
	}

	// Amplifier signals are passed between machines as int64.
	program, err := o.program.Int64s()
	if err != nil {
		return fmt.Errorf("%s mode: %w", o.mode, err)
	}
	switch o.mode {
	case "chain", "feedback":
		if len(o.phases) == 0 {
			return fmt.Errorf("%s mode needs phase settings", o.mode)
		}
		var (
			signal int64
			err    error
		)
		switch {
		case o.mode == "chain":
			signal, err = harness.Chain(program, o.phases, intcode.WithTrace(o.trace))
		case o.workers > 1:
			signal, err = harness.FeedbackConcurrent(ctx, program, o.phases, intcode.WithTrace(o.trace))
		default:
			signal, err = harness.Feedback(program, o.phases, intcode.WithTrace(o.trace))
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, signal)
		return err

	case "best-chain", "best-feedback":
		circuit, err := harness.ParseCircuit(strings.TrimPrefix(o.mode, "best-"))
		if err != nil {
			return err
		}
		phases := o.phases
		if len(phases) == 0 {
			phases = []int64{0, 1, 2, 3, 4}
			if circuit == harness.CircuitFeedback {
				phases = []int64{5, 6, 7, 8, 9}
			}
		}
		best, err := harness.BestPhases(ctx, program, phases, circuit, o.workers)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d (phases %s)\n", best.Signal, intcode.FormatProgram(best.Phases))
		return err
	}
	return fmt.Errorf("unknown mode %q", o.mode)
}

// runMachine drives a single machine against the console. st may be nil; it
// is opened on demand when a snapshot has to be saved.
func runMachine(ctx context.Context, o *options, m *intcode.Machine, st *store.Store, in io.Reader, out io.Writer) error {
	m.ProvideInput(o.inputs...)
	c := &console{
		interactive: o.interactive,
		ascii:       o.ascii,
		scanner:     bufio.NewScanner(in),
		out:         out,
	}

	err := harness.Drive(ctx, m, c)
	if errors.Is(err, harness.ErrInputUnderflow) && o.save {
		if st == nil {
			if st, err = store.Open(o.dbPath); err != nil {
				return err
			}
			defer st.Close()
		}
		id, serr := st.Save(ctx, m)
		if serr != nil {
			return serr
		}
		fmt.Fprintf(out, "saved snapshot %s\n", id)
		err = nil
	}

	if o.dump {
		if derr := m.Dump(out); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func listSnapshots(ctx context.Context, o *options, out io.Writer) error {
	st, err := store.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no snapshots")
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-20s %-11s %8d  %s\n", e.ID, e.Name, e.State, e.Steps, e.Created.Format(time.RFC3339))
	}
	return nil
}

// console is the terminal side of a running machine.
type console struct {
	pending     []int64
	interactive bool
	ascii       bool
	scanner     *bufio.Scanner
	out         io.Writer
}

func (c *console) Input() (int64, error) {
	for len(c.pending) == 0 {
		if !c.interactive {
			return 0, harness.ErrInputUnderflow
		}
		fmt.Fprint(c.out, "> ")
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return 0, fmt.Errorf("reading input: %w", err)
			}
			return 0, fmt.Errorf("%w: end of input", harness.ErrInputUnderflow)
		}
		line := c.scanner.Text()
		if c.ascii {
			c.pending = harness.EncodeASCII(line + "\n")
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			fmt.Fprintf(c.out, "not an integer: %q\n", line)
			continue
		}
		c.pending = append(c.pending, v)
	}
	v := c.pending[0]
	c.pending = c.pending[1:]
	return v, nil
}

func (c *console) OutputWide(v *big.Int) error {
	var err error
	if c.interactive {
		_, err = fmt.Fprintf(c.out, ">> %s\n", v)
	} else {
		_, err = fmt.Fprintln(c.out, v)
	}
	return err
}

func (c *console) Output(v int64) error {
	if c.ascii {
		if text, _ := harness.DecodeASCII([]int64{v}); text != "" {
			_, err := io.WriteString(c.out, text)
			return err
		}
	}
	var err error
	if c.interactive {
		_, err = fmt.Fprintf(c.out, ">> %d\n", v)
	} else {
		_, err = fmt.Fprintln(c.out, v)
	}
	return err
}
