package harness

import (
	"context"
	"fmt"
	"sync"

	"github.com/chazu/intcode/pkg/intcode"
	"golang.org/x/sync/errgroup"
)

// Worker owns a machine and runs it on its own goroutine, receiving input
// from the upstream worker and sending output downstream. Only the goroutine
// executing Run touches the machine.
type Worker struct {
	m    *intcode.Machine
	done chan struct{}
	prev *Worker
	next *Worker
	p    *pipe

	// Guarded by p.mu.
	inbox    []int64
	parked   bool
	finished bool

	last    int64
	outputs int
}

// pipe is the state shared by connected workers. A worker is parked while
// it waits on an empty inbox; once every unfinished worker is parked no
// value can arrive and the whole pipe is stalled.
type pipe struct {
	mu      sync.Mutex
	members []*Worker
	live    int
	parked  int
	stalled bool
	wake    chan struct{} // closed and replaced on every change
}

func newPipe() *pipe {
	return &pipe{wake: make(chan struct{})}
}

func (p *pipe) join(w *Worker) {
	p.members = append(p.members, w)
	p.live++
	w.p = p
}

// broadcast wakes every parked worker. The caller holds p.mu.
func (p *pipe) broadcast() {
	close(p.wake)
	p.wake = make(chan struct{})
}

// checkStall marks the pipe stalled when no running worker is left to
// produce a value. The caller holds p.mu.
func (p *pipe) checkStall() {
	if p.live > 0 && p.parked == p.live && !p.stalled {
		p.stalled = true
		log.Debugf("pipe stalled with %d workers waiting", p.parked)
		p.broadcast()
	}
}

// NewWorker wraps m. The worker does nothing until Run is called.
func NewWorker(m *intcode.Machine) *Worker {
	return &Worker{
		m:    m,
		done: make(chan struct{}),
	}
}

// Connect routes from's outputs to to's input. Every Connect must happen
// before any of the connected workers runs.
func Connect(from, to *Worker) {
	from.next = to
	to.prev = from
	switch {
	case from.p == nil && to.p == nil:
		p := newPipe()
		p.join(from)
		if to != from {
			p.join(to)
		}
	case from.p == nil:
		to.p.join(from)
	case to.p == nil:
		from.p.join(to)
	case from.p != to.p:
		for _, w := range to.p.members {
			from.p.join(w)
		}
	}
}

// Machine returns the wrapped machine. It must not be used while Run is
// executing.
func (w *Worker) Machine() *intcode.Machine {
	return w.m
}

// Last returns the most recent output and whether there was one.
func (w *Worker) Last() (int64, bool) {
	return w.last, w.outputs > 0
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Run drives the machine until it halts, faults or ctx is cancelled.
// Outputs sent after the downstream worker has finished are dropped. When
// every worker of the pipe is waiting for input, Run returns
// ErrInputUnderflow.
func (w *Worker) Run(ctx context.Context) error {
	defer w.finish()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sig, err := w.m.Run()
		if err != nil {
			log.Errorf("%s: %v", w.m.Name(), err)
			return err
		}
		switch sig.Kind {
		case intcode.SignalOutput:
			v, err := sig.Int64()
			if err != nil {
				return err
			}
			w.last = v
			w.outputs++
			if w.next != nil {
				w.send(v)
			}
		case intcode.SignalNeedsInput:
			v, err := w.receive(ctx)
			if err != nil {
				return err
			}
			w.m.ProvideInput(v)
		case intcode.SignalHalted:
			log.Debugf("%s: halted after %d outputs", w.m.Name(), w.outputs)
			return nil
		}
	}
}

func (w *Worker) send(v int64) {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()

	to := w.next
	if to.finished {
		return
	}
	to.inbox = append(to.inbox, v)
	to.unpark()
	p.broadcast()
}

func (w *Worker) receive(ctx context.Context) (int64, error) {
	if w.prev == nil {
		return 0, fmt.Errorf("%w: %s has no upstream", ErrInputUnderflow, w.m.Name())
	}
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		switch {
		case len(w.inbox) > 0:
			v := w.inbox[0]
			w.inbox = w.inbox[1:]
			return v, nil
		case p.stalled:
			return 0, fmt.Errorf("%w: %s: every worker is waiting for input", ErrInputUnderflow, w.m.Name())
		case w.prev.finished:
			return 0, fmt.Errorf("%w: %s upstream finished", ErrInputUnderflow, w.m.Name())
		}

		w.parked = true
		p.parked++
		p.checkStall()
		if p.stalled {
			w.unpark()
			continue
		}

		wake := p.wake
		p.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
		}
		p.mu.Lock()
		w.unpark()
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

// unpark clears the parked mark. The caller holds p.mu.
func (w *Worker) unpark() {
	if w.parked {
		w.parked = false
		w.p.parked--
	}
}

func (w *Worker) finish() {
	if p := w.p; p != nil {
		p.mu.Lock()
		w.finished = true
		w.unpark()
		p.live--
		p.checkStall()
		p.broadcast()
		p.mu.Unlock()
	}
	close(w.done)
}

// FeedbackConcurrent computes the same result as Feedback with one goroutine
// per amplifier.
func FeedbackConcurrent(ctx context.Context, program, phases []int64, opts ...intcode.Option) (int64, error) {
	amps, err := amplifiers(program, phases, opts...)
	if err != nil {
		return 0, err
	}
	amps[0].ProvideInput(0)

	workers := make([]*Worker, len(amps))
	for i, m := range amps {
		workers[i] = NewWorker(m)
	}
	for i, w := range workers {
		Connect(w, workers[(i+1)%len(workers)])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error { return w.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	signal, ok := workers[len(workers)-1].Last()
	if !ok {
		return 0, fmt.Errorf("harness: amplifier %d produced no output", len(workers)-1)
	}
	return signal, nil
}
