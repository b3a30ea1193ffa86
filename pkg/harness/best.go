package harness

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Circuit selects how amplifiers are wired.
type Circuit int

const (
	CircuitChain    Circuit = iota // serial, see Chain
	CircuitFeedback                // ring, see Feedback
)

func (c Circuit) String() string {
	switch c {
	case CircuitChain:
		return "chain"
	case CircuitFeedback:
		return "feedback"
	}
	return fmt.Sprintf("circuit(%d)", int(c))
}

// ParseCircuit maps "chain" or "feedback" to a Circuit.
func ParseCircuit(s string) (Circuit, error) {
	switch s {
	case "chain":
		return CircuitChain, nil
	case "feedback":
		return CircuitFeedback, nil
	}
	return 0, fmt.Errorf("harness: unknown circuit %q", s)
}

// Best is the highest signal found by BestPhases and the phase order that
// produced it.
type Best struct {
	Signal int64
	Phases []int64
}

// BestPhases tries every ordering of phases on the given circuit, running up
// to workers evaluations at once, and returns the highest signal. Among equal
// signals the lexicographically smallest phase order wins.
func BestPhases(ctx context.Context, program, phases []int64, mode Circuit, workers int) (Best, error) {
	var run func([]int64, []int64) (int64, error)
	switch mode {
	case CircuitChain:
		run = func(p, ph []int64) (int64, error) { return Chain(p, ph) }
	case CircuitFeedback:
		run = func(p, ph []int64) (int64, error) { return Feedback(p, ph) }
	default:
		return Best{}, fmt.Errorf("harness: unknown circuit %d", int(mode))
	}
	if workers < 1 {
		workers = 1
	}

	perms := Permutations(phases)
	signals := make([]int64, len(perms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, perm := range perms {
		if gctx.Err() != nil {
			break
		}
		i, perm := i, perm
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := run(program, perm)
			if err != nil {
				return fmt.Errorf("phases %v: %w", perm, err)
			}
			signals[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Best{}, err
	}
	if err := ctx.Err(); err != nil {
		return Best{}, err
	}

	best := -1
	for i := range perms {
		if best < 0 || signals[i] > signals[best] ||
			(signals[i] == signals[best] && slices.Compare(perms[i], perms[best]) < 0) {
			best = i
		}
	}
	log.Infof("best %s signal %d from phases %v (%d orderings)", mode, signals[best], perms[best], len(perms))
	return Best{Signal: signals[best], Phases: perms[best]}, nil
}
