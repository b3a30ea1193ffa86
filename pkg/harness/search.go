package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/intcode/pkg/intcode"
)

// Status classifies a state reached by a search move.
type Status int

const (
	StatusOpen    Status = iota // traversable, expand further
	StatusBlocked               // the move failed; do not expand
	StatusGoal                  // target reached
)

// Move is one way out of a state: the inputs to send and the key of the state
// they lead to.
type Move[K comparable] struct {
	Input []int64
	To    K
}

// Search is a breadth-first search over the states of a machine that
// suspends for input after every move, such as a remote-controlled robot.
// Each expansion clones the parent machine, so machines at different states
// never interfere.
type Search[K comparable] struct {
	// Moves lists the moves available from a state.
	Moves func(from K) []Move[K]
	// Classify inspects the outputs produced by a move into state to.
	Classify func(to K, outputs []int64) Status
	// Exhaustive keeps searching after the first goal, so that MaxDepth
	// covers the whole reachable space.
	Exhaustive bool

	visited map[K]struct{}
}

// Result describes a finished search.
type Result[K comparable] struct {
	Goal     K
	Found    bool
	Depth    int              // moves from the start to Goal
	Machine  *intcode.Machine // machine state at Goal
	Visited  int              // distinct keys tried, including blocked ones
	MaxDepth int              // depth of the farthest open state expanded
}

type searchNode[K comparable] struct {
	key   K
	m     *intcode.Machine
	depth int
}

// Run searches outward from start. root is the machine in the start state;
// it is only ever cloned, never run.
func (s *Search[K]) Run(ctx context.Context, root *intcode.Machine, start K) (Result[K], error) {
	var res Result[K]
	if s.Moves == nil || s.Classify == nil {
		return res, errors.New("harness: search needs Moves and Classify")
	}

	s.visited = map[K]struct{}{start: {}}
	queue := []searchNode[K]{{key: start, m: root}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n := queue[0]
		queue = queue[1:]
		if n.depth > res.MaxDepth {
			res.MaxDepth = n.depth
		}

		for _, mv := range s.Moves(n.key) {
			if _, seen := s.visited[mv.To]; seen {
				continue
			}
			s.visited[mv.To] = struct{}{}

			child := n.m.Clone()
			outputs, err := runUntilInput(child, mv.Input)
			if err != nil {
				return res, fmt.Errorf("harness: search move to %v: %w", mv.To, err)
			}

			switch s.Classify(mv.To, outputs) {
			case StatusBlocked:
				continue
			case StatusGoal:
				if !res.Found {
					res.Goal, res.Found, res.Depth, res.Machine = mv.To, true, n.depth+1, child
					log.Debugf("search: goal %v at depth %d", mv.To, n.depth+1)
				}
				if !s.Exhaustive {
					res.Visited = len(s.visited)
					return res, nil
				}
			}
			queue = append(queue, searchNode[K]{key: mv.To, m: child, depth: n.depth + 1})
		}
	}
	res.Visited = len(s.visited)
	return res, nil
}

// Visited reports whether the last Run tried key.
func (s *Search[K]) Visited(key K) bool {
	_, ok := s.visited[key]
	return ok
}

// runUntilInput queues inputs and runs m until it needs more input or halts.
func runUntilInput(m *intcode.Machine, inputs []int64) ([]int64, error) {
	m.ProvideInput(inputs...)
	var outputs []int64
	for {
		sig, err := m.Run()
		if err != nil {
			return outputs, err
		}
		if sig.Kind != intcode.SignalOutput {
			return outputs, nil
		}
		v, err := sig.Int64()
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, v)
	}
}
