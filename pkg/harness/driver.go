// Package harness drives Intcode machines: collecting outputs, feeding
// interactive handlers, wiring amplifier circuits and searching over machine
// states.
package harness

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/chazu/intcode/pkg/intcode"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.harness")

// ErrInputUnderflow is returned when a machine asks for input and the harness
// has none to give.
var ErrInputUnderflow = errors.New("harness: input underflow")

// Collect queues inputs, runs m until it halts and returns every output.
// If the machine asks for more input than was given, the outputs so far are
// returned together with ErrInputUnderflow.
func Collect(m *intcode.Machine, inputs ...int64) ([]int64, error) {
	m.ProvideInput(inputs...)
	var outputs []int64
	for {
		sig, err := m.Run()
		if err != nil {
			return outputs, err
		}
		switch sig.Kind {
		case intcode.SignalOutput:
			v, err := sig.Int64()
			if err != nil {
				return outputs, err
			}
			outputs = append(outputs, v)
		case intcode.SignalNeedsInput:
			return outputs, fmt.Errorf("%w: %s at ip %d", ErrInputUnderflow, m.Name(), m.IP())
		case intcode.SignalHalted:
			return outputs, nil
		}
	}
}

// Handler supplies input to and receives output from a machine driven by
// Drive.
type Handler interface {
	Input() (int64, error)
	Output(v int64) error
}

// WideHandler is implemented by handlers that accept outputs outside the
// int64 range. Drive fails on such an output when the handler is not a
// WideHandler.
type WideHandler interface {
	OutputWide(v *big.Int) error
}

// Drive runs m to completion, asking h for a value each time the machine
// needs input and handing it every output. The context is checked between
// signals.
func Drive(ctx context.Context, m *intcode.Machine, h Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sig, err := m.Run()
		if err != nil {
			log.Errorf("%s: %v", m.Name(), err)
			return err
		}
		switch sig.Kind {
		case intcode.SignalOutput:
			if err := output(h, sig); err != nil {
				return err
			}
		case intcode.SignalNeedsInput:
			v, err := h.Input()
			if err != nil {
				return err
			}
			m.ProvideInput(v)
		case intcode.SignalHalted:
			log.Debugf("%s: halted after %d steps", m.Name(), m.Steps())
			return nil
		}
	}
}

func output(h Handler, sig intcode.Signal) error {
	if wh, ok := h.(WideHandler); ok && sig.Wide != nil {
		return wh.OutputWide(sig.Int())
	}
	v, err := sig.Int64()
	if err != nil {
		return err
	}
	return h.Output(v)
}

// HandlerFuncs adapts a pair of functions to Handler. A nil InputFunc
// reports ErrInputUnderflow; a nil OutputFunc discards outputs.
type HandlerFuncs struct {
	InputFunc  func() (int64, error)
	OutputFunc func(int64) error
}

func (h HandlerFuncs) Input() (int64, error) {
	if h.InputFunc == nil {
		return 0, ErrInputUnderflow
	}
	return h.InputFunc()
}

func (h HandlerFuncs) Output(v int64) error {
	if h.OutputFunc == nil {
		return nil
	}
	return h.OutputFunc(v)
}

// QueueHandler feeds a fixed list of inputs and records outputs.
type QueueHandler struct {
	Inputs  []int64
	Outputs []int64
}

func (q *QueueHandler) Input() (int64, error) {
	if len(q.Inputs) == 0 {
		return 0, ErrInputUnderflow
	}
	v := q.Inputs[0]
	q.Inputs = q.Inputs[1:]
	return v, nil
}

func (q *QueueHandler) Output(v int64) error {
	q.Outputs = append(q.Outputs, v)
	return nil
}
