package harness

import (
	"errors"
	"fmt"

	"github.com/chazu/intcode/pkg/intcode"
)

var errNoAmplifiers = errors.New("harness: no phases given")

// amplifiers builds one machine per phase setting, each already holding its
// phase as first input.
func amplifiers(program, phases []int64, opts ...intcode.Option) ([]*intcode.Machine, error) {
	if len(phases) == 0 {
		return nil, errNoAmplifiers
	}
	amps := make([]*intcode.Machine, len(phases))
	for i, phase := range phases {
		o := append([]intcode.Option{intcode.WithName(fmt.Sprintf("amp-%d", i)), intcode.WithInput(phase)}, opts...)
		m, err := intcode.New(program, o...)
		if err != nil {
			return nil, err
		}
		amps[i] = m
	}
	return amps, nil
}

// Chain runs the amplifiers in series. Each receives its phase and then the
// previous amplifier's last output; the first receives 0. The result is the
// last amplifier's final output.
func Chain(program, phases []int64, opts ...intcode.Option) (int64, error) {
	amps, err := amplifiers(program, phases, opts...)
	if err != nil {
		return 0, err
	}
	var signal int64
	for i, m := range amps {
		outputs, err := Collect(m, signal)
		if err != nil {
			return 0, fmt.Errorf("harness: amplifier %d: %w", i, err)
		}
		if len(outputs) == 0 {
			return 0, fmt.Errorf("harness: amplifier %d produced no output", i)
		}
		signal = outputs[len(outputs)-1]
	}
	return signal, nil
}

// Feedback runs the amplifiers in a ring, the last feeding the first, until
// the last amplifier halts. Amplifiers are driven round-robin on the calling
// goroutine; each runs until it needs input it does not have. The result is
// the last amplifier's final output.
func Feedback(program, phases []int64, opts ...intcode.Option) (int64, error) {
	amps, err := amplifiers(program, phases, opts...)
	if err != nil {
		return 0, err
	}
	amps[0].ProvideInput(0)

	n := len(amps)
	last := amps[n-1]
	var signal int64
	produced := false
	for round := 1; ; round++ {
		progress := false
		for i, m := range amps {
			before := m.Steps()
			for m.State() != intcode.StateHalted {
				sig, err := m.Run()
				if err != nil {
					return 0, fmt.Errorf("harness: amplifier %d: %w", i, err)
				}
				if sig.Kind != intcode.SignalOutput {
					break
				}
				v, err := sig.Int64()
				if err != nil {
					return 0, fmt.Errorf("harness: amplifier %d: %w", i, err)
				}
				amps[(i+1)%n].ProvideInput(v)
				if i == n-1 {
					signal, produced = v, true
				}
			}
			if m.Steps() != before {
				progress = true
			}
		}
		if last.State() == intcode.StateHalted {
			log.Debugf("feedback loop settled after %d rounds", round)
			if !produced {
				return 0, fmt.Errorf("harness: amplifier %d produced no output", n-1)
			}
			return signal, nil
		}
		if !progress {
			return 0, fmt.Errorf("%w: feedback loop stalled in round %d", ErrInputUnderflow, round)
		}
	}
}
