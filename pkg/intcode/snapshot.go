package intcode

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Snapshot is the serialisable state of a suspended machine.
type Snapshot struct {
	Name   string          `cbor:"1,keyasint"`
	Memory []int64         `cbor:"2,keyasint"`
	Sparse map[int64]int64 `cbor:"3,keyasint,omitempty"`
	IP     int64           `cbor:"4,keyasint"`
	Input  []int64         `cbor:"5,keyasint,omitempty"`
	State  State           `cbor:"6,keyasint"`
	Steps  uint64          `cbor:"7,keyasint"`

	// Values outside the int64 range, as decimal text keyed by address.
	Wide map[int64]string `cbor:"8,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("intcode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot captures the machine state. The result shares no memory with m.
func (m *Machine) Snapshot() *Snapshot {
	s := &Snapshot{
		Name:   m.name,
		Memory: m.mem.Words(),
		Sparse: m.mem.Sparse(),
		IP:     m.ip,
		Input:  append([]int64(nil), m.input...),
		State:  m.state,
		Steps:  m.steps,
	}
	for addr, v := range m.mem.Wide() {
		if s.Wide == nil {
			s.Wide = make(map[int64]string)
		}
		s.Wide[addr] = v.String()
	}
	return s
}

// Restore rebuilds a machine from a snapshot. Options are applied after the
// snapshot, so WithName overrides the stored name.
func Restore(s *Snapshot, opts ...Option) (*Machine, error) {
	if s == nil || len(s.Memory) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no memory", ErrInvalidProgram)
	}
	if s.State == StateFaulted {
		return nil, errors.New("intcode: cannot restore a faulted machine")
	}
	if s.State < StateReady || s.State > StateHalted {
		return nil, fmt.Errorf("intcode: snapshot has unknown state %d", int(s.State))
	}
	mem := NewMemory(s.Memory)
	for addr, v := range s.Sparse {
		if err := mem.Store(addr, v); err != nil {
			return nil, fmt.Errorf("intcode: snapshot sparse cell: %w", err)
		}
	}
	for addr, text := range s.Wide {
		v, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("intcode: snapshot cell %d: invalid value %q", addr, text)
		}
		if err := mem.StoreBig(addr, v); err != nil {
			return nil, fmt.Errorf("intcode: snapshot wide cell: %w", err)
		}
	}
	m := &Machine{
		mem:   mem,
		ip:    s.IP,
		input: append([]int64(nil), s.Input...),
		state: s.State,
		steps: s.Steps,
		name:  s.Name,
		log:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name == "" {
		m.name = uuid.New().String()
	}
	return m, nil
}

// MarshalSnapshot serializes a snapshot to canonical CBOR.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("intcode: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
