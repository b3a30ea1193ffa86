package intcode

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.machine")

// State is the execution state of a machine.
type State int

const (
	StateReady      State = iota // created, not yet run
	StateNeedsInput              // suspended on an Input instruction with an empty queue
	StateOutput                  // suspended right after an Output instruction
	StateHalted                  // reached Halt; terminal
	StateFaulted                 // stopped by a fatal error; terminal
)

var stateNames = [...]string{"ready", "needs-input", "output", "halted", "faulted"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further instruction can execute.
func (s State) Terminal() bool {
	return s == StateHalted || s == StateFaulted
}

// SignalKind says why Run returned.
type SignalKind int

const (
	SignalNone       SignalKind = iota // returned alongside an error
	SignalOutput                       // Value (or Wide) holds the produced output
	SignalNeedsInput                   // queue was empty at an Input instruction
	SignalHalted                       // program halted
)

// Signal is the result of one call to Run.
type Signal struct {
	Kind  SignalKind
	Value int64
	Wide  *big.Int // set instead of Value when the output does not fit in int64
}

// Int64 returns the output value, or a *RangeError when it does not fit in
// 64 bits.
func (s Signal) Int64() (int64, error) {
	if s.Wide != nil {
		return 0, &RangeError{Value: new(big.Int).Set(s.Wide), Address: -1}
	}
	return s.Value, nil
}

// Int returns the output value at full precision.
func (s Signal) Int() *big.Int {
	if s.Wide != nil {
		return new(big.Int).Set(s.Wide)
	}
	return big.NewInt(s.Value)
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalNone:
		return "none"
	case SignalOutput:
		if s.Wide != nil {
			return fmt.Sprintf("output(%s)", s.Wide)
		}
		return fmt.Sprintf("output(%d)", s.Value)
	case SignalNeedsInput:
		return "needs-input"
	case SignalHalted:
		return "halted"
	}
	return fmt.Sprintf("signal(%d)", int(s.Kind))
}

// Machine is an Intcode CPU. A Machine is not safe for concurrent use; it
// never blocks and never starts goroutines, so a caller drives it by calling
// Run and reacting to the returned Signal.
type Machine struct {
	mem   *Memory
	ip    int64
	input []int64
	state State
	err   error // sticky once set
	steps uint64

	name   string
	clones int
	log    commonlog.Logger
	trace  bool
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithName sets the machine name used in logs. The default is a random UUID.
func WithName(name string) Option {
	return func(m *Machine) { m.name = name }
}

// WithLogger replaces the package logger.
func WithLogger(l commonlog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(trace bool) Option {
	return func(m *Machine) { m.trace = trace }
}

// WithInput queues input values before the first Run.
func WithInput(values ...int64) Option {
	return func(m *Machine) { m.ProvideInput(values...) }
}

// New returns a machine with program loaded at address 0.
func New(program []int64, opts ...Option) (*Machine, error) {
	if len(program) == 0 {
		return nil, fmt.Errorf("%w: empty program", ErrInvalidProgram)
	}
	return newMachine(NewMemory(program), opts)
}

// NewProgram returns a machine with p, including any values outside the
// int64 range, loaded at address 0.
func NewProgram(p Program, opts ...Option) (*Machine, error) {
	if p.Len() == 0 {
		return nil, fmt.Errorf("%w: empty program", ErrInvalidProgram)
	}
	return newMachine(p.Memory(), opts)
}

func newMachine(mem *Memory, opts []Option) (*Machine, error) {
	m := &Machine{
		mem: mem,
		log: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name == "" {
		m.name = uuid.New().String()
	}
	return m, nil
}

// ProvideInput appends values to the input queue. It does not execute
// anything.
func (m *Machine) ProvideInput(values ...int64) {
	m.input = append(m.input, values...)
}

// PendingInput returns the number of queued input values.
func (m *Machine) PendingInput() int {
	return len(m.input)
}

// Name returns the machine name.
func (m *Machine) Name() string { return m.name }

// State returns the current execution state.
func (m *Machine) State() State { return m.state }

// IP returns the instruction pointer.
func (m *Machine) IP() int64 { return m.ip }

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() uint64 { return m.steps }

// Err returns the fatal error that faulted the machine, if any.
func (m *Machine) Err() error { return m.err }

// Load reads memory directly. A value outside the int64 range is a
// *RangeError.
func (m *Machine) Load(addr int64) (int64, error) {
	return m.mem.Load(addr)
}

// LoadBig reads memory directly at full precision.
func (m *Machine) LoadBig(addr int64) (*big.Int, error) {
	return m.mem.LoadBig(addr)
}

// Store writes memory directly, for example to patch a program before it
// runs.
func (m *Machine) Store(addr, value int64) error {
	return m.mem.Store(addr, value)
}

// Memory returns a copy of the dense memory region. Values outside the int64
// range read as 0; LoadBig returns them.
func (m *Machine) Memory() []int64 {
	return m.mem.Words()
}

// Dump writes the non-zero parts of memory; see Memory.Dump.
func (m *Machine) Dump(w io.Writer) error {
	return m.mem.Dump(w)
}

// Clone returns a deep copy of the machine: memory, input queue, instruction
// pointer and state. The copy shares nothing mutable with m.
func (m *Machine) Clone() *Machine {
	m.clones++
	c := &Machine{
		mem:   m.mem.Clone(),
		ip:    m.ip,
		input: append([]int64(nil), m.input...),
		state: m.state,
		err:   m.err,
		steps: m.steps,
		name:  fmt.Sprintf("%s/%d", m.name, m.clones),
		log:   m.log,
		trace: m.trace,
	}
	return c
}

// Run executes instructions until the machine produces an output, needs
// input, or halts. Once halted, Run keeps returning SignalHalted without
// executing anything. Once faulted, Run keeps returning the same error.
func (m *Machine) Run() (Signal, error) {
	switch m.state {
	case StateHalted:
		return Signal{Kind: SignalHalted}, nil
	case StateFaulted:
		return Signal{}, m.err
	}
	for {
		sig, suspend, err := m.step()
		if err != nil {
			m.state = StateFaulted
			m.err = err
			m.log.Debugf("%s: faulted: %v", m.name, err)
			return Signal{}, err
		}
		if suspend {
			return sig, nil
		}
	}
}

// step executes one instruction. suspend is true when Run must return sig.
func (m *Machine) step() (sig Signal, suspend bool, err error) {
	word, err := m.load(m.ip)
	if err != nil {
		return sig, false, err
	}
	inst := Decode(word)
	if !inst.Op.Valid() {
		return sig, false, &OpcodeError{Opcode: inst.Op, Word: word, Address: m.ip}
	}
	if m.trace && m.log.AllowLevel(commonlog.Debug) {
		m.traceInstruction(inst)
	}

	switch inst.Op {
	case OpAdd, OpMultiply, OpLessThan, OpEquals:
		a, err := m.param(inst, 0)
		if err != nil {
			return sig, false, err
		}
		b, err := m.param(inst, 1)
		if err != nil {
			return sig, false, err
		}
		var result value
		switch inst.Op {
		case OpAdd:
			result = addValues(a, b)
		case OpMultiply:
			result = mulValues(a, b)
		case OpLessThan:
			result = boolValue(compareValues(a, b) < 0)
		case OpEquals:
			result = boolValue(compareValues(a, b) == 0)
		}
		if err := m.write(inst, 2, result); err != nil {
			return sig, false, err
		}
		m.ip += 4

	case OpInput:
		if len(m.input) == 0 {
			m.state = StateNeedsInput
			return Signal{Kind: SignalNeedsInput}, true, nil
		}
		addr, err := m.target(inst, 0)
		if err != nil {
			return sig, false, err
		}
		v := m.input[0]
		m.input = m.input[1:]
		if err := m.store(addr, value{small: v}); err != nil {
			return sig, false, err
		}
		m.ip += 2

	case OpOutput:
		v, err := m.param(inst, 0)
		if err != nil {
			return sig, false, err
		}
		m.ip += 2
		m.steps++
		m.state = StateOutput
		if v.big != nil {
			return Signal{Kind: SignalOutput, Wide: new(big.Int).Set(v.big)}, true, nil
		}
		return Signal{Kind: SignalOutput, Value: v.small}, true, nil

	case OpJumpIfTrue, OpJumpIfFalse:
		cond, err := m.param(inst, 0)
		if err != nil {
			return sig, false, err
		}
		at, err := m.operand(inst, 1)
		if err != nil {
			return sig, false, err
		}
		dest, err := m.mem.load(at)
		if err != nil {
			return sig, false, m.addressError(err)
		}
		if !cond.isZero() == (inst.Op == OpJumpIfTrue) {
			if dest.big != nil {
				return sig, false, &RangeError{Value: new(big.Int).Set(dest.big), Address: at, IP: m.ip}
			}
			m.ip = dest.small
		} else {
			m.ip += 3
		}

	case OpHalt:
		m.steps++
		m.state = StateHalted
		return Signal{Kind: SignalHalted}, true, nil
	}

	m.steps++
	m.state = StateReady
	return sig, false, nil
}

// param resolves parameter i of the instruction at ip according to its mode.
func (m *Machine) param(inst Instruction, i int) (value, error) {
	at, err := m.operand(inst, i)
	if err != nil {
		return value{}, err
	}
	v, err := m.mem.load(at)
	return v, m.addressError(err)
}

// operand returns the address holding parameter i: the parameter word itself
// in immediate mode, the address it names in position mode.
func (m *Machine) operand(inst Instruction, i int) (int64, error) {
	at := m.ip + 1 + int64(i)
	switch inst.Modes[i] {
	case ModePosition:
		return m.load(at)
	case ModeImmediate:
		return at, nil
	}
	return 0, &ModeError{Mode: inst.Modes[i], Param: i, Address: m.ip}
}

// target resolves write-target parameter i to an address. Only position mode
// is accepted.
func (m *Machine) target(inst Instruction, i int) (int64, error) {
	switch inst.Modes[i] {
	case ModePosition:
	case ModeImmediate:
		return 0, &ImmediateWriteError{Opcode: inst.Op, Param: i, Address: m.ip}
	default:
		return 0, &ModeError{Mode: inst.Modes[i], Param: i, Address: m.ip}
	}
	return m.load(m.ip + 1 + int64(i))
}

func (m *Machine) write(inst Instruction, i int, v value) error {
	addr, err := m.target(inst, i)
	if err != nil {
		return err
	}
	return m.store(addr, v)
}

func (m *Machine) load(addr int64) (int64, error) {
	v, err := m.mem.Load(addr)
	return v, m.addressError(err)
}

func (m *Machine) store(addr int64, v value) error {
	return m.addressError(m.mem.store(addr, v))
}

// addressError stamps the current instruction pointer on memory errors.
func (m *Machine) addressError(err error) error {
	var ae *AddressError
	if errors.As(err, &ae) {
		ae.IP = m.ip
	}
	var re *RangeError
	if errors.As(err, &re) {
		re.IP = m.ip
	}
	return err
}

func (m *Machine) traceInstruction(inst Instruction) {
	n := inst.Op.Params()
	raw := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, _ := m.mem.load(m.ip + 1 + int64(i))
		raw = append(raw, formatParam(inst.Modes[i], v.String()))
	}
	m.log.Debugf("%s [%04d] %-4s %s", m.name, m.ip, inst.Op, strings.Join(raw, ", "))
}
