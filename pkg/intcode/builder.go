package intcode

import (
	"errors"
	"fmt"
)

// Operand is a parameter handed to Builder.Emit.
type Operand struct {
	Mode  Mode
	Value int64
	Label string // when set, Value is replaced by the label's address
}

// Pos is a position-mode operand: the value at addr.
func Pos(addr int64) Operand { return Operand{Mode: ModePosition, Value: addr} }

// Imm is an immediate-mode operand: the literal v.
func Imm(v int64) Operand { return Operand{Mode: ModeImmediate, Value: v} }

// Ref is an immediate operand holding the address of label, typically a jump
// destination.
func Ref(label string) Operand { return Operand{Mode: ModeImmediate, Label: label} }

// At is a position-mode operand naming the cell at label, typically a
// variable declared with Data.
func At(label string) Operand { return Operand{Mode: ModePosition, Label: label} }

type fixup struct {
	offset int
	label  string
}

// Builder assembles Intcode programs instruction by instruction, resolving
// labels when Build is called.
type Builder struct {
	code   []int64
	labels map[string]int64
	fixups []fixup
	errs   []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{labels: make(map[string]int64)}
}

// Emit appends one instruction and returns its offset.
func (b *Builder) Emit(op Opcode, operands ...Operand) int {
	offset := len(b.code)
	if !op.Valid() {
		b.errs = append(b.errs, fmt.Errorf("offset %d: illegal opcode %d", offset, int64(op)))
	} else if len(operands) != op.Params() {
		b.errs = append(b.errs, fmt.Errorf("offset %d: %s takes %d operands, got %d", offset, op, op.Params(), len(operands)))
	}
	modes := make([]Mode, len(operands))
	for i, o := range operands {
		modes[i] = o.Mode
	}
	b.code = append(b.code, Encode(op, modes...))
	for _, o := range operands {
		if o.Label != "" {
			b.fixups = append(b.fixups, fixup{offset: len(b.code), label: o.Label})
		}
		b.code = append(b.code, o.Value)
	}
	return offset
}

// Data appends raw words and returns the offset of the first.
func (b *Builder) Data(values ...int64) int {
	offset := len(b.code)
	b.code = append(b.code, values...)
	return offset
}

// Label names the current offset.
func (b *Builder) Label(name string) int64 {
	offset := int64(len(b.code))
	if _, dup := b.labels[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("label %q defined twice", name))
		return offset
	}
	b.labels[name] = offset
	return offset
}

// Offset returns the address the next emitted word will occupy.
func (b *Builder) Offset() int64 {
	return int64(len(b.code))
}

// Build resolves labels and returns the program.
func (b *Builder) Build() ([]int64, error) {
	errs := append([]error(nil), b.errs...)
	out := make([]int64, len(b.code))
	copy(out, b.code)
	for _, f := range b.fixups {
		addr, ok := b.labels[f.label]
		if !ok {
			errs = append(errs, fmt.Errorf("offset %d: undefined label %q", f.offset, f.label))
			continue
		}
		out[f.offset] = addr
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: nothing emitted", ErrInvalidProgram)
	}
	return out, nil
}
