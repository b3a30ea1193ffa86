package intcode

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidProgram is returned when a program is empty or cannot be parsed.
var ErrInvalidProgram = errors.New("intcode: invalid program")

// ProgramError reports a token of program text that is not an integer.
type ProgramError struct {
	Index int    // Position of the token in the comma-separated list
	Token string // Offending text
	Err   error  // Underlying parse error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("intcode: invalid program: token %d %q: %v", e.Index, e.Token, e.Err)
}

// Unwrap lets errors.Is match ErrInvalidProgram.
func (e *ProgramError) Unwrap() []error {
	return []error{ErrInvalidProgram, e.Err}
}

// OpcodeError reports an instruction word whose opcode is not defined.
type OpcodeError struct {
	Opcode  Opcode
	Word    int64
	Address int64
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("intcode: illegal opcode %d (word %d) at address %d", int64(e.Opcode), e.Word, e.Address)
}

// AddressError reports a reference to a negative address.
type AddressError struct {
	Address int64 // The negative address
	IP      int64 // Instruction that referenced it
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("intcode: negative address %d referenced at ip %d", e.Address, e.IP)
}

// ImmediateWriteError reports a write-target parameter in immediate mode.
type ImmediateWriteError struct {
	Opcode  Opcode
	Param   int // Zero-based parameter index
	Address int64
}

func (e *ImmediateWriteError) Error() string {
	return fmt.Sprintf("intcode: %s at address %d writes through immediate parameter %d", e.Opcode, e.Address, e.Param+1)
}

// ModeError reports a parameter mode digit other than 0 or 1.
type ModeError struct {
	Mode    Mode
	Param   int
	Address int64
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("intcode: unknown parameter mode %d for parameter %d at address %d", int64(e.Mode), e.Param+1, e.Address)
}

// RangeError reports a value outside the int64 range where the machine or
// the caller needs an int64: an instruction word, an address, a jump target
// or a read through Load.
type RangeError struct {
	Value   *big.Int
	Address int64 // Where the value is stored, or -1 for an output
	IP      int64
}

func (e *RangeError) Error() string {
	if e.Address < 0 {
		return fmt.Sprintf("intcode: output %s does not fit in 64 bits", e.Value)
	}
	return fmt.Sprintf("intcode: value %s at address %d does not fit in 64 bits (ip %d)", e.Value, e.Address, e.IP)
}
