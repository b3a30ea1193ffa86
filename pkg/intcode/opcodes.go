package intcode

import (
	"fmt"
	"sort"
)

// Opcode selects the operation of an instruction. It is the instruction word
// modulo 100.
type Opcode int64

const (
	OpAdd         Opcode = 1  // p3 = p1 + p2
	OpMultiply    Opcode = 2  // p3 = p1 * p2
	OpInput       Opcode = 3  // p1 = next input, suspends when none is queued
	OpOutput      Opcode = 4  // emit p1 and suspend
	OpJumpIfTrue  Opcode = 5  // if p1 != 0 { ip = p2 }
	OpJumpIfFalse Opcode = 6  // if p1 == 0 { ip = p2 }
	OpLessThan    Opcode = 7  // p3 = p1 < p2 ? 1 : 0
	OpEquals      Opcode = 8  // p3 = p1 == p2 ? 1 : 0
	OpHalt        Opcode = 99 // stop
)

// OpcodeInfo describes the shape of an instruction.
type OpcodeInfo struct {
	Name   string // Mnemonic used by the disassembler
	Params int    // Number of parameter words following the instruction word
	Write  int    // Index of the write-target parameter, or -1
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpAdd:         {"ADD", 3, 2},
	OpMultiply:    {"MUL", 3, 2},
	OpInput:       {"IN", 1, 0},
	OpOutput:      {"OUT", 1, -1},
	OpJumpIfTrue:  {"JNZ", 2, -1},
	OpJumpIfFalse: {"JZ", 2, -1},
	OpLessThan:    {"LT", 3, 2},
	OpEquals:      {"EQ", 3, 2},
	OpHalt:        {"HALT", 0, -1},
}

// GetOpcodeInfo returns metadata for an opcode. Unknown opcodes get the name
// "UNKNOWN(n)" and no parameters.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", int64(op)), Write: -1}
}

// Valid reports whether op is one of the nine defined opcodes.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Params returns the number of parameters the opcode takes.
func (op Opcode) Params() int {
	return GetOpcodeInfo(op).Params
}

// InstructionLen returns the number of memory words the instruction occupies,
// including the instruction word.
func (op Opcode) InstructionLen() int64 {
	return 1 + int64(op.Params())
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Mode tells how a parameter is interpreted.
type Mode int64

const (
	ModePosition  Mode = 0 // parameter is an address
	ModeImmediate Mode = 1 // parameter is a literal
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	}
	return fmt.Sprintf("mode(%d)", int64(m))
}

// Valid reports whether the machine understands the mode.
func (m Mode) Valid() bool {
	return m == ModePosition || m == ModeImmediate
}

// MaxParams is the largest parameter count of any instruction.
const MaxParams = 3

// Instruction is a decoded instruction word.
type Instruction struct {
	Word  int64
	Op    Opcode
	Modes [MaxParams]Mode
}

// Decode splits an instruction word into its opcode and parameter modes.
// Decode never fails; the machine validates the opcode and modes when it
// executes the instruction.
func Decode(word int64) Instruction {
	inst := Instruction{Word: word, Op: Opcode(word % 100)}
	rest := word / 100
	for i := range inst.Modes {
		inst.Modes[i] = Mode(rest % 10)
		rest /= 10
	}
	return inst
}

// Encode builds an instruction word from an opcode and parameter modes.
// Missing modes are position mode.
func Encode(op Opcode, modes ...Mode) int64 {
	word := int64(op)
	scale := int64(100)
	for _, m := range modes {
		word += int64(m) * scale
		scale *= 10
	}
	return word
}

func (inst Instruction) String() string {
	return fmt.Sprintf("%s(%d) modes=%d%d%d", inst.Op, inst.Word, inst.Modes[2], inst.Modes[1], inst.Modes[0])
}
