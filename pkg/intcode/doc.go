// Package intcode implements the Intcode virtual machine: a small bytecode
// interpreter over a flat, self-modifying memory of signed integers.
//
// A program is an ordered sequence of integers, conventionally written as
// comma-separated decimal text. The machine loads it at address 0 and executes
// instructions starting from the instruction pointer.
//
// # Instruction format
//
// The word at the instruction pointer holds the opcode in its two low decimal
// digits and one parameter mode per following digit:
//
//	ABCDE
//	 1002
//
//	DE - opcode (02 = multiply)
//	 C - mode of the first parameter  (0 = position)
//	 B - mode of the second parameter (1 = immediate)
//	 A - mode of the third parameter  (0 = position, omitted leading zero)
//
// Position-mode parameters are addresses, immediate-mode parameters are
// literals. Parameters that name a write target must be in position mode.
//
// # Values
//
// Values are signed and unbounded. They are held as int64 while they fit;
// arithmetic that leaves the int64 range continues with math/big. The
// instruction word, addresses and jump targets must fit in int64.
//
// # Suspension
//
// Machines never block. Run executes until one of three things happens:
//
//   - an Input instruction finds the input queue empty (SignalNeedsInput)
//   - an Output instruction produced a value (SignalOutput)
//   - the program halted (SignalHalted)
//
// The caller supplies input with ProvideInput and calls Run again. This lets a
// single goroutine interleave any number of machines, for example a ring of
// amplifiers feeding each other's outputs.
//
// # Isolation
//
// Each Machine owns its memory and input queue. Clone deep-copies both, so a
// search can fork a machine at any suspension point and explore branches
// independently. Fatal errors fault only the machine that raised them.
package intcode
