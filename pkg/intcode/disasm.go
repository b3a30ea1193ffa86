package intcode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of program.
func Disassemble(program []int64) string {
	return DisassembleWithName(program, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(program []int64, name string) string {
	return DisassembleProgram(Program{Words: program}, name)
}

// DisassembleProgram returns a listing of p with a name header.
//
// Intcode does not separate code from data, so the listing is a linear sweep:
// a word that decodes to a valid instruction with valid modes and whose
// parameters fit in the program is shown as that instruction; anything else
// is shown as DATA and the sweep advances by one word.
func DisassembleProgram(p Program, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d words\n", p.Len()))

	offset := 0
	for offset < p.Len() {
		line, n := disassembleInstruction(p, offset)
		sb.WriteString(fmt.Sprintf("%04d  %s\n", offset, line))
		offset += n
	}
	return sb.String()
}

// disassembleInstruction formats the instruction at offset and returns its
// length in words.
func disassembleInstruction(p Program, offset int) (string, int) {
	word := p.Words[offset]
	if w, ok := p.Wide[int64(offset)]; ok {
		return fmt.Sprintf("DATA %s", w), 1
	}
	inst := Decode(word)
	info := GetOpcodeInfo(inst.Op)
	if !inst.Op.Valid() || offset+1+info.Params > p.Len() {
		return fmt.Sprintf("DATA %d", word), 1
	}
	params := make([]string, 0, info.Params)
	for i := 0; i < info.Params; i++ {
		if !inst.Modes[i].Valid() || (i == info.Write && inst.Modes[i] != ModePosition) {
			return fmt.Sprintf("DATA %d", word), 1
		}
		at := offset + 1 + i
		text := fmt.Sprint(p.Words[at])
		if w, ok := p.Wide[int64(at)]; ok {
			text = w.String()
		}
		params = append(params, formatParam(inst.Modes[i], text))
	}
	if len(params) == 0 {
		return info.Name, 1
	}
	return fmt.Sprintf("%-4s %s", info.Name, strings.Join(params, ", ")), 1 + info.Params
}

// formatParam renders a parameter as [addr] in position mode and #value in
// immediate mode.
func formatParam(mode Mode, v string) string {
	switch mode {
	case ModePosition:
		return fmt.Sprintf("[%s]", v)
	case ModeImmediate:
		return "#" + v
	}
	return fmt.Sprintf("?%d:%s", int64(mode), v)
}
