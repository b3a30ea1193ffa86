package intcode

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

// Program is parsed program text. Words holds the values in address order;
// a value outside the int64 range is 0 in Words and held in Wide under its
// address.
type Program struct {
	Words []int64
	Wide  map[int64]*big.Int
}

// Len returns the number of words.
func (p Program) Len() int {
	return len(p.Words)
}

// Int64s returns the words, or a *RangeError if any value does not fit in
// 64 bits.
func (p Program) Int64s() ([]int64, error) {
	if len(p.Wide) == 0 {
		return p.Words, nil
	}
	for addr := range p.Words {
		if v, ok := p.Wide[int64(addr)]; ok {
			return nil, &RangeError{Value: new(big.Int).Set(v), Address: int64(addr)}
		}
	}
	return p.Words, nil
}

// Memory returns fresh memory holding the program at address 0.
func (p Program) Memory() *Memory {
	mem := NewMemory(p.Words)
	for addr, v := range p.Wide {
		if addr >= 0 && addr < int64(len(p.Words)) {
			mem.StoreBig(addr, v)
		}
	}
	return mem
}

// String renders the program as comma-separated text.
func (p Program) String() string {
	var sb strings.Builder
	for i, v := range p.Words {
		if i > 0 {
			sb.WriteByte(',')
		}
		if w, ok := p.Wide[int64(i)]; ok {
			sb.WriteString(w.String())
		} else {
			sb.WriteString(strconv.FormatInt(v, 10))
		}
	}
	return sb.String()
}

// ParseProgram parses comma-separated decimal program text. Whitespace
// around the text and around each token is ignored, so a trailing newline
// from a puzzle input file is accepted. Tokens of any magnitude are
// accepted.
func ParseProgram(text string) (Program, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Program{}, fmt.Errorf("%w: empty program text", ErrInvalidProgram)
	}
	tokens := strings.Split(text, ",")
	p := Program{Words: make([]int64, len(tokens))}
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.ParseInt(tok, 10, 64)
		if err == nil {
			p.Words[i] = v
			continue
		}
		if !errors.Is(err, strconv.ErrRange) {
			return Program{}, &ProgramError{Index: i, Token: tok, Err: err}
		}
		w, ok := new(big.Int).SetString(tok, 10)
		if !ok {
			return Program{}, &ProgramError{Index: i, Token: tok, Err: err}
		}
		if p.Wide == nil {
			p.Wide = make(map[int64]*big.Int)
		}
		p.Wide[int64(i)] = w
	}
	return p, nil
}

// ReadProgram reads all of r and parses it as program text.
func ReadProgram(r io.Reader) (Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Program{}, fmt.Errorf("reading program: %w", err)
	}
	return ParseProgram(string(data))
}

// FormatProgram renders a program (or a memory dump) as comma-separated text.
func FormatProgram(program []int64) string {
	return Program{Words: program}.String()
}
