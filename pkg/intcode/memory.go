package intcode

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
)

// sparseGap is how far past the dense extent a write may land before it is
// kept in the sparse map instead of growing the slice.
const sparseGap = 1 << 20

// Memory is a zero-filled, auto-extending mapping from non-negative address
// to value. Addresses near the loaded program live in a dense slice; stray
// writes far beyond it go to a sparse map. Values outside the int64 range
// are kept in wide, with a zero in the int64 cell at the same address.
type Memory struct {
	cells  []int64
	sparse map[int64]int64
	wide   map[int64]*big.Int
}

// NewMemory returns memory holding a copy of program at address 0.
func NewMemory(program []int64) *Memory {
	cells := make([]int64, len(program))
	copy(cells, program)
	return &Memory{cells: cells}
}

// Load returns the value at addr. Addresses never written read as 0. A value
// outside the int64 range is a *RangeError; LoadBig reads it.
func (m *Memory) Load(addr int64) (int64, error) {
	if addr < 0 {
		return 0, &AddressError{Address: addr}
	}
	if w, ok := m.wide[addr]; ok {
		return 0, &RangeError{Value: new(big.Int).Set(w), Address: addr}
	}
	if addr < int64(len(m.cells)) {
		return m.cells[addr], nil
	}
	return m.sparse[addr], nil
}

// LoadBig returns the value at addr at full precision.
func (m *Memory) LoadBig(addr int64) (*big.Int, error) {
	v, err := m.load(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.bigInt()), nil
}

func (m *Memory) load(addr int64) (value, error) {
	if w, ok := m.wide[addr]; ok {
		return value{big: w}, nil
	}
	v, err := m.Load(addr)
	return value{small: v}, err
}

// Store writes value at addr, extending memory as needed.
func (m *Memory) Store(addr, value int64) error {
	if addr < 0 {
		return &AddressError{Address: addr}
	}
	delete(m.wide, addr)
	n := int64(len(m.cells))
	switch {
	case addr < n:
		m.cells[addr] = value
	case addr-n < sparseGap:
		m.grow(addr + 1)
		m.cells[addr] = value
	default:
		if m.sparse == nil {
			m.sparse = make(map[int64]int64)
		}
		m.sparse[addr] = value
	}
	return nil
}

// StoreBig writes v at addr. Values in the int64 range are stored as Store
// would store them.
func (m *Memory) StoreBig(addr int64, v *big.Int) error {
	return m.store(addr, wideValue(new(big.Int).Set(v)))
}

func (m *Memory) store(addr int64, v value) error {
	if err := m.Store(addr, v.small); err != nil || v.big == nil {
		return err
	}
	if m.wide == nil {
		m.wide = make(map[int64]*big.Int)
	}
	m.wide[addr] = v.big
	return nil
}

// grow extends the dense slice to size cells, folding in any sparse values
// that now fall inside it.
func (m *Memory) grow(size int64) {
	if size <= int64(cap(m.cells)) {
		m.cells = m.cells[:size]
	} else {
		c := int64(cap(m.cells)) * 2
		if c < size {
			c = size
		}
		cells := make([]int64, size, c)
		copy(cells, m.cells)
		m.cells = cells
	}
	for addr, v := range m.sparse {
		if addr < size {
			m.cells[addr] = v
			delete(m.sparse, addr)
		}
	}
}

// Len returns the extent of the dense region.
func (m *Memory) Len() int64 {
	return int64(len(m.cells))
}

// Words returns a copy of the dense region. Cells holding values outside
// the int64 range read as 0; see Wide.
func (m *Memory) Words() []int64 {
	out := make([]int64, len(m.cells))
	copy(out, m.cells)
	return out
}

// Sparse returns a copy of the values stored beyond the dense region.
func (m *Memory) Sparse() map[int64]int64 {
	if len(m.sparse) == 0 {
		return nil
	}
	out := make(map[int64]int64, len(m.sparse))
	for k, v := range m.sparse {
		out[k] = v
	}
	return out
}

// Wide returns a copy of the cells holding values outside the int64 range,
// keyed by address.
func (m *Memory) Wide() map[int64]*big.Int {
	if len(m.wide) == 0 {
		return nil
	}
	out := make(map[int64]*big.Int, len(m.wide))
	for k, v := range m.wide {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

// Program returns the dense region with its wide cells.
func (m *Memory) Program() Program {
	p := Program{Words: m.Words()}
	for addr, v := range m.wide {
		if addr < int64(len(m.cells)) {
			if p.Wide == nil {
				p.Wide = make(map[int64]*big.Int)
			}
			p.Wide[addr] = new(big.Int).Set(v)
		}
	}
	return p
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	c := &Memory{cells: m.Words()}
	c.sparse = m.Sparse()
	if len(m.wide) > 0 {
		// Stored big values are never mutated.
		c.wide = make(map[int64]*big.Int, len(m.wide))
		for k, v := range m.wide {
			c.wide[k] = v
		}
	}
	return c
}

func (m *Memory) text(addr, v int64) string {
	if w, ok := m.wide[addr]; ok {
		return w.String()
	}
	return strconv.FormatInt(v, 10)
}

// Dump writes non-zero rows of the dense region, eight words per row, in the
// form "0000: 1 2 3 ...". Sparse cells follow as "addr: value" lines.
func (m *Memory) Dump(w io.Writer) error {
	const width = 8
	for i := 0; i < len(m.cells); i += width {
		j := i + width
		if j > len(m.cells) {
			j = len(m.cells)
		}
		nonzero := false
		for k, v := range m.cells[i:j] {
			if _, ok := m.wide[int64(i+k)]; ok || v != 0 {
				nonzero = true
				break
			}
		}
		if !nonzero {
			continue
		}
		if _, err := fmt.Fprintf(w, "%04d:", i); err != nil {
			return err
		}
		for k, v := range m.cells[i:j] {
			if _, err := fmt.Fprintf(w, " %s", m.text(int64(i+k), v)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	addrs := make([]int64, 0, len(m.sparse))
	for addr := range m.sparse {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		if _, err := fmt.Fprintf(w, "%d: %s\n", addr, m.text(addr, m.sparse[addr])); err != nil {
			return err
		}
	}
	return nil
}
