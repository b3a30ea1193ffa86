package intcode

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseProgram(t *testing.T) {
	tests := []struct {
		text string
		want []int64
	}{
		{"1,0,0,0,99", []int64{1, 0, 0, 0, 99}},
		{"1,0,0,0,99\n", []int64{1, 0, 0, 0, 99}},
		{" -1, 2 ,3\r\n", []int64{-1, 2, 3}},
		{"99", []int64{99}},
		{"9223372036854775807,-9223372036854775808", []int64{9223372036854775807, -9223372036854775808}},
	}

	for _, tt := range tests {
		got, err := ParseProgram(tt.text)
		if err != nil {
			t.Errorf("ParseProgram(%q) failed: %v", tt.text, err)
			continue
		}
		if !reflect.DeepEqual(got.Words, tt.want) || got.Wide != nil {
			t.Errorf("ParseProgram(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseWideProgram(t *testing.T) {
	p, err := ParseProgram("99,9223372036854775808,-99999999999999999999,7")
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	if !reflect.DeepEqual(p.Words, []int64{99, 0, 0, 7}) {
		t.Errorf("Words = %v", p.Words)
	}
	if len(p.Wide) != 2 || p.Wide[1].String() != "9223372036854775808" || p.Wide[2].String() != "-99999999999999999999" {
		t.Errorf("Wide = %v", p.Wide)
	}
	if got := p.String(); got != "99,9223372036854775808,-99999999999999999999,7" {
		t.Errorf("String = %q", got)
	}

	var re *RangeError
	if _, err := p.Int64s(); !errors.As(err, &re) || re.Address != 1 {
		t.Errorf("Int64s = %v, want *RangeError at 1", err)
	}

	m, err := NewProgram(p)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := m.LoadBig(2); err != nil || v.String() != "-99999999999999999999" {
		t.Errorf("LoadBig(2) = %v, %v", v, err)
	}
	if sig, err := m.Run(); err != nil || sig.Kind != SignalHalted {
		t.Errorf("Run = %v, %v", sig, err)
	}
}

func TestParseProgramErrors(t *testing.T) {
	tests := []struct {
		text  string
		index int
		token string
	}{
		{"1,x,3", 1, "x"},
		{"1,,2", 1, ""},
		{"1,2,", 2, ""},
		{"1.5", 0, "1.5"},
		{"1e9", 0, "1e9"},
		{"99,-", 1, "-"},
	}

	for _, tt := range tests {
		_, err := ParseProgram(tt.text)
		if !errors.Is(err, ErrInvalidProgram) {
			t.Errorf("ParseProgram(%q) = %v, want ErrInvalidProgram", tt.text, err)
		}
		var pe *ProgramError
		if !errors.As(err, &pe) {
			t.Errorf("ParseProgram(%q): %v is not a *ProgramError", tt.text, err)
			continue
		}
		if pe.Index != tt.index || pe.Token != tt.token {
			t.Errorf("ParseProgram(%q): index %d token %q, want %d %q", tt.text, pe.Index, pe.Token, tt.index, tt.token)
		}
	}

	for _, text := range []string{"", "  \n"} {
		if _, err := ParseProgram(text); !errors.Is(err, ErrInvalidProgram) {
			t.Errorf("ParseProgram(%q) = %v, want ErrInvalidProgram", text, err)
		}
	}
}

func TestReadProgram(t *testing.T) {
	got, err := ReadProgram(strings.NewReader("3,0,4,0,99\n"))
	if err != nil {
		t.Fatalf("ReadProgram failed: %v", err)
	}
	if !reflect.DeepEqual(got.Words, []int64{3, 0, 4, 0, 99}) {
		t.Errorf("ReadProgram = %v", got)
	}
}

func TestFormatProgram(t *testing.T) {
	if got := FormatProgram([]int64{30, -1, 0, 99}); got != "30,-1,0,99" {
		t.Errorf("FormatProgram = %q", got)
	}
	if got := FormatProgram(nil); got != "" {
		t.Errorf("FormatProgram(nil) = %q", got)
	}
}
