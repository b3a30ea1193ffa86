package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/intcode/pkg/intcode"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[program]
path = "day2.txt"

[program.patch]
1 = 12
2 = 2

[run]
mode = "best-feedback"
inputs = [1, -5]
phases = [5, 6, 7, 8, 9]
workers = 4
trace = true
ascii = true

[log]
verbosity = 2
file = "run.log"

[snapshot]
db = "state/snap.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Program.Path != "day2.txt" {
		t.Errorf("program path = %q, want day2.txt", m.Program.Path)
	}
	if !reflect.DeepEqual(m.Program.Patch, map[string]int64{"1": 12, "2": 2}) {
		t.Errorf("patch = %v", m.Program.Patch)
	}
	if m.Run.Mode != "best-feedback" || m.Run.Workers != 4 || !m.Run.Trace || !m.Run.ASCII {
		t.Errorf("run = %+v", m.Run)
	}
	if !reflect.DeepEqual(m.Run.Inputs, []int64{1, -5}) {
		t.Errorf("inputs = %v", m.Run.Inputs)
	}
	if !reflect.DeepEqual(m.Run.Phases, []int64{5, 6, 7, 8, 9}) {
		t.Errorf("phases = %v", m.Run.Phases)
	}
	if m.Log.Verbosity != 2 || m.Log.File != "run.log" {
		t.Errorf("log = %+v", m.Log)
	}

	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
	if got := m.ProgramPath(); got != filepath.Join(abs, "day2.txt") {
		t.Errorf("ProgramPath = %q", got)
	}
	if got := m.SnapshotPath(); got != filepath.Join(abs, "state", "snap.db") {
		t.Errorf("SnapshotPath = %q", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[program]
path = "prog.txt"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Run.Mode != "run" {
		t.Errorf("default mode = %q, want run", m.Run.Mode)
	}
	if m.Run.Workers != 1 {
		t.Errorf("default workers = %d, want 1", m.Run.Workers)
	}
	if got := m.SnapshotPath(); got != filepath.Join(m.Dir, ".intcode", "snapshots.db") {
		t.Errorf("default SnapshotPath = %q", got)
	}
}

func TestSchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"unknown section", "[image]\noutput = \"x\"\n", "image"},
		{"unknown key", "[run]\nspeed = 3\n", "speed"},
		{"bad mode", "[run]\nmode = \"ring\"\n", "mode"},
		{"zero workers", "[run]\nworkers = 0\n", "workers"},
		{"string input", "[run]\ninputs = [\"a\"]\n", "inputs"},
		{"bad patch key", "[program.patch]\nx = 1\n", "x"},
		{"empty path", "[program]\npath = \"\"\n", "path"},
	}

	for _, tt := range tests {
		_, err := Parse([]byte(tt.toml))
		if err == nil {
			t.Errorf("%s: Parse succeeded", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}

	if _, err := Parse([]byte("[run\n")); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("malformed TOML: err = %v", err)
	}
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prog.txt"), "1,0,0,3,99\n")
	writeFile(t, filepath.Join(dir, FileName), `
[program]
path = "prog.txt"

[program.patch]
1 = 5
6 = 7
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	program, err := m.LoadProgram()
	if err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	if !reflect.DeepEqual(program.Words, []int64{1, 5, 0, 3, 99, 0, 7}) {
		t.Errorf("program = %v", program)
	}

	m.Program.Path = "missing.txt"
	if _, err := m.LoadProgram(); err == nil {
		t.Error("LoadProgram of a missing file succeeded")
	}
	m.Program.Path = ""
	if _, err := m.LoadProgram(); err == nil {
		t.Error("LoadProgram without a path succeeded")
	}
}

func TestApplyPatches(t *testing.T) {
	got, err := ApplyPatches(intcode.Program{Words: []int64{1, 2, 3}}, map[string]int64{"0": 9})
	if err != nil || !reflect.DeepEqual(got.Words, []int64{9, 2, 3}) {
		t.Errorf("ApplyPatches = %v, %v", got, err)
	}

	wide, err := intcode.ParseProgram("1,18446744073709551616,99999999999999999999")
	if err != nil {
		t.Fatal(err)
	}
	got, err = ApplyPatches(wide, map[string]int64{"1": 12})
	if err != nil || got.String() != "1,12,99999999999999999999" {
		t.Errorf("ApplyPatches over a wide value = %v, %v", got, err)
	}

	one := intcode.Program{Words: []int64{1}}
	if _, err := ApplyPatches(one, map[string]int64{"-1": 0}); err == nil {
		t.Error("negative address accepted")
	}
	if _, err := ApplyPatches(one, map[string]int64{"99999999999": 0}); err == nil {
		t.Error("address far beyond the program accepted")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, FileName), "[run]\nmode = \"chain\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Run.Mode != "chain" {
		t.Errorf("mode = %q, want chain", m.Run.Mode)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no intcode.toml exists")
	}
}
