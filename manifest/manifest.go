// Package manifest handles intcode.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/chazu/intcode/pkg/intcode"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "intcode.toml"

// Manifest represents an intcode.toml configuration.
type Manifest struct {
	Program  Program        `toml:"program"`
	Run      RunConfig      `toml:"run"`
	Log      LogConfig      `toml:"log"`
	Snapshot SnapshotConfig `toml:"snapshot"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program locates the program text and the words to overwrite after loading.
type Program struct {
	Path  string           `toml:"path"`
	Patch map[string]int64 `toml:"patch"`
}

// RunConfig selects how the program is driven.
type RunConfig struct {
	Mode    string  `toml:"mode"`
	Inputs  []int64 `toml:"inputs"`
	Phases  []int64 `toml:"phases"`
	Workers int     `toml:"workers"`
	Trace   bool    `toml:"trace"`
	ASCII   bool    `toml:"ascii"`
}

// LogConfig configures the commonlog backend.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// SnapshotConfig locates the snapshot database.
type SnapshotConfig struct {
	DB string `toml:"db"`
}

// Load parses and validates the intcode.toml file in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text, checks it against the schema and fills in
// defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Defaults
	if m.Run.Mode == "" {
		m.Run.Mode = "run"
	}
	if m.Run.Workers == 0 {
		m.Run.Workers = 1
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ProgramPath returns the absolute path of the program file, or "" if none
// is configured.
func (m *Manifest) ProgramPath() string {
	if m.Program.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Program.Path) {
		return m.Program.Path
	}
	return filepath.Join(m.Dir, m.Program.Path)
}

// SnapshotPath returns the snapshot database path, defaulting to
// .intcode/snapshots.db next to the manifest.
func (m *Manifest) SnapshotPath() string {
	db := m.Snapshot.DB
	if db == "" {
		db = filepath.Join(".intcode", "snapshots.db")
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(m.Dir, db)
}

// LoadProgram reads and parses the program file, then applies the patches.
func (m *Manifest) LoadProgram() (intcode.Program, error) {
	path := m.ProgramPath()
	if path == "" {
		return intcode.Program{}, fmt.Errorf("%s: no program path configured", FileName)
	}
	f, err := os.Open(path)
	if err != nil {
		return intcode.Program{}, fmt.Errorf("cannot read program: %w", err)
	}
	defer f.Close()

	program, err := intcode.ReadProgram(f)
	if err != nil {
		return intcode.Program{}, fmt.Errorf("%s: %w", path, err)
	}
	return ApplyPatches(program, m.Program.Patch)
}

// ApplyPatches overwrites program words. Keys are decimal addresses; writes
// beyond the end extend the program with zeros.
func ApplyPatches(program intcode.Program, patch map[string]int64) (intcode.Program, error) {
	if len(patch) == 0 {
		return program, nil
	}
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mem := program.Memory()
	for _, k := range keys {
		addr, err := strconv.ParseInt(k, 10, 64)
		if err != nil || addr < 0 {
			return intcode.Program{}, fmt.Errorf("invalid patch address %q", k)
		}
		if err := mem.Store(addr, patch[k]); err != nil {
			return intcode.Program{}, fmt.Errorf("patch %s: %w", k, err)
		}
	}
	if len(mem.Sparse()) > 0 {
		return intcode.Program{}, fmt.Errorf("patch address too far beyond the program")
	}
	return mem.Program(), nil
}
