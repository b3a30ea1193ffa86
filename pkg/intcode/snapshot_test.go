package intcode

import (
	"bytes"
	"reflect"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	// Echoes every input, forever.
	m := mustNew(t, "3,100,4,100,1105,1,0", WithName("echo"))
	m.ProvideInput(5)
	if sig, err := m.Run(); err != nil || sig.Value != 5 {
		t.Fatalf("Run = %v, %v", sig, err)
	}
	if sig, _ := m.Run(); sig.Kind != SignalNeedsInput {
		t.Fatalf("got %v, want needs-input", sig)
	}
	m.ProvideInput(8, 9)
	if err := m.Store(sparseGap*10, 77); err != nil {
		t.Fatal(err)
	}
	huge := mustBig(t, "-170141183460469231731687303715884105728")
	for _, addr := range []int64{50, sparseGap * 20} {
		if err := m.mem.StoreBig(addr, huge); err != nil {
			t.Fatal(err)
		}
	}

	data, err := MarshalSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("MarshalSnapshot failed: %v", err)
	}
	again, err := MarshalSnapshot(m.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("snapshot encoding is not deterministic")
	}

	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot failed: %v", err)
	}
	r, err := Restore(snap)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if r.Name() != "echo" || r.IP() != m.IP() || r.Steps() != m.Steps() || r.State() != m.State() {
		t.Errorf("restored name=%q ip=%d steps=%d state=%v; original ip=%d steps=%d state=%v",
			r.Name(), r.IP(), r.Steps(), r.State(), m.IP(), m.Steps(), m.State())
	}
	if !reflect.DeepEqual(r.Memory(), m.Memory()) {
		t.Error("restored memory differs")
	}
	if v, _ := r.Load(sparseGap * 10); v != 77 {
		t.Errorf("restored sparse cell = %d, want 77", v)
	}
	for _, addr := range []int64{50, sparseGap * 20} {
		if v, err := r.LoadBig(addr); err != nil || v.Cmp(huge) != 0 {
			t.Errorf("restored wide cell %d = %v, %v", addr, v, err)
		}
	}

	for _, want := range []int64{8, 9} {
		a, errA := m.Run()
		b, errB := r.Run()
		if errA != nil || errB != nil {
			t.Fatalf("Run failed: %v / %v", errA, errB)
		}
		if a != b || a.Value != want {
			t.Errorf("original %v, restored %v, want output(%d)", a, b, want)
		}
	}
}

func TestRestoreOptions(t *testing.T) {
	m := mustNew(t, "99", WithName("a"))
	r, err := Restore(m.Snapshot(), WithName("b"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "b" {
		t.Errorf("Name = %q, want b", r.Name())
	}

	s := m.Snapshot()
	s.Name = ""
	r, err = Restore(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() == "" {
		t.Error("restored machine has no name")
	}
}

func TestRestoreRejects(t *testing.T) {
	faulted := mustNew(t, "42")
	if _, err := faulted.Run(); err == nil {
		t.Fatal("expected fault")
	}

	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"empty memory", &Snapshot{Name: "x"}},
		{"faulted", faulted.Snapshot()},
		{"unknown state", &Snapshot{Name: "x", Memory: []int64{99}, State: State(9)}},
		{"bad wide cell", &Snapshot{Name: "x", Memory: []int64{99}, Wide: map[int64]string{0: "1e40"}}},
	}

	for _, tt := range tests {
		if _, err := Restore(tt.snap); err == nil {
			t.Errorf("%s: Restore succeeded", tt.name)
		}
	}

	if _, err := UnmarshalSnapshot([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalSnapshot accepted garbage")
	}
}
