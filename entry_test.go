package recorder

import "testing"

func TestNewRecorderDefaultsTraceOff(t *testing.T) {
	rec := NewRecorder("entry_test.basic", "basic recorder", 16)
	if got := rec.Trace(); got != 0 {
		t.Fatalf("Trace() = %d, want 0", got)
	}
}

func TestRecorderSetTrace(t *testing.T) {
	rec := NewRecorder("entry_test.settrace", "", 16)
	rec.SetTrace(3)
	if got := rec.Trace(); got != 3 {
		t.Fatalf("Trace() = %d, want 3", got)
	}
}

func TestRecorderExportedSlotBounds(t *testing.T) {
	rec := NewRecorder("entry_test.exported", "", 16)
	if rec.Exported(-1) != nil || rec.Exported(NumArgs) != nil {
		t.Fatalf("out-of-range Exported() should return nil")
	}
	rec.setExported(-1, nil) // must not panic
	rec.setExported(NumArgs, nil)
}

func TestTweakValueRoundTrip(t *testing.T) {
	tw := NewTweak("entry_test.tweak", "", 7)
	if got := tw.Value(); got != 7 {
		t.Fatalf("Value() = %d, want 7", got)
	}
	tw.SetValue(42)
	if got := tw.Value(); got != 42 {
		t.Fatalf("Value() = %d, want 42", got)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	g := &registry{}
	rec1 := NewRecorder("dup", "", 4)
	rec2 := NewRecorder("dup", "", 4)

	if err := g.Register(rec1); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := g.Register(rec2); err != ErrDuplicateRecorder {
		t.Fatalf("second Register err = %v, want ErrDuplicateRecorder", err)
	}
}

func TestRegistryTweakDuplicateNames(t *testing.T) {
	g := &registry{}
	tw1 := NewTweak("dup", "", 0)
	tw2 := NewTweak("dup", "", 1)

	if err := g.RegisterTweak(tw1); err != nil {
		t.Fatalf("first RegisterTweak: %v", err)
	}
	if err := g.RegisterTweak(tw2); err != ErrDuplicateTweak {
		t.Fatalf("second RegisterTweak err = %v, want ErrDuplicateTweak", err)
	}
}

func TestRegistryRecordersSnapshot(t *testing.T) {
	g := &registry{}
	names := []string{"a", "b", "c"}
	for _, n := range names {
		if err := g.Register(NewRecorder(n, "", 4)); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}

	got := g.Recorders()
	if len(got) != len(names) {
		t.Fatalf("Recorders() returned %d entries, want %d", len(got), len(names))
	}
	seen := make(map[string]bool)
	for _, r := range got {
		seen[r.Name] = true
	}
	for _, n := range names {
		if !seen[n] {
			t.Fatalf("Recorders() missing %q", n)
		}
	}
}

func TestRegistryFindRecordersMatchesFullName(t *testing.T) {
	g := &registry{}
	for _, n := range []string{"net.tcp", "net.udp", "disk.io"} {
		if err := g.Register(NewRecorder(n, "", 4)); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}

	re, err := compilePattern("net\\..*")
	if err != nil {
		t.Fatalf("compilePattern: %v", err)
	}
	found := g.findRecorders(re)
	if len(found) != 2 {
		t.Fatalf("findRecorders matched %d recorders, want 2", len(found))
	}
}

func TestRegistryNextOrderIsMonotonic(t *testing.T) {
	g := &registry{}
	var last uint64
	for i := 0; i < 100; i++ {
		order := g.nextOrder()
		if order <= last {
			t.Fatalf("nextOrder() = %d, not greater than previous %d", order, last)
		}
		last = order
	}
}
