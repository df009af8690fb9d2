package recorder

import (
	"os"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	code := m.Run()
	stopClock()
	os.Exit(code)
}

func TestTickIsMonotonicNondecreasing(t *testing.T) {
	a := tick()
	time.Sleep(time.Millisecond)
	b := tick()
	if b < a {
		t.Fatalf("tick() went backwards: %d then %d", a, b)
	}
}

func TestTickMatchesTicksPerSecondResolution(t *testing.T) {
	if TicksPerSecond != uint64(time.Second) {
		t.Fatalf("TicksPerSecond = %d, want %d", TicksPerSecond, uint64(time.Second))
	}
}
