package task_test

import (
	"testing"
	"time"

	"github.com/shimomut/tfm-sub010/internal/task"
)

func TestAnimatorAdvancesAfterInterval(t *testing.T) {
	a := task.NewAnimator("spinner", time.Millisecond)
	first := a.Frame()
	time.Sleep(5 * time.Millisecond)
	second := a.Frame()
	if first == second {
		// Not a hard guarantee for a single-frame pattern, but spinner has
		// ten distinct frames so a stall would be a real bug.
		t.Fatalf("Frame() did not advance after interval elapsed: %q twice", first)
	}
}

func TestAnimatorUnknownPatternFallsBackToSpinner(t *testing.T) {
	a := task.NewAnimator("no-such-pattern", time.Second)
	if len(a.AvailablePatterns()) == 0 {
		t.Fatal("expected at least one pattern")
	}
	// Should not panic indexing into an empty/missing pattern.
	_ = a.Frame()
}

func TestAnimatorResetAfterSetPattern(t *testing.T) {
	a := task.NewAnimator("spinner", time.Nanosecond)
	for i := 0; i < 5; i++ {
		a.Frame()
	}
	a.SetPattern("dots")
	// Reset should not panic even though dots has fewer frames than the
	// spinner index we may have reached.
	_ = a.Frame()
}
