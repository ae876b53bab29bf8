package driver

import (
	"errors"
	"testing"
	"time"

	"ambicore.dev/core/color"
)

func TestPadBlackPadsShortVectors(t *testing.T) {
	out := PadBlack([]color.Color{{R: 1}}, 3)
	if len(out) != 3 {
		t.Fatalf("want length 3 got %d", len(out))
	}
	if out[0] != (color.Color{R: 1}) || out[1] != color.Black || out[2] != color.Black {
		t.Fatalf("unexpected padded vector: %v", out)
	}
}

func TestPadBlackLeavesLongVectorsAlone(t *testing.T) {
	in := []color.Color{{R: 1}, {R: 2}, {R: 3}}
	out := PadBlack(in, 2)
	if len(out) != 3 {
		t.Fatalf("expected PadBlack not to truncate, got length %d", len(out))
	}
}

func TestAllBlack(t *testing.T) {
	out := AllBlack(4)
	if len(out) != 4 {
		t.Fatalf("want length 4 got %d", len(out))
	}
	for _, c := range out {
		if c != color.Black {
			t.Fatalf("expected every entry black, got %v", c)
		}
	}
}

func TestWrapUnavailableWrapsSentinel(t *testing.T) {
	err := WrapUnavailable("open", errors.New("boom"))
	if !errors.Is(err, ErrDriverUnavailable) {
		t.Fatalf("expected wrapped error to match ErrDriverUnavailable")
	}
}

func TestRetryDueAndExhaustion(t *testing.T) {
	r := &Retry{Interval: 10 * time.Millisecond, Max: 2}
	now := time.Unix(0, 0)
	if !r.Due(now) {
		t.Fatalf("expected first attempt to be due immediately")
	}
	r.Attempt(now)
	if r.Due(now) {
		t.Fatalf("expected second attempt to not be due before the interval elapses")
	}
	later := now.Add(20 * time.Millisecond)
	if !r.Due(later) {
		t.Fatalf("expected attempt to be due after the interval elapses")
	}
	r.Attempt(later)
	if !r.Exhausted() {
		t.Fatalf("expected retry budget to be exhausted after Max attempts")
	}
	if r.Due(later.Add(time.Hour)) {
		t.Fatalf("expected exhausted retry to never be due again")
	}
	r.Reset()
	if r.Exhausted() {
		t.Fatalf("expected Reset to clear exhaustion")
	}
}

func TestStateString(t *testing.T) {
	if StateOn.String() != "on" {
		t.Fatalf("want \"on\" got %q", StateOn.String())
	}
	if State(99).String() != "unknown" {
		t.Fatalf("want \"unknown\" got %q", State(99).String())
	}
}
