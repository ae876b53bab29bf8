package calibrator

import (
	"testing"

	"ambicore.dev/core/color"
)

func TestIdentityCalibrationIsNoop(t *testing.T) {
	c := New(map[int]Calibration{0: Identity})
	for _, in := range []color.Color{
		{R: 0, G: 0, B: 0},
		{R: 255, G: 255, B: 255},
		{R: 10, G: 200, B: 50},
		{R: 255, G: 0, B: 0},
		{R: 0, G: 128, B: 255},
	} {
		out := c.Apply(in, 0, color.OrderRGB)
		if out != in {
			t.Fatalf("identity calibration changed %v to %v", in, out)
		}
	}
}

func TestUnknownCalibrationIDFallsBackToZero(t *testing.T) {
	c := New(nil)
	out := c.Apply(color.Color{R: 10, G: 20, B: 30}, 99, color.OrderRGB)
	want := color.Color{R: 10, G: 20, B: 30}
	if out != want {
		t.Fatalf("fallback to id 0 (identity) failed: got %v", out)
	}
}

func TestByteOrderPermutation(t *testing.T) {
	c := New(map[int]Calibration{0: Identity})
	in := color.Color{R: 1, G: 2, B: 3}
	out := c.Apply(in, 0, color.OrderBGR)
	want := color.Color{R: 3, G: 2, B: 1}
	if out != want {
		t.Fatalf("want %v got %v", want, out)
	}
}

func TestBacklightBoostsLowLuminance(t *testing.T) {
	cal := Identity
	cal.BacklightThreshold = 100
	cal.BacklightColored = false
	c := New(map[int]Calibration{0: cal})
	out := c.Apply(color.Color{R: 5, G: 5, B: 5}, 0, color.OrderRGB)
	if out.R < 90 || out.G < 90 || out.B < 90 {
		t.Fatalf("expected backlight boost toward threshold, got %v", out)
	}
}
