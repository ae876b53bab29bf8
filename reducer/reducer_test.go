package reducer

import (
	"testing"

	"ambicore.dev/core/color"
)

// TestMeanPolicyWholeImage is spec §8 scenario S3.
func TestMeanPolicyWholeImage(t *testing.T) {
	img := color.NewImage(2, 2, color.PixelRGB24)
	img.Set(0, 0, color.Color{})
	img.Set(1, 0, color.Color{R: 255})
	img.Set(0, 1, color.Color{G: 255})
	img.Set(1, 1, color.Color{B: 255})

	layout := color.Layout{{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}}
	r := New(layout, PolicyMean, false)
	out := r.Reduce(img)
	want := color.Color{R: 63, G: 63, B: 63}
	if out[0] != want {
		t.Fatalf("want %v got %v", want, out[0])
	}
}

func TestOutputLengthMatchesLayout(t *testing.T) {
	img := color.NewImage(10, 10, color.PixelRGB24)
	layout := make(color.Layout, 7)
	for i := range layout {
		f := float64(i) / 7
		layout[i] = color.LED{MinX: f, MaxX: f + 1.0/7, MinY: 0, MaxY: 1}
	}
	r := New(layout, PolicyMean, false)
	out := r.Reduce(img)
	if len(out) != len(layout) {
		t.Fatalf("want %d got %d", len(layout), len(out))
	}
}

func TestDeterministic(t *testing.T) {
	img := color.NewImage(4, 4, color.PixelRGB24)
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7 % 256)
	}
	layout := color.Layout{{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}}
	r := New(layout, PolicyAdvanced, false)
	a := r.Reduce(img)
	b := r.Reduce(img)
	if a[0] != b[0] {
		t.Fatalf("reducer output not deterministic: %v vs %v", a, b)
	}
}

func TestGroupAveraging(t *testing.T) {
	img := color.NewImage(4, 1, color.PixelRGB24)
	img.Set(0, 0, color.Color{R: 100})
	img.Set(1, 0, color.Color{R: 200})
	img.Set(2, 0, color.Color{R: 50})
	img.Set(3, 0, color.Color{R: 50})
	layout := color.Layout{
		{MinX: 0, MaxX: 0.25, MinY: 0, MaxY: 1, Group: 1},
		{MinX: 0.25, MaxX: 0.5, MinY: 0, MaxY: 1, Group: 1},
		{MinX: 0.5, MaxX: 0.75, MinY: 0, MaxY: 1},
		{MinX: 0.75, MaxX: 1, MinY: 0, MaxY: 1},
	}
	r := New(layout, PolicyMean, false)
	out := r.Reduce(img)
	if out[0] != out[1] {
		t.Fatalf("grouped LEDs should share a color: %v vs %v", out[0], out[1])
	}
	if out[0].R != 150 {
		t.Fatalf("want group mean 150, got %d", out[0].R)
	}
}

func TestDisabledMaskAppliesAfterGrouping(t *testing.T) {
	img := color.NewImage(2, 1, color.PixelRGB24)
	img.Set(0, 0, color.Color{R: 100})
	img.Set(1, 0, color.Color{R: 200})
	layout := color.Layout{
		{MinX: 0, MaxX: 0.5, MinY: 0, MaxY: 1, Group: 1, Disabled: true},
		{MinX: 0.5, MaxX: 1, MinY: 0, MaxY: 1, Group: 1},
	}
	r := New(layout, PolicyMean, false)
	out := r.Reduce(img)
	if out[0] != color.Black {
		t.Fatalf("disabled LED should be black even if grouped, got %v", out[0])
	}
	if out[1] == color.Black {
		t.Fatalf("non-disabled group member should retain the group mean")
	}
}

func TestRebuildOnSizeChange(t *testing.T) {
	layout := color.Layout{{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}}
	r := New(layout, PolicyMean, false)
	small := color.NewImage(2, 2, color.PixelRGB24)
	r.Reduce(small)
	big := color.NewImage(8, 8, color.PixelRGB24)
	out := r.Reduce(big)
	if len(out) != 1 {
		t.Fatalf("want 1 LED output after resize, got %d", len(out))
	}
}
