package color

import "testing"

// TestOrderPermuteInvolutions is spec §8 invariant 6: RGB and BGR are
// each their own inverse, as are RBG and GRB, while GBR and BRG invert
// each other.
func TestOrderPermuteInvolutions(t *testing.T) {
	in := Color{R: 1, G: 2, B: 3}
	for _, o := range []Order{OrderRGB, OrderBGR, OrderRBG, OrderGRB} {
		out := o.Permute(o.Permute(in))
		if out != in {
			t.Fatalf("%v is not its own inverse: got %v back from %v", o, out, in)
		}
	}
	out := OrderGBR.Permute(OrderBRG.Permute(in))
	if out != in {
		t.Fatalf("GBR/BRG do not invert: got %v", out)
	}
}

func TestParseOrderRoundTrip(t *testing.T) {
	for _, name := range []string{"rgb", "bgr", "rbg", "grb", "gbr", "brg"} {
		o, ok := ParseOrder(name)
		if !ok {
			t.Fatalf("ParseOrder(%q) failed", name)
		}
		if o.String() != name {
			t.Fatalf("round trip mismatch: %q -> %v -> %q", name, o, o.String())
		}
	}
	if _, ok := ParseOrder("nope"); ok {
		t.Fatalf("expected unknown order name to fail")
	}
}

func TestLuminanceIsMeanOfMinMax(t *testing.T) {
	c := Color{R: 10, G: 200, B: 50}
	if got := c.Luminance(); got != (10+200)/2 {
		t.Fatalf("want %d got %d", (10+200)/2, got)
	}
}

func TestWhiteRuleDefaultExtractsNoWhite(t *testing.T) {
	c := Color{R: 10, G: 20, B: 30}
	out := DefaultWhiteRule.Apply(c)
	if out != (RGBW{10, 20, 30, 0}) {
		t.Fatalf("expected no white extraction, got %v", out)
	}
}

func TestWhiteRuleExtractsSharedMinimum(t *testing.T) {
	rule := WhiteRule{Limit: 255, CorrectionR: 1, CorrectionG: 1, CorrectionB: 1}
	out := rule.Apply(Color{R: 100, G: 50, B: 30})
	if out.W != 30 {
		t.Fatalf("want W=30 got %d", out.W)
	}
	if out.R != 70 || out.G != 20 || out.B != 0 {
		t.Fatalf("want R=70,G=20,B=0 got %+v", out)
	}
}

func TestImageAtSetRoundTrip(t *testing.T) {
	img := NewImage(2, 2, PixelRGB24)
	img.Set(1, 0, Color{R: 1, G: 2, B: 3})
	if got := img.At(1, 0); got != (Color{R: 1, G: 2, B: 3}) {
		t.Fatalf("want {1,2,3} got %v", got)
	}
	if got := img.At(0, 0); got != Black {
		t.Fatalf("untouched pixel should be black, got %v", got)
	}
}

func TestImageBGR24Conversion(t *testing.T) {
	img := NewImage(1, 1, PixelBGR24)
	img.Set(0, 0, Color{R: 1, G: 2, B: 3})
	if img.Pix[0] != 3 || img.Pix[1] != 2 || img.Pix[2] != 1 {
		t.Fatalf("BGR24 storage order wrong: %v", img.Pix)
	}
	if got := img.At(0, 0); got != (Color{R: 1, G: 2, B: 3}) {
		t.Fatalf("BGR24 round trip wrong: got %v", got)
	}
}

func TestLEDValid(t *testing.T) {
	if !(LED{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}).Valid() {
		t.Fatalf("expected non-degenerate rectangle to be valid")
	}
	if (LED{MinX: 0.5, MaxX: 0.5, MinY: 0, MaxY: 1}).Valid() {
		t.Fatalf("expected degenerate x-range to be invalid")
	}
}

func TestPixelMapEncodeDecode(t *testing.T) {
	idx, opposite := Decode(Encode(42))
	if idx != 42 || opposite {
		t.Fatalf("plain encode round trip failed: idx=%d opposite=%v", idx, opposite)
	}
	idx, opposite = Decode(EncodeOpposite(42))
	if idx != 42 || !opposite {
		t.Fatalf("opposite encode round trip failed: idx=%d opposite=%v", idx, opposite)
	}
}
