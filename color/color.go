// Package color defines the pixel and LED-color primitives shared by every
// stage of the pipeline: Arbitrator, Reducer, Calibrator, Smoother and
// Driver all operate on the types declared here.
package color

// Color is a single LED color: three 8-bit channels.
type Color struct {
	R, G, B byte
}

// Black is the zero value, provided for readability at call sites.
var Black = Color{}

// Add returns the per-channel saturating sum of c and o.
func (c Color) Add(o Color) Color {
	return Color{addSat(c.R, o.R), addSat(c.G, o.G), addSat(c.B, o.B)}
}

func addSat(a, b byte) byte {
	s := int(a) + int(b)
	if s > 255 {
		return 255
	}
	return byte(s)
}

// Luminance returns the mean of the minimum and maximum channel, the
// "level" used by the anti-flicker deadband (spec §4.4).
func (c Color) Luminance() int {
	lo, hi := int(c.R), int(c.R)
	for _, v := range [2]byte{c.G, c.B} {
		iv := int(v)
		if iv < lo {
			lo = iv
		}
		if iv > hi {
			hi = iv
		}
	}
	return (lo + hi) / 2
}

// IsBlack reports whether every channel is zero.
func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// RGBW is a four-channel color used by chips with a dedicated white diode
// (the sk6812 backend's RGBW mode).
type RGBW struct {
	R, G, B, W byte
}

// WhiteRule derives a white channel from an RGB triplet. Limit caps the
// white contribution; CorrectionR/G/B scale how much of each channel's
// shared minimum is subtracted back out of R/G/B once W is extracted —
// this mirrors how RGBW LED strips with a separate white diode need the
// color channels reduced proportionally to avoid double-brightening.
type WhiteRule struct {
	Limit                      byte
	CorrectionR, CorrectionG, CorrectionB float64
}

// DefaultWhiteRule extracts no white; W is always 0. Safe zero value for
// RGB-only strips wired through RGBW-capable drivers.
var DefaultWhiteRule = WhiteRule{Limit: 0}

// Apply derives the white channel for c under the rule.
func (w WhiteRule) Apply(c Color) RGBW {
	if w.Limit == 0 {
		return RGBW{c.R, c.G, c.B, 0}
	}
	m := c.R
	if c.G < m {
		m = c.G
	}
	if c.B < m {
		m = c.B
	}
	if m > w.Limit {
		m = w.Limit
	}
	r := subClamp(c.R, float64(m)*w.CorrectionR)
	g := subClamp(c.G, float64(m)*w.CorrectionG)
	b := subClamp(c.B, float64(m)*w.CorrectionB)
	return RGBW{r, g, b, m}
}

func subClamp(c byte, amount float64) byte {
	v := float64(c) - amount
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
