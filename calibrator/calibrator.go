// Package calibrator implements per-LED color adjustment: primary/
// secondary rotation and scaling, brightness, gamma, backlight, and the
// final hardware byte-order permutation (spec §4.3). It has no separate
// black-level or white-level adjustment.
//
// Grounded on devices/apa102.lut: a small table lazily recomputed only
// when its inputs change, and on apa102's convention of doing all
// intermediate math in double precision and rounding only at the very
// end (spec §9 Numerics).
package calibrator

import (
	"math"

	"ambicore.dev/core/color"
)

// Vector3 is a per-channel gain applied when the input color sits at (or
// near) one of the six primary/secondary hue targets R,Y,G,C,B,M (spec
// §4.3). {1,1,1} means "no adjustment" for that hue.
type Vector3 struct{ R, G, B float64 }

// Gamma is a per-channel gamma exponent.
type Gamma struct{ R, G, B float64 }

// Calibration holds one calibration id's full adjustment: the six
// primary/secondary gain vectors, the luminance transform, and this
// calibration's gamma (spec §4.3).
type Calibration struct {
	// Red, Yellow, Green, Cyan, Blue, Magenta gain vectors, in hue order
	// (0°, 60°, 120°, 180°, 240°, 300°).
	Red, Yellow, Green, Cyan, Blue, Magenta Vector3

	Brightness             float64 // overall multiplier, 1.0 = unity
	BrightnessCompensation float64
	Gamma                  Gamma
	BacklightThreshold     int  // luminance floor; 0 disables backlight
	BacklightColored       bool // keep hue vs clamp to white
}

var unityVec = Vector3{1, 1, 1}

// Identity is the calibration that leaves every color unchanged: gamma=1,
// unity gain at every hue target, no backlight. Used by the round-trip
// property test in spec §8 ("Applying calibration with all gamma=1 and
// identity primary vectors is the identity on every color").
var Identity = Calibration{
	Red: unityVec, Yellow: unityVec, Green: unityVec,
	Cyan: unityVec, Blue: unityVec, Magenta: unityVec,
	Brightness: 1,
	Gamma:      Gamma{1, 1, 1},
}

// Calibrator holds per-LED calibration ids and applies the five-step
// pipeline of spec §4.3 to each reduced LED color.
type Calibrator struct {
	byID map[int]Calibration
}

// New creates a Calibrator with the given id->Calibration map. Calibration
// id 0 must always resolve (falls back to Identity if absent), per
// SPEC_FULL §12's "LEDs without an explicit id fall back to id 0".
func New(byID map[int]Calibration) *Calibrator {
	c := &Calibrator{byID: map[int]Calibration{}}
	for k, v := range byID {
		c.byID[k] = v
	}
	if _, ok := c.byID[0]; !ok {
		c.byID[0] = Identity
	}
	return c
}

// Set installs or replaces the calibration for id.
func (c *Calibrator) Set(id int, cal Calibration) {
	c.byID[id] = cal
}

func (c *Calibrator) lookup(id int) Calibration {
	if cal, ok := c.byID[id]; ok {
		return cal
	}
	return c.byID[0]
}

// Apply runs the five-step pipeline of spec §4.3 on one LED's reduced
// color and returns the byte-order-permuted, hardware-ready color.
func (c *Calibrator) Apply(in color.Color, calibrationID int, order color.Order) color.Color {
	cal := c.lookup(calibrationID)
	r, g, b := decompose(in, cal)
	r, g, b = applyBacklight(r, g, b, cal)
	r = math.Pow(clamp01(r), 1.0/nonZero(cal.Gamma.R))
	g = math.Pow(clamp01(g), 1.0/nonZero(cal.Gamma.G))
	b = math.Pow(clamp01(b), 1.0/nonZero(cal.Gamma.B))
	out := color.Color{R: to8(r), G: to8(g), B: to8(b)}
	return order.Permute(out)
}

// decompose implements steps 1-2 of spec §4.3. It maps c to (hue,
// saturation, value), finds which of the six 60-degree sectors the hue
// falls in, and linearly interpolates between that sector's two adjacent
// gain vectors. The blended gain is applied per-channel, de-weighted by
// saturation so achromatic (gray/white/black) input is never touched by
// hue-specific adjustment — only brightness affects it.
func decompose(c color.Color, cal Calibration) (r, g, b float64) {
	rf, gf, bf := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	h, s, v := rgbToHSV(rf, gf, bf)

	vecs := [6]Vector3{cal.Red, cal.Yellow, cal.Green, cal.Cyan, cal.Blue, cal.Magenta}
	sector := h / 60.0
	i0 := int(math.Floor(sector)) % 6
	i1 := (i0 + 1) % 6
	t := sector - math.Floor(sector)
	gain := lerpVec(vecs[i0], vecs[i1], t)
	// de-weight toward unity as saturation drops.
	gain = lerpVec(unityVec, gain, s)

	brightness := cal.Brightness
	if brightness == 0 {
		brightness = 1
	}
	rf *= gain.R * brightness
	gf *= gain.G * brightness
	bf *= gain.B * brightness
	_ = v
	return rf, gf, bf
}

func lerpVec(a, b Vector3, t float64) Vector3 {
	return Vector3{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// rgbToHSV returns hue in [0,360), saturation and value in [0,1].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max == 0 {
		return 0, 0, v
	}
	s = d / max
	if d == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// applyBacklight implements step 3: if the mean of this LED's three
// channels is below threshold, boost to threshold, either keeping hue
// (colored) or clamping to white (uncolored) (spec §4.3). Each LED is
// judged on its own; the frame's overall level is not considered.
func applyBacklight(r, g, b float64, cal Calibration) (float64, float64, float64) {
	if cal.BacklightThreshold <= 0 {
		return r, g, b
	}
	threshold := float64(cal.BacklightThreshold) / 255
	lum := (r + g + b) / 3
	if lum >= threshold {
		return r, g, b
	}
	if !cal.BacklightColored {
		return threshold, threshold, threshold
	}
	if lum <= 0 {
		return threshold, threshold, threshold
	}
	scale := threshold / lum
	return r * scale, g * scale, b * scale
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonZero(g float64) float64 {
	if g == 0 {
		return 1
	}
	return g
}

func to8(v float64) byte {
	v = clamp01(v) * 255
	return byte(math.Round(v))
}
