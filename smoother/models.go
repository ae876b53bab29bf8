package smoother

import (
	"math"

	"ambicore.dev/core/color"
)

// vec3 is a float working copy of a color used internally by the motion
// models; conversion to/from color.Color happens at the package boundary.
type vec3 struct{ r, g, b float64 }

func fromColor(c color.Color) vec3 {
	return vec3{float64(c.R), float64(c.G), float64(c.B)}
}

func (v vec3) toColor() color.Color {
	return color.Color{R: clampByte(v.r), G: clampByte(v.g), B: clampByte(v.b)}
}

func clampByte(v float64) byte {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func sub(a, b vec3) vec3  { return vec3{a.r - b.r, a.g - b.g, a.b - b.b} }
func add(a, b vec3) vec3  { return vec3{a.r + b.r, a.g + b.g, a.b + b.b} }
func scale(a vec3, k float64) vec3 {
	return vec3{a.r * k, a.g * k, a.b * k}
}

// rgbToYUV / yuvToRGB use BT.709 coefficients, only needed by the
// YUV-space spring models to give perceptually smoother motion on hue
// changes than a raw per-channel RGB spring (spec §4.4 "Hybrid operates
// in luma-chroma space").
func rgbToYUV(v vec3) vec3 {
	r, g, b := v.r, v.g, v.b
	y := 0.2126*r + 0.7152*g + 0.0722*b
	u := -0.09991*r - 0.33609*g + 0.436*b
	w := 0.615*r - 0.55861*g - 0.05639*b
	return vec3{y, u, w}
}

func yuvToRGB(v vec3) vec3 {
	y, u, w := v.r, v.g, v.b
	r := y + 1.28033*w
	g := y - 0.21482*u - 0.38059*w
	b := y + 2.12798*u
	return vec3{r, g, b}
}

// luminance is a fast perceptual-weight estimate used by the per-frame
// luminance-change cap (spec §4.4 "clamp per-frame luminance change").
func luminance(v vec3) float64 {
	return 0.2126*v.r + 0.7152*v.g + 0.0722*v.b
}

// clampLuminanceStep scales step so that the luminance delta it would
// introduce is at most maxStep, preserving direction.
func clampLuminanceStep(cur, step vec3, maxStep float64) vec3 {
	if maxStep <= 0 {
		return step
	}
	d := math.Abs(luminance(step))
	if d <= maxStep || d == 0 {
		return step
	}
	return scale(step, maxStep/d)
}

// stepEpsilon is the floor spec §4.4 calls out ("k = max(1 − Δt/(target_time
// − prev_time), ε)"): it guarantees a step keeps making progress even once
// the tick interval has caught up with (or overrun) the settling time.
const stepEpsilon = 0.01

// baseK computes spec §4.4/§8 scenario S4's per-tick weight of the
// *remaining* distance: k = max(1 - dt/settlingTime, ε). Unlike a
// ticks-remaining scheme, this k is the same every tick (dt and
// settlingTime are both fixed for a config), so the remaining distance
// decays geometrically by a factor of (1-k) each tick — verified against
// S4: settling=200ms, updateInterval=40ms gives k=0.8, and
// ceil(0.8*200)=160 on the first step.
func baseK(cfg Config, dtMs float64) float64 {
	if cfg.SettlingTimeMs <= 0 {
		return 1
	}
	k := 1 - dtMs/float64(cfg.SettlingTimeMs)
	if k < stepEpsilon {
		k = stepEpsilon
	}
	if k > 1 {
		k = 1
	}
	return k
}

// moveToward advances one channel by ceil(k*|diff|) toward target (spec
// §4.4/§8 S4's literal step rule), reporting whether it reached target.
func moveToward(cur, target, k float64) (float64, bool) {
	diff := target - cur
	if diff == 0 {
		return cur, true
	}
	mag := math.Abs(diff)
	step := math.Ceil(k * mag)
	if step >= mag {
		return target, true
	}
	if diff > 0 {
		return cur + step, false
	}
	return cur - step, false
}

// linearStep implements the Stepper/Linear model (spec §4.4, §8 S4): move
// each channel by ceil(k * |diff|) toward the target, k = max(1 -
// dt/settlingTime, ε).
func linearStep(cur, target vec3, cfg Config, dtMs float64) (vec3, bool) {
	k := baseK(cfg, dtMs)
	r, doneR := moveToward(cur.r, target.r, k)
	g, doneG := moveToward(cur.g, target.g, k)
	b, doneB := moveToward(cur.b, target.b, k)
	next := vec3{r, g, b}
	step := sub(next, cur)
	step = clampLuminanceStep(cur, step, cfg.MaxLuminancePerStep)
	next = add(cur, step)
	return next, doneR && doneG && doneB
}

// alternativeStep implements the Alternative model (spec §4.4): same
// ceil(k*|diff|) step rule as Linear, but k's exponent varies per channel
// with the size of that channel's remaining diff — small diffs use kMax
// (k^0.6, fastest convergence so small residues don't linger), mid diffs
// kAbove (k^0.75), large diffs kMid (k^0.9), very large diffs kMin (k^1,
// matching Linear exactly) — avoiding the long asymptotic tail a pure
// geometric decay leaves on big jumps while still finishing small ones
// promptly.
func alternativeStep(cur, target vec3, cfg Config, dtMs float64) (vec3, bool) {
	k := baseK(cfg, dtMs)
	r, doneR := altMoveToward(cur.r, target.r, k)
	g, doneG := altMoveToward(cur.g, target.g, k)
	b, doneB := altMoveToward(cur.b, target.b, k)
	next := vec3{r, g, b}
	step := sub(next, cur)
	step = clampLuminanceStep(cur, step, cfg.MaxLuminancePerStep)
	next = add(cur, step)
	return next, doneR && doneG && doneB
}

func altMoveToward(cur, target, k float64) (float64, bool) {
	diff := target - cur
	if diff == 0 {
		return cur, true
	}
	mag := math.Abs(diff)
	var pow float64
	switch {
	case mag < 16:
		pow = 0.6 // kMax
	case mag < 64:
		pow = 0.75 // kAbove
	case mag < 128:
		pow = 0.9 // kMid
	default:
		pow = 1.0 // kMin
	}
	return moveToward(cur, target, math.Pow(k, pow))
}

// springStep advances a critically-damped spring-damper one tick in the
// given color space (identity for RGB/HybridRgb, YUV for YUV/HybridInterp),
// using semi-implicit Euler integration for stability at low tick rates.
func springStep(cur, target, velocity vec3, cfg Config, dtMs float64, toSpace, fromSpace func(vec3) vec3) (nextCur, nextVel vec3, done bool) {
	dt := dtMs / 1000.0
	cs := toSpace(cur)
	ts := toSpace(target)
	vs := toSpace(velocity)

	k := cfg.Spring.Stiffness
	damp := cfg.Spring.Damping

	accelR := k*(ts.r-cs.r) - damp*vs.r
	accelG := k*(ts.g-cs.g) - damp*vs.g
	accelB := k*(ts.b-cs.b) - damp*vs.b

	vs = vec3{vs.r + accelR*dt, vs.g + accelG*dt, vs.b + accelB*dt}
	cs = vec3{cs.r + vs.r*dt, cs.g + vs.g*dt, cs.b + vs.b*dt}

	next := fromSpace(cs)
	nextVelocity := fromSpace(vs)

	step := sub(next, cur)
	step = clampLuminanceStep(cur, step, cfg.MaxLuminancePerStep)
	next = add(cur, step)

	done = closeEnough(next, target, 1.0) && vecMagnitude(nextVelocity) < 1.0
	if done {
		next = target
		nextVelocity = vec3{}
	}
	return next, nextVelocity, done
}

func identitySpace(v vec3) vec3 { return v }

// exponentialStep implements the Exponential model: current moves toward
// target by a fixed fraction (ExponentialFactor) of the remaining distance
// every tick, independent of settling time — a simple IIR low-pass filter.
func exponentialStep(cur, target vec3, cfg Config) (vec3, bool) {
	k := cfg.ExponentialFactor
	if k <= 0 {
		k = 0.2
	}
	if k > 1 {
		k = 1
	}
	delta := sub(target, cur)
	step := scale(delta, k)
	step = clampLuminanceStep(cur, step, cfg.MaxLuminancePerStep)
	next := add(cur, step)
	done := closeEnough(next, target, 0.5)
	if done {
		next = target
	}
	return next, done
}

func closeEnough(a, b vec3, tol float64) bool {
	return math.Abs(a.r-b.r) <= tol && math.Abs(a.g-b.g) <= tol && math.Abs(a.b-b.b) <= tol
}

func vecMagnitude(v vec3) float64 {
	return math.Sqrt(v.r*v.r + v.g*v.g + v.b*v.b)
}
