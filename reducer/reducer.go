// Package reducer maps a captured image to one color per LED (spec §4.2):
// it precomputes per-LED pixel-index sets for a layout, averages pixels
// under a selectable policy, then applies group averaging and the
// disabled-LED mask.
//
// Grounded on devices/apa102.lut's tight, allocation-free per-pixel loop
// (apa102.go's raster/rasterImg) for the averaging hot path, and on the
// 64-bit accumulator idiom periph's conn/physic uses for overflow-safe
// sums (spec §9 Numerics: "advanced mode stores per-channel sums in
// 64-bit").
package reducer

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"ambicore.dev/core/color"
)

// Policy selects the areal-averaging rule (spec §4.2).
type Policy int

const (
	PolicyMean Policy = iota
	PolicyUnicolor
	PolicyWeighted
	PolicyAdvanced
)

// ErrCaptureSizeMismatch documents spec §7's CaptureSizeMismatch: the
// reducer rebuilds its pixel-index map in response and proceeds; Reduce
// does not return this value.
var ErrCaptureSizeMismatch = errors.New("reducer: capture size changed, pixel map rebuilt")

// gammaLUT is the 256-entry linearize table used by the advanced
// tone-mapped policy, built once at package init.
var gammaLUT [256]float64

func init() {
	for i := range gammaLUT {
		v := float64(i) / 255.0
		gammaLUT[i] = v * v // approximate gamma-2.0 linearization
	}
}

// Reducer holds the current pixel-index map and reduction policy for one
// instance's layout.
type Reducer struct {
	mu     sync.RWMutex
	layout color.Layout
	sparse bool
	policy Policy
	pm     atomic.Pointer[color.PixelMap] // immutable-snapshot reads (spec §5)
}

// New creates a Reducer for layout with the given policy. The pixel map
// is built lazily on first Reduce call for whatever image size is seen.
func New(layout color.Layout, policy Policy, sparse bool) *Reducer {
	return &Reducer{layout: layout, policy: policy, sparse: sparse}
}

// SetPolicy changes the averaging policy; it does not require a map
// rebuild since the map only depends on layout/size/sparse.
func (r *Reducer) SetPolicy(p Policy) {
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
}

// SetLayout installs a new layout, forcing the pixel map to be rebuilt on
// the next Reduce call (spec §4.2 "Rebuild trigger").
func (r *Reducer) SetLayout(layout color.Layout) {
	r.mu.Lock()
	r.layout = layout
	r.pm.Store(nil)
	r.mu.Unlock()
}

// SetSparse toggles sparse striding, forcing a rebuild.
func (r *Reducer) SetSparse(sparse bool) {
	r.mu.Lock()
	r.sparse = sparse
	r.pm.Store(nil)
	r.mu.Unlock()
}

// Reduce maps img to one color per LED. It rebuilds the pixel-index map
// when (w,h), layout or the sparse flag changed since the last call;
// while rebuilding, any concurrent reader holding the prior snapshot (via
// the atomic.Pointer) keeps completing against it (spec §4.2, §5).
func (r *Reducer) Reduce(img *color.Image) []color.Color {
	pm := r.pm.Load()
	if pm == nil || pm.W != img.W || pm.H != img.H {
		r.mu.RLock()
		layout, sparse := r.layout, r.sparse
		r.mu.RUnlock()
		pm = buildMap(layout, img.W, img.H, sparse)
		r.pm.Store(pm)
	}

	r.mu.RLock()
	layout, policy := r.layout, r.policy
	r.mu.RUnlock()

	out := make([]color.Color, len(layout))
	if policy == PolicyUnicolor {
		u := meanWhole(img)
		for i := range out {
			out[i] = u
		}
	} else {
		for i := range layout {
			out[i] = reduceOne(img, pm.Offsets[i], policy)
		}
	}

	applyGroups(layout, out)
	applyDisabled(layout, out)
	return out
}

func reduceOne(img *color.Image, offsets []int32, policy Policy) color.Color {
	if len(offsets) == 0 {
		return color.Black
	}
	switch policy {
	case PolicyWeighted:
		return weightedMean(img, offsets, false)
	case PolicyAdvanced:
		return weightedMean(img, offsets, true)
	default:
		return plainMean(img, offsets)
	}
}

func plainMean(img *color.Image, offsets []int32) color.Color {
	var sr, sg, sb, n int64
	for _, o := range offsets {
		idx, _ := color.Decode(o)
		c := pixelAt(img, idx)
		sr += int64(c.R)
		sg += int64(c.G)
		sb += int64(c.B)
		n++
	}
	if n == 0 {
		return color.Black
	}
	return color.Color{R: byte(sr / n), G: byte(sg / n), B: byte(sb / n)}
}

// weightedMean implements the weighted/advanced near:far (3:1) corner
// policy (spec §4.2). advanced additionally gamma-linearizes each channel
// before averaging and re-encodes with a square root.
func weightedMean(img *color.Image, offsets []int32, advanced bool) color.Color {
	var sr, sg, sb, w int64
	for _, o := range offsets {
		idx, opposite := color.Decode(o)
		c := pixelAt(img, idx)
		weight := int64(3)
		if opposite {
			weight = 1
		}
		if advanced {
			sr += int64(gammaLUT[c.R]*65535) * weight
			sg += int64(gammaLUT[c.G]*65535) * weight
			sb += int64(gammaLUT[c.B]*65535) * weight
		} else {
			sr += int64(c.R) * weight
			sg += int64(c.G) * weight
			sb += int64(c.B) * weight
		}
		w += weight
	}
	if w == 0 {
		return color.Black
	}
	if advanced {
		return color.Color{
			R: reencode(sr, w),
			G: reencode(sg, w),
			B: reencode(sb, w),
		}
	}
	return color.Color{R: byte(sr / w), G: byte(sg / w), B: byte(sb / w)}
}

func reencode(sum, weight int64) byte {
	linear := float64(sum) / float64(weight) / 65535.0
	if linear < 0 {
		linear = 0
	}
	v := math.Sqrt(linear) * 255.0
	if v > 255 {
		v = 255
	}
	return byte(v)
}

func meanWhole(img *color.Image) color.Color {
	var sr, sg, sb, n int64
	total := img.W * img.H
	for i := 0; i < total; i++ {
		c := pixelAt(img, int32(i))
		sr += int64(c.R)
		sg += int64(c.G)
		sb += int64(c.B)
	}
	n = int64(total)
	if n == 0 {
		return color.Black
	}
	return color.Color{R: byte(sr / n), G: byte(sg / n), B: byte(sb / n)}
}

func pixelAt(img *color.Image, pixelIndex int32) color.Color {
	x := int(pixelIndex) % img.W
	y := int(pixelIndex) / img.W
	return img.At(x, y)
}

// applyGroups averages colors across LEDs sharing a group id (spec §4.2):
// after per-LED reduction, every distinct group id g>0 gets the mean of
// its members assigned back to all of them.
func applyGroups(layout color.Layout, out []color.Color) {
	sums := map[int][3]int64{}
	counts := map[int]int64{}
	for i, led := range layout {
		if led.Group <= 0 {
			continue
		}
		s := sums[led.Group]
		s[0] += int64(out[i].R)
		s[1] += int64(out[i].G)
		s[2] += int64(out[i].B)
		sums[led.Group] = s
		counts[led.Group]++
	}
	means := map[int]color.Color{}
	for g, s := range sums {
		n := counts[g]
		if n == 0 {
			continue
		}
		means[g] = color.Color{R: byte(s[0] / n), G: byte(s[1] / n), B: byte(s[2] / n)}
	}
	for i, led := range layout {
		if led.Group > 0 {
			out[i] = means[led.Group]
		}
	}
}

// applyDisabled forces disabled LEDs to black, run after grouping (spec
// §4.2: "Groups interact with disabled mask only after grouping").
func applyDisabled(layout color.Layout, out []color.Color) {
	for i, led := range layout {
		if led.Disabled {
			out[i] = color.Black
		}
	}
}
