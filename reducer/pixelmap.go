package reducer

import "ambicore.dev/core/color"

// sparseThreshold is the per-LED pixel count above which the reducer
// strides by 2 in each axis (spec §4.2).
const sparseThreshold = 1600

// buildMap computes the per-LED pixel offset lists for a layout against an
// image of size w x h, honoring the sparse flag. Corner LEDs (touching
// exactly one edge, on the side opposite their own near edge) get their
// rectangle split into near/far halves, the far half's offsets encoded as
// "weighted-opposite" via color.EncodeOpposite, for use by the weighted
// and advanced policies (spec §4.2).
//
// Grounded on devices/apa102's tight per-pixel loop style: everything here
// is plain index arithmetic, no allocation beyond the returned slices.
func buildMap(layout color.Layout, w, h int, sparse bool) *color.PixelMap {
	pm := &color.PixelMap{W: w, H: h, Offsets: make([][]int32, len(layout))}
	for i, led := range layout {
		if !led.Valid() {
			pm.Offsets[i] = nil
			continue
		}
		pm.Offsets[i] = ledOffsets(led, w, h, sparse)
	}
	return pm
}

func ledOffsets(led color.LED, w, h int, sparse bool) []int32 {
	x0, x1 := scaleClamp(led.MinX, w), scaleClamp(led.MaxX, w)
	y0, y1 := scaleClamp(led.MinY, h), scaleClamp(led.MaxY, h)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	stride := 1
	if sparse && (x1-x0)*(y1-y0) > sparseThreshold {
		stride = 2
	}

	edge, isCorner := cornerEdge(led)
	if !isCorner {
		return rectOffsets(x0, x1, y0, y1, stride, w)
	}
	return cornerOffsets(x0, x1, y0, y1, stride, w, edge)
}

func scaleClamp(frac float64, dim int) int {
	v := int(frac * float64(dim))
	if v < 0 {
		v = 0
	}
	if v > dim {
		v = dim
	}
	return v
}

// edgeSide names which of the four normalized-image edges an LED touches.
type edgeSide int

const (
	edgeNone edgeSide = iota
	edgeLeft
	edgeRight
	edgeTop
	edgeBottom
)

// cornerEdge reports whether led touches exactly one edge (x=0, x=1, y=0
// or y=1) and, if so, which — the definition of a "corner LED" for the
// weighted policy (spec §4.2: "touching exactly one of x=0, x=1, y=0, y=1
// on the opposite of the near edge").
func cornerEdge(led color.LED) (edgeSide, bool) {
	touches := 0
	var side edgeSide
	if led.MinX <= 0 {
		touches++
		side = edgeLeft
	}
	if led.MaxX >= 1 {
		touches++
		side = edgeRight
	}
	if led.MinY <= 0 {
		touches++
		side = edgeTop
	}
	if led.MaxY >= 1 {
		touches++
		side = edgeBottom
	}
	if touches != 1 {
		return edgeNone, false
	}
	return side, true
}

func rectOffsets(x0, x1, y0, y1, stride, w int) []int32 {
	out := make([]int32, 0, ((x1-x0)/stride+1)*((y1-y0)/stride+1))
	for y := y0; y < y1; y += stride {
		for x := x0; x < x1; x += stride {
			out = append(out, int32(y*w+x))
		}
	}
	return out
}

// cornerOffsets splits the rectangle into a near half (close to the
// touched edge's far side — i.e. away from the edge, the "near" side of
// the rest of the strip) and a far half, weighting near 3:1 against far
// by marking far pixels as weighted-opposite (spec §4.2 *weighted*/
// *advanced* policies). The split runs along the axis perpendicular to
// the touched edge.
func cornerOffsets(x0, x1, y0, y1, stride, w int, edge edgeSide) []int32 {
	out := make([]int32, 0, ((x1-x0)/stride+1)*((y1-y0)/stride+1))
	switch edge {
	case edgeLeft, edgeRight:
		// split along Y.
		mid := (y0 + y1) / 2
		for y := y0; y < y1; y += stride {
			for x := x0; x < x1; x += stride {
				idx := int32(y*w + x)
				if nearHalf(y, y0, mid, edge == edgeLeft || edge == edgeRight) {
					out = append(out, idx)
				} else {
					out = append(out, color.EncodeOpposite(idx))
				}
			}
		}
	default:
		// top/bottom: split along X.
		mid := (x0 + x1) / 2
		for y := y0; y < y1; y += stride {
			for x := x0; x < x1; x += stride {
				idx := int32(y*w + x)
				if x < mid {
					out = append(out, idx)
				} else {
					out = append(out, color.EncodeOpposite(idx))
				}
			}
		}
	}
	return out
}

func nearHalf(v, lo, mid int, _ bool) bool {
	return v < mid || mid == lo
}
