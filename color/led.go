package color

// LED is one element of a layout: its fractional footprint on the
// normalized image, its hardware byte order, optional grouping and
// calibration, and whether it is disabled (spec §3).
type LED struct {
	MinX, MaxX, MinY, MaxY float64 // in [0,1]; MaxX>MinX, MaxY>MinY to contribute
	Order                  Order
	Group                  int // -1 = none
	Disabled               bool
	CalibrationID          int // 0 is the default calibration
}

// Valid reports whether the LED's rectangle is non-degenerate, the
// invariant from spec §3.
func (l LED) Valid() bool {
	return l.MaxX > l.MinX && l.MaxY > l.MinY
}

// Layout is the ordered list of LED descriptors for one instance.
type Layout []LED

// Len is provided for readability at call sites that otherwise read
// len(layout).
func (l Layout) Len() int { return len(l) }
