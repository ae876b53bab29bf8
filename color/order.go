package color

// Order is the hardware byte-order tag carried per LED (spec §3).
type Order uint8

const (
	OrderRGB Order = iota
	OrderBGR
	OrderRBG
	OrderGRB
	OrderGBR
	OrderBRG
)

// Permute reorders c's channels for the wire according to o. Testable
// property spec §8.6: the six permutations compose into the identity or
// into 2- and 3-cycles; in
// particular RGB and BGR are each their own inverse, as are RBG and GRB,
// while GBR and BRG invert each other.
func (o Order) Permute(c Color) Color {
	switch o {
	case OrderRGB:
		return c
	case OrderBGR:
		return Color{c.B, c.G, c.R}
	case OrderRBG:
		return Color{c.R, c.B, c.G}
	case OrderGRB:
		return Color{c.G, c.R, c.B}
	case OrderGBR:
		return Color{c.G, c.B, c.R}
	case OrderBRG:
		return Color{c.B, c.R, c.G}
	default:
		return c
	}
}

// Invert returns the order that undoes Permute for o.
func (o Order) Invert() Order {
	switch o {
	case OrderGBR:
		return OrderBRG
	case OrderBRG:
		return OrderGBR
	default:
		return o
	}
}

func (o Order) String() string {
	switch o {
	case OrderRGB:
		return "rgb"
	case OrderBGR:
		return "bgr"
	case OrderRBG:
		return "rbg"
	case OrderGRB:
		return "grb"
	case OrderGBR:
		return "gbr"
	case OrderBRG:
		return "brg"
	default:
		return "rgb"
	}
}

// ParseOrder maps the lower-case wire name used in device settings
// documents (spec §6 "device" -> colorOrder) to an Order.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "rgb":
		return OrderRGB, true
	case "bgr":
		return OrderBGR, true
	case "rbg":
		return OrderRBG, true
	case "grb":
		return OrderGRB, true
	case "gbr":
		return OrderGBR, true
	case "brg":
		return OrderBRG, true
	default:
		return OrderRGB, false
	}
}
