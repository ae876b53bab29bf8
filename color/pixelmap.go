package color

// PixelMap is the per-LED list of pixel offsets into an Image.Pix's pixel
// index space (not byte space: offset i means pixel i, i.e. bytes
// [3*i, 3*i+3)). A negative offset -1-k marks a "weighted-opposite" pixel
// (index k) used by the weighted/advanced corner policies (spec §3).
// An empty slice excludes the LED from averaging.
type PixelMap struct {
	W, H    int
	Offsets [][]int32
}

// Encode packs a plain (non-opposite) pixel index for storage in Offsets.
func Encode(pixelIndex int32) int32 { return pixelIndex }

// EncodeOpposite packs a "weighted-opposite" pixel index.
func EncodeOpposite(pixelIndex int32) int32 { return -1 - pixelIndex }

// Decode unpacks an Offsets entry back into its pixel index and whether it
// was marked opposite.
func Decode(v int32) (pixelIndex int32, opposite bool) {
	if v < 0 {
		return -1 - v, true
	}
	return v, false
}
