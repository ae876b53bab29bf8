package spi

// nrzSymbol4 expands one byte's 8 data bits into 32 SPI clock bits (4
// bytes), 4 SPI-bits per data-bit, the same trick experimental/devices/
// nrzled uses to emit a WS2812-family one-wire NRZ waveform over a
// regular SPI MOSI line clocked at 2.5MHz (400ns/bit): a data "1" is sent
// as 1110 (1.2us high, 0.4us low) and a data "0" as 1000 (0.4us high,
// 1.2us low), both within the chip's timing tolerance.
var nrzSymbol4 [256][4]byte

func init() {
	for v := 0; v < 256; v++ {
		var bits uint32
		for bit := 0; bit < 8; bit++ {
			bits <<= 4
			if v&(0x80>>uint(bit)) != 0 {
				bits |= 0xE // 1110
			} else {
				bits |= 0x8 // 1000
			}
		}
		nrzSymbol4[v] = [4]byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	}
}

// encodeNRZ appends the SPI symbol stream for src (already in chip wire
// channel order) to dst.
func encodeNRZ(dst []byte, src []byte) []byte {
	for _, b := range src {
		sym := nrzSymbol4[b]
		dst = append(dst, sym[0], sym[1], sym[2], sym[3])
	}
	return dst
}
