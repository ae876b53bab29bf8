package spi

import (
	"fmt"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// framedDevice drives the family of SPI LED chips that frame their data
// with a fixed start pattern, one fixed-width record per LED, and a
// latch/clock-out footer whose length depends on the LED count (ws2801,
// lpd8806, lpd6803, p9813, sk9822, hd108). Grounded on devices/apa102's
// Dev, generalized from its 4-byte-record/0xFF-footer shape to a
// per-chip-configurable record encoder.
type framedDevice struct {
	name        string
	bytesPerLED int
	speedHz     uint32
	mode        Mode

	headerLen func(n int) int
	footerLen func(n int) int
	footerByte byte
	encodeLED func(dst []byte, c color.Color)

	port      Transport
	bus, cs   int
	numLights int
	buf       []byte
}

func (d *framedDevice) Name() string  { return d.name }
func (d *framedDevice) LEDCount() int { return d.numLights }

func (d *framedDevice) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		return fmt.Errorf("%w: %s: ledCount must be positive", driver.ErrInvalidConfig, d.name)
	}
	bus, _ := intOpt(config, "bus")
	cs, _ := intOpt(config, "chipSelect")
	d.bus, d.cs, d.numLights = bus, cs, n

	h, f := d.headerLen(n), d.footerLen(n)
	d.buf = make([]byte, h+n*d.bytesPerLED+f)
	for i := h + n*d.bytesPerLED; i < len(d.buf); i++ {
		d.buf[i] = d.footerByte
	}
	return nil
}

func (d *framedDevice) Open() error {
	p, err := Open(d.bus, d.cs)
	if err != nil {
		return driver.WrapUnavailable(d.name+" open", err)
	}
	if err := p.Connect(d.speedHz, d.mode, 8); err != nil {
		_ = p.Close()
		return driver.WrapUnavailable(d.name+" connect", err)
	}
	d.port = p
	return nil
}

func (d *framedDevice) SwitchOn() error { return nil }

func (d *framedDevice) SwitchOff() error {
	_, err := d.Write(driver.AllBlack(d.numLights))
	return err
}

func (d *framedDevice) Write(leds []color.Color) (int, error) {
	leds = driver.PadBlack(leds, d.numLights)
	h := d.headerLen(d.numLights)
	for i := 0; i < d.numLights; i++ {
		off := h + i*d.bytesPerLED
		d.encodeLED(d.buf[off:off+d.bytesPerLED], leds[i])
	}
	if _, err := d.port.Write(d.buf); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", driver.ErrTransientWrite, d.name, err)
	}
	return len(leds), nil
}

func (d *framedDevice) Identify(pattern driver.IdentifyPattern) error {
	return identifyCycle(d, d.numLights, pattern)
}

func (d *framedDevice) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// SetTransport overrides the SPI transport, used by tests to inject a
// driver/spitest fake instead of a real character device.
func (d *framedDevice) SetTransport(t Transport) { d.port = t }

// WS2801 is a simple clocked shift register: raw RGB bytes, no framing,
// the chip just needs ~1ms of clock idle to latch (left to the bus
// scheduler between writes).
type WS2801 struct{ *framedDevice }

func NewWS2801() *WS2801 {
	return &WS2801{&framedDevice{
		name: "ws2801", bytesPerLED: 3, speedHz: 1000000, mode: Mode0,
		headerLen: func(int) int { return 0 },
		footerLen: func(int) int { return 0 },
		encodeLED: func(dst []byte, c color.Color) { dst[0], dst[1], dst[2] = c.R, c.G, c.B },
	}}
}

var _ driver.Device = (*WS2801)(nil)

// LPD8806 packs each channel into 7 bits with the MSB forced high (the
// chip uses the MSB as a framing bit, not data), GRB order, and needs
// (n+31)/32 zero bytes of header/footer to latch.
type LPD8806 struct{ *framedDevice }

func NewLPD8806() *LPD8806 {
	latch := func(n int) int { return (n + 31) / 32 }
	return &LPD8806{&framedDevice{
		name: "lpd8806", bytesPerLED: 3, speedHz: 2000000, mode: Mode0,
		headerLen: latch, footerLen: latch,
		encodeLED: func(dst []byte, c color.Color) {
			dst[0] = 0x80 | (c.G >> 1)
			dst[1] = 0x80 | (c.R >> 1)
			dst[2] = 0x80 | (c.B >> 1)
		},
	}}
}

var _ driver.Device = (*LPD8806)(nil)

// LPD6803 packs one start bit and 5 bits per channel into a 16-bit
// big-endian word, with a 4-byte zero header/footer to reset and latch the
// shift register.
type LPD6803 struct{ *framedDevice }

func NewLPD6803() *LPD6803 {
	return &LPD6803{&framedDevice{
		name: "lpd6803", bytesPerLED: 2, speedHz: 1000000, mode: Mode0,
		headerLen: func(int) int { return 4 }, footerLen: func(int) int { return 4 },
		encodeLED: func(dst []byte, c color.Color) {
			v := uint16(0x8000) | uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
			dst[0], dst[1] = byte(v>>8), byte(v)
		},
	}}
}

var _ driver.Device = (*LPD6803)(nil)

// P9813 uses a per-LED flag byte built from the inverted top two bits of
// each channel, followed by B,G,R, with a 4-byte zero header and a
// footer long enough to clock out the whole chain (>=4 bytes per 2 LEDs).
type P9813 struct{ *framedDevice }

func NewP9813() *P9813 {
	return &P9813{&framedDevice{
		name: "p9813", bytesPerLED: 4, speedHz: 1000000, mode: Mode0,
		headerLen: func(int) int { return 4 },
		footerLen: func(n int) int { return 4 * (n/2 + 1) },
		encodeLED: func(dst []byte, c color.Color) {
			flag := byte(0xC0) | ((^c.B & 0xC0) >> 6) | ((^c.G & 0xC0) >> 4) | ((^c.R & 0xC0) >> 2)
			dst[0], dst[1], dst[2], dst[3] = flag, c.B, c.G, c.R
		},
	}}
}

var _ driver.Device = (*P9813)(nil)

// SK9822 is APA102-protocol-compatible (4-byte brightness+BGR record,
// 4-byte zero header, n/2+1 bytes of 0xFF footer) but sold under its
// own part number; the brightness byte is always 0xFF.
type SK9822 struct{ *framedDevice }

func NewSK9822() *SK9822 {
	return &SK9822{&framedDevice{
		name: "sk9822", bytesPerLED: 4, speedHz: 8000000, mode: Mode3,
		headerLen: func(int) int { return 4 },
		footerLen: func(n int) int { return n/2 + 1 },
		footerByte: 0xFF,
		encodeLED: func(dst []byte, c color.Color) {
			dst[0], dst[1], dst[2], dst[3] = 0xFF, c.B, c.G, c.R
		},
	}}
}

var _ driver.Device = (*SK9822)(nil)

// HD108 is a 16-bit-per-channel chip: each LED record is a 16-bit global
// brightness word (fixed at max here) followed by 16-bit R,G,B, each
// 8-bit input channel scaled by 257 to fill the wider range.
type HD108 struct{ *framedDevice }

func NewHD108() *HD108 {
	return &HD108{&framedDevice{
		name: "hd108", bytesPerLED: 8, speedHz: 8000000, mode: Mode3,
		headerLen: func(int) int { return 4 },
		footerLen: func(n int) int { return 4 * (n/16 + 1) },
		encodeLED: func(dst []byte, c color.Color) {
			r16, g16, b16 := uint16(c.R)*257, uint16(c.G)*257, uint16(c.B)*257
			dst[0], dst[1] = 0xFF, 0xFF
			dst[2], dst[3] = byte(r16>>8), byte(r16)
			dst[4], dst[5] = byte(g16>>8), byte(g16)
			dst[6], dst[7] = byte(b16>>8), byte(b16)
		},
	}}
}

var _ driver.Device = (*HD108)(nil)
