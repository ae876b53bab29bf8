package spi

import (
	"fmt"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// nrzDevice drives any one-wire NRZ LED chip (ws2812, ws2812b, sk6812,
// sk6822, apa104) over SPI MOSI using encodeNRZ, differing only in name
// and whether a derived white channel is sent; all default to 2.5 MHz.
type nrzDevice struct {
	name      string
	withWhite bool
	whiteRule color.WhiteRule

	port      Transport
	bus, cs   int
	speedHz   uint32
	numLights int
	wireBuf   []byte // reused scratch buffer, chip wire order
	spiBuf    []byte // reused SPI symbol buffer
}

func newNRZDevice(name string, withWhite bool) *nrzDevice {
	return &nrzDevice{name: name, withWhite: withWhite, whiteRule: color.DefaultWhiteRule, speedHz: 2500000}
}

func (d *nrzDevice) Name() string  { return d.name }
func (d *nrzDevice) LEDCount() int { return d.numLights }

func (d *nrzDevice) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		return fmt.Errorf("%w: %s: ledCount must be positive", driver.ErrInvalidConfig, d.name)
	}
	bus, _ := intOpt(config, "bus")
	cs, _ := intOpt(config, "chipSelect")
	d.bus, d.cs, d.numLights = bus, cs, n
	perLED := 3
	if d.withWhite {
		perLED = 4
	}
	d.wireBuf = make([]byte, n*perLED)
	d.spiBuf = make([]byte, 0, n*perLED*4+3)
	return nil
}

func (d *nrzDevice) Open() error {
	p, err := Open(d.bus, d.cs)
	if err != nil {
		return driver.WrapUnavailable(d.name+" open", err)
	}
	if err := p.Connect(d.speedHz, Mode0, 8); err != nil {
		_ = p.Close()
		return driver.WrapUnavailable(d.name+" connect", err)
	}
	d.port = p
	return nil
}

func (d *nrzDevice) SwitchOn() error { return nil }

func (d *nrzDevice) SwitchOff() error {
	_, err := d.Write(driver.AllBlack(d.numLights))
	return err
}

// Write implements driver.Device: colors are converted to the chip's GRB
// (or GRBW) wire order and NRZ-encoded before transmission.
func (d *nrzDevice) Write(leds []color.Color) (int, error) {
	leds = driver.PadBlack(leds, d.numLights)
	perLED := 3
	if d.withWhite {
		perLED = 4
	}
	for i, c := range leds {
		if i >= d.numLights {
			break
		}
		off := i * perLED
		if d.withWhite {
			rgbw := d.whiteRule.Apply(c)
			d.wireBuf[off], d.wireBuf[off+1], d.wireBuf[off+2], d.wireBuf[off+3] = rgbw.G, rgbw.R, rgbw.B, rgbw.W
		} else {
			d.wireBuf[off], d.wireBuf[off+1], d.wireBuf[off+2] = c.G, c.R, c.B
		}
	}
	d.spiBuf = d.spiBuf[:0]
	d.spiBuf = encodeNRZ(d.spiBuf, d.wireBuf)
	d.spiBuf = append(d.spiBuf, 0, 0, 0) // latch/reset gap
	if _, err := d.port.Write(d.spiBuf); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", driver.ErrTransientWrite, d.name, err)
	}
	return len(leds), nil
}

func (d *nrzDevice) Identify(pattern driver.IdentifyPattern) error {
	return identifyCycle(d, d.numLights, pattern)
}

func (d *nrzDevice) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// SetTransport overrides the SPI transport, used by tests to inject a
// driver/spitest fake instead of a real character device.
func (d *nrzDevice) SetTransport(t Transport) { d.port = t }

// WS2812 drives WS2812/WS2812B strips (spec §6, "SPI backends").
type WS2812 struct{ *nrzDevice }

func NewWS2812() *WS2812 { return &WS2812{newNRZDevice("ws2812", false)} }

var _ driver.Device = (*WS2812)(nil)

// APA104 is WS2812-protocol-compatible, sold under its own part number.
type APA104 struct{ *nrzDevice }

func NewAPA104() *APA104 { return &APA104{newNRZDevice("apa104", false)} }

var _ driver.Device = (*APA104)(nil)

// SK6812 adds a fourth, dedicated white channel.
type SK6812 struct{ *nrzDevice }

func NewSK6812() *SK6812 { return &SK6812{newNRZDevice("sk6812", true)} }

var _ driver.Device = (*SK6812)(nil)

// SK6822 is RGB-only (no white channel), same NRZ timing family as SK6812.
type SK6822 struct{ *nrzDevice }

func NewSK6822() *SK6822 { return &SK6822{newNRZDevice("sk6822", false)} }

var _ driver.Device = (*SK6822)(nil)
