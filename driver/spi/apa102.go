package spi

import (
	"fmt"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// apa102GlobalBrightness is the 5-bit per-LED global-brightness value
// packed into the low 5 bits of each LED's header byte (0xE0 | value),
// the only per-channel adjustment the APA102 datasheet defines at the
// wire level — spec §4.5 calls for "optional global brightness", nothing
// more, so that is all this backend frames.
type apa102GlobalBrightness uint8

const apa102MaxBrightness apa102GlobalBrightness = 31

func clampBrightness(v int) apa102GlobalBrightness {
	if v < 0 {
		return 0
	}
	if v > int(apa102MaxBrightness) {
		return apa102MaxBrightness
	}
	return apa102GlobalBrightness(v)
}

// raster serializes one frame of LED colors into dst[0:4*n] in the
// APA102's wire order (header byte, B, G, R), prefixing every LED with
// the same global-brightness header byte.
func raster(dst []byte, leds []color.Color, brightness apa102GlobalBrightness) {
	n := len(leds)
	if o := len(dst) / 4; o < n {
		n = o
	}
	header := byte(0xE0) | byte(brightness)
	for i := 0; i < n; i++ {
		j := 4 * i
		dst[j], dst[j+1], dst[j+2], dst[j+3] = header, leds[i].B, leds[i].G, leds[i].R
	}
}

// APA102 drives a strip of APA-102 LEDs over SPI (spec §6, §4.5).
type APA102 struct {
	Brightness apa102GlobalBrightness

	port      Transport
	bus, cs   int
	speedHz   uint32
	numLights int
	buf       []byte
}

// NewAPA102 returns an uninitialized APA102 backend at full brightness;
// Init/Open follow the driver.Device lifecycle (spec §4.5).
func NewAPA102() *APA102 {
	return &APA102{Brightness: apa102MaxBrightness}
}

func (d *APA102) Name() string  { return "apa102" }
func (d *APA102) LEDCount() int { return d.numLights }

func (d *APA102) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		return fmt.Errorf("%w: apa102: ledCount must be positive", driver.ErrInvalidConfig)
	}
	bus, _ := intOpt(config, "bus")
	cs, _ := intOpt(config, "chipSelect")
	speed, ok := intOpt(config, "speedHz")
	if !ok || speed <= 0 {
		speed = 8000000
	}
	if v, ok := intOpt(config, "brightness"); ok {
		d.Brightness = clampBrightness(v)
	}
	d.bus, d.cs, d.speedHz, d.numLights = bus, cs, uint32(speed), n
	// End frames push enough SPI clocks to flush the internal half-delay of
	// each LED's data signal (cpldcpu's analysis of the APA102 protocol).
	d.buf = make([]byte, 4*(n+1)+n/2/8+1)
	tail := d.buf[4+4*n:]
	for i := range tail {
		tail[i] = 0xFF
	}
	return nil
}

func (d *APA102) Open() error {
	p, err := Open(d.bus, d.cs)
	if err != nil {
		return driver.WrapUnavailable("apa102 open", err)
	}
	if err := p.Connect(d.speedHz, Mode3, 8); err != nil {
		_ = p.Close()
		return driver.WrapUnavailable("apa102 connect", err)
	}
	d.port = p
	return nil
}

func (d *APA102) SwitchOn() error { return nil }

func (d *APA102) SwitchOff() error {
	_, err := d.Write(driver.AllBlack(d.numLights))
	return err
}

// Write implements driver.Device.
func (d *APA102) Write(leds []color.Color) (int, error) {
	leds = driver.PadBlack(leds, d.numLights)
	raster(d.buf[4:4+4*d.numLights], leds, d.Brightness)
	if _, err := d.port.Write(d.buf); err != nil {
		return 0, fmt.Errorf("%w: apa102: %v", driver.ErrTransientWrite, err)
	}
	return len(leds), nil
}

func (d *APA102) Identify(pattern driver.IdentifyPattern) error {
	return identifyCycle(d, d.numLights, pattern)
}

func (d *APA102) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// SetTransport overrides the SPI transport, used by tests to inject a
// driver/spitest fake instead of a real character device.
func (d *APA102) SetTransport(t Transport) { d.port = t }

var _ driver.Device = (*APA102)(nil)
