package net

import (
	"encoding/binary"
	"fmt"
	"math"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// LIFX LAN protocol packet types used (spec §6).
const (
	lifxPktGetService = 2
	lifxPktSetPower   = 21
	lifxPktSetColor   = 102
)

const lifxHeaderSize = 36

// Lifx drives a single LIFX bulb over UDP. LIFX bulbs are whole-fixture,
// not per-pixel strips, so Write reduces the incoming vector to its mean
// color and sends one SetColor packet (spec §6, "LIFX: 36-byte
// little-endian header ... SetColor (pkt 102)").
type Lifx struct {
	host     string
	port     int
	n        int
	source   uint32
	sequence byte
	conn     Conn
}

func NewLifx() *Lifx { return &Lifx{source: 0x4C465831} } // "LFX1"

func (d *Lifx) Name() string  { return "lifx" }
func (d *Lifx) LEDCount() int { return d.n }

func (d *Lifx) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		n = 1
	}
	d.n = n
	d.host = stringOpt(config, "host", "127.0.0.1")
	port, ok := intOpt(config, "port")
	if !ok || port <= 0 {
		port = 56700
	}
	d.port = port
	return nil
}

func (d *Lifx) Open() error {
	c, err := dialUDP(d.host, d.port)
	if err != nil {
		return driver.WrapUnavailable("lifx open", err)
	}
	d.conn = c
	return nil
}

// header builds the 36-byte little-endian LIFX frame header: size,
// protocol flags (tagged+addressable+origin, protocol=1024), source,
// target (all-zero, broadcast-to-any-bound-peer), frame address
// reserved, flags byte, sequence, protocol header reserved, pkt type,
// reserved.
func (d *Lifx) header(pktType uint16, payloadLen int) []byte {
	buf := make([]byte, lifxHeaderSize)
	size := uint16(lifxHeaderSize + payloadLen)
	binary.LittleEndian.PutUint16(buf[0:2], size)
	const tagged = 1 << 13
	const addressable = 1 << 12
	const protocol = 1024
	binary.LittleEndian.PutUint16(buf[2:4], tagged|addressable|protocol)
	binary.LittleEndian.PutUint32(buf[4:8], d.source)
	// target (8 bytes, zero = unaddressed), frame address reserved (6
	// bytes) already zero.
	buf[22] = 0 // res_required | ack_required
	buf[23] = d.sequence
	d.sequence++
	// protocol header reserved (8 bytes) already zero.
	binary.LittleEndian.PutUint16(buf[32:34], pktType)
	return buf
}

func (d *Lifx) SwitchOn() error {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, 0xFFFF)
	return d.send(lifxPktSetPower, payload)
}

func (d *Lifx) SwitchOff() error {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, 0)
	return d.send(lifxPktSetPower, payload)
}

func (d *Lifx) send(pktType uint16, payload []byte) error {
	frame := append(d.header(pktType, len(payload)), payload...)
	_, err := d.conn.Write(frame)
	return err
}

// Write implements driver.Device: averages leds and sends one SetColor
// packet {reserved, hue16, saturation16, brightness16, kelvin16,
// duration32}.
func (d *Lifx) Write(leds []color.Color) (int, error) {
	if len(leds) == 0 {
		leds = driver.AllBlack(1)
	}
	mean := meanColor(leds)
	h, s, v := rgbToHSV(mean)
	payload := make([]byte, 13)
	binary.LittleEndian.PutUint16(payload[1:3], uint16(h/360*65535))
	binary.LittleEndian.PutUint16(payload[3:5], uint16(s*65535))
	binary.LittleEndian.PutUint16(payload[5:7], uint16(v*65535))
	binary.LittleEndian.PutUint16(payload[7:9], 3500) // default white balance
	binary.LittleEndian.PutUint32(payload[9:13], 0)   // instantaneous
	if err := d.send(lifxPktSetColor, payload); err != nil {
		return 0, fmt.Errorf("%w: lifx: %v", driver.ErrTransientWrite, err)
	}
	return len(leds), nil
}

func (d *Lifx) Identify(pattern driver.IdentifyPattern) error {
	for _, c := range []color.Color{{R: 255}, {G: 255}, {B: 255}} {
		if _, err := d.Write([]color.Color{c}); err != nil {
			return err
		}
	}
	_, err := d.Write(driver.AllBlack(1))
	return err
}

func (d *Lifx) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

func meanColor(leds []color.Color) color.Color {
	var r, g, b int
	for _, c := range leds {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	n := len(leds)
	return color.Color{R: byte(r / n), G: byte(g / n), B: byte(b / n)}
}

func rgbToHSV(c color.Color) (h, s, v float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max == 0 {
		return 0, 0, v
	}
	s = d / max
	if d == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

var _ driver.Device = (*Lifx)(nil)
