package net

import (
	"fmt"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// Awa drives an Adalight-style UDP receiver (spec §6, §8 scenario S6):
// 6-byte magic header, raw RGB payload, 2-byte Fletcher-16 trailer over
// the payload.
type Awa struct {
	host string
	port int
	n    int
	conn Conn
	buf  []byte
}

func NewAwa() *Awa { return &Awa{} }

func (d *Awa) Name() string  { return "awa" }
func (d *Awa) LEDCount() int { return d.n }

func (d *Awa) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		return fmt.Errorf("%w: awa: ledCount must be positive", driver.ErrInvalidConfig)
	}
	d.n = n
	d.host = stringOpt(config, "host", "127.0.0.1")
	port, ok := intOpt(config, "port")
	if !ok || port <= 0 {
		port = 19446
	}
	d.port = port
	d.buf = make([]byte, 6+n*3+2)
	d.writeHeader()
	return nil
}

// writeHeader fills the fixed 6-byte magic header: 'A','w','a', HI(n-1),
// LO(n-1), HI^LO^0x55 (spec §6, §7 invariant 7).
func (d *Awa) writeHeader() {
	hi, lo := byte((d.n-1)>>8), byte(d.n-1)
	d.buf[0], d.buf[1], d.buf[2] = 'A', 'w', 'a'
	d.buf[3], d.buf[4], d.buf[5] = hi, lo, hi^lo^0x55
}

func (d *Awa) Open() error {
	c, err := dialUDP(d.host, d.port)
	if err != nil {
		return driver.WrapUnavailable("awa open", err)
	}
	d.conn = c
	return nil
}

func (d *Awa) SwitchOn() error { return nil }

func (d *Awa) SwitchOff() error {
	_, err := d.Write(driver.AllBlack(d.n))
	return err
}

// Write implements driver.Device, building the frame of spec §8 scenario
// S6: header, RGB payload, Fletcher-16 trailer.
func (d *Awa) Write(leds []color.Color) (int, error) {
	leds = driver.PadBlack(leds, d.n)
	payload := d.buf[6 : 6+d.n*3]
	for i := 0; i < d.n; i++ {
		payload[i*3], payload[i*3+1], payload[i*3+2] = leds[i].R, leds[i].G, leds[i].B
	}
	s1, s2 := fletcher16(payload)
	d.buf[6+d.n*3], d.buf[6+d.n*3+1] = s1, s2
	if _, err := d.conn.Write(d.buf); err != nil {
		return 0, fmt.Errorf("%w: awa: %v", driver.ErrTransientWrite, err)
	}
	return len(leds), nil
}

func (d *Awa) Identify(pattern driver.IdentifyPattern) error {
	flash := func(c color.Color) error {
		buf := make([]color.Color, d.n)
		for i := range buf {
			buf[i] = c
		}
		_, err := d.Write(buf)
		return err
	}
	for _, c := range []color.Color{{R: 255}, {G: 255}, {B: 255}} {
		if err := flash(c); err != nil {
			return err
		}
	}
	_, err := d.Write(driver.AllBlack(d.n))
	return err
}

func (d *Awa) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

var _ driver.Device = (*Awa)(nil)
