package net

import (
	"encoding/binary"
	"fmt"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// TL1 command verbs (spec §6).
const (
	tl1Read      byte = 0x01
	tl1Set       byte = 0x02
	tl1SetEEPROM byte = 0x03
	tl1SetVar    byte = 0x04

	tl1AppID uint16 = 0x8000
)

var cololightMagic = [10]byte{'S', 'Z', 0x30, 0x30, 0, 0, 0, 0, 0, 0}

// Cololight drives a Cololight device over UDP using its TL1 framing
// (spec §6): a fixed 10-byte magic header, a 16-byte security block
// (zeroed — the device accepts an all-zero block for local, unpaired
// control), then a TL1 command: verb, ctag, reserved, 2-byte big-endian
// appId, reserved, 4-byte big-endian payload size, payload.
type Cololight struct {
	host string
	port int
	n    int
	ctag byte
	conn Conn
}

func NewCololight() *Cololight { return &Cololight{} }

func (d *Cololight) Name() string  { return "cololight" }
func (d *Cololight) LEDCount() int { return d.n }

func (d *Cololight) Init(config map[string]interface{}) error {
	n, ok := intOpt(config, "ledCount")
	if !ok || n <= 0 {
		return fmt.Errorf("%w: cololight: ledCount must be positive", driver.ErrInvalidConfig)
	}
	d.n = n
	d.host = stringOpt(config, "host", "127.0.0.1")
	port, ok := intOpt(config, "port")
	if !ok || port <= 0 {
		port = 8900
	}
	d.port = port
	return nil
}

func (d *Cololight) Open() error {
	c, err := dialUDP(d.host, d.port)
	if err != nil {
		return driver.WrapUnavailable("cololight open", err)
	}
	d.conn = c
	return nil
}

func (d *Cololight) SwitchOn() error { return nil }

func (d *Cololight) SwitchOff() error {
	_, err := d.Write(driver.AllBlack(d.n))
	return err
}

// frame builds one TL1-wrapped command: magic header, zeroed security
// block, then the verb/ctag/appId/size command header and payload.
func (d *Cololight) frame(verb byte, payload []byte) []byte {
	buf := make([]byte, 10+16+10+len(payload))
	copy(buf, cololightMagic[:])
	// security block (offset 10..26) stays zero.
	cmd := buf[26:]
	cmd[0] = verb
	cmd[1] = d.ctag
	d.ctag++
	cmd[2] = 0
	binary.BigEndian.PutUint16(cmd[3:5], tl1AppID)
	cmd[5] = 0
	binary.BigEndian.PutUint32(cmd[6:10], uint32(len(payload)))
	copy(cmd[10:], payload)
	return buf
}

// Write implements driver.Device: sends the whole LED vector as one
// SETVAR command payload, RGB-packed.
func (d *Cololight) Write(leds []color.Color) (int, error) {
	leds = driver.PadBlack(leds, d.n)
	payload := make([]byte, len(leds)*3)
	for i, c := range leds {
		payload[i*3], payload[i*3+1], payload[i*3+2] = c.R, c.G, c.B
	}
	frame := d.frame(tl1SetVar, payload)
	if _, err := d.conn.Write(frame); err != nil {
		return 0, fmt.Errorf("%w: cololight: %v", driver.ErrTransientWrite, err)
	}
	return len(leds), nil
}

func (d *Cololight) Identify(pattern driver.IdentifyPattern) error {
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

func (d *Cololight) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

var _ driver.Device = (*Cololight)(nil)
