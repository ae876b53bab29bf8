package spi

import (
	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

func intOpt(config map[string]interface{}, key string) (int, bool) {
	v, ok := config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// identifyCycle implements Identify for any Device that writes plain
// color.Color vectors: for driver.IdentifyCycle it flashes the whole strip
// red, green, then blue, then writes black; for driver.IdentifyFlash it
// flashes LED 0 white three times on an otherwise black strip, ending
// black (spec §4.5 "Identify/blink").
func identifyCycle(d driver.Device, n int, pattern driver.IdentifyPattern) error {
	flash := func(c color.Color) error {
		buf := make([]color.Color, n)
		for i := range buf {
			buf[i] = c
		}
		_, err := d.Write(buf)
		return err
	}
	if pattern == driver.IdentifyFlash && n > 0 {
		buf := make([]color.Color, n)
		for i := 0; i < 3; i++ {
			buf[0] = color.Color{R: 255, G: 255, B: 255}
			if _, err := d.Write(buf); err != nil {
				return err
			}
			buf[0] = color.Black
			if _, err := d.Write(buf); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range []color.Color{{R: 255}, {G: 255}, {B: 255}} {
		if err := flash(c); err != nil {
			return err
		}
	}
	_, err := d.Write(driver.AllBlack(n))
	return err
}
