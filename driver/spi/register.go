package spi

import (
	"ambicore.dev/core"
	"ambicore.dev/core/driver"
)

// init registers every SPI chip backend with the root factory registry
// under its device-config name (spec §6 "Driver identity").
func init() {
	ambicore.MustRegister("apa102", func(map[string]interface{}) (driver.Device, error) { return NewAPA102(), nil })
	ambicore.MustRegister("apa104", func(map[string]interface{}) (driver.Device, error) { return NewAPA104(), nil })
	ambicore.MustRegister("hd108", func(map[string]interface{}) (driver.Device, error) { return NewHD108(), nil })
	ambicore.MustRegister("lpd6803", func(map[string]interface{}) (driver.Device, error) { return NewLPD6803(), nil })
	ambicore.MustRegister("lpd8806", func(map[string]interface{}) (driver.Device, error) { return NewLPD8806(), nil })
	ambicore.MustRegister("p9813", func(map[string]interface{}) (driver.Device, error) { return NewP9813(), nil })
	ambicore.MustRegister("sk6812", func(map[string]interface{}) (driver.Device, error) { return NewSK6812(), nil })
	ambicore.MustRegister("sk6822", func(map[string]interface{}) (driver.Device, error) { return NewSK6822(), nil })
	ambicore.MustRegister("sk9822", func(map[string]interface{}) (driver.Device, error) { return NewSK9822(), nil })
	ambicore.MustRegister("ws2801", func(map[string]interface{}) (driver.Device, error) { return NewWS2801(), nil })
	ambicore.MustRegister("ws2812", func(map[string]interface{}) (driver.Device, error) { return NewWS2812(), nil })
}
