package net

import (
	"ambicore.dev/core"
	"ambicore.dev/core/driver"
)

func init() {
	ambicore.MustRegister("awa", func(map[string]interface{}) (driver.Device, error) { return NewAwa(), nil })
	ambicore.MustRegister("cololight", func(map[string]interface{}) (driver.Device, error) { return NewCololight(), nil })
	ambicore.MustRegister("lifx", func(map[string]interface{}) (driver.Device, error) { return NewLifx(), nil })
}
