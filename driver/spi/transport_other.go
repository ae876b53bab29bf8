//go:build !linux

package spi

import "errors"

const isLinux = false

var errNotLinux = errors.New("spi: SPI character-device access is only implemented on linux")

func ioctl(fd uintptr, op uint, arg uintptr) error { return errNotLinux }

func setFlag(fd uintptr, op uint, arg uint64) error { return errNotLinux }

func transfer(fd uintptr, w []byte, speedHz uint32, bitsPerWord uint8) error { return errNotLinux }
