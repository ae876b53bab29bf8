// Package spi implements the Linux SPI character-device transport and the
// SPI-attached LED chip backends of spec §6 (apa102, apa104, hd108,
// lpd6803, lpd8806, p9813, sk6812/sk6822/sk9822, ws2801, ws2812).
//
// Grounded on host/sysfs/spi.go's devfs ioctl transport and host/fs's
// IOW()/ioc() bit-packing, reduced to exactly the subset this module
// needs: setting mode/bits/speed once at Connect time and doing
// write-only transfers via the spi_ioc_transfer struct.
package spi

// These mirror the Linux userland ioctl.h bit layout (same split the
// teacher's host/fs/ioctl.go ports); the direction/size bit widths come
// from asm-generic/ioctl.h, used on every architecture this module targets.
const (
	iocNone  uint = 0
	iocWrite uint = 1

	iocNrbits   uint = 8
	iocTypebits uint = 8
	iocSizebits uint = 14

	iocNrshift   uint = 0
	iocTypeshift      = iocNrshift + iocNrbits
	iocSizeshift      = iocTypeshift + iocTypebits
	iocDirshift       = iocSizeshift + iocSizebits
)

func ioc(dir, typ, nr, size uint) uint {
	return (dir << iocDirshift) | (typ << iocTypeshift) | (nr << iocNrshift) | (size << iocSizeshift)
}

// iow defines an ioctl with write (userland perspective) parameters,
// corresponding to _IOW in the Linux userland API.
func iow(typ, nr, size uint) uint {
	return ioc(iocWrite, typ, nr, size)
}

const spiIOCMagic uint = 'k'

var (
	spiIOCMode        = iow(spiIOCMagic, 1, 1) // SPI_IOC_WR_MODE
	spiIOCBitsPerWord = iow(spiIOCMagic, 3, 1) // SPI_IOC_WR_BITS_PER_WORD
	spiIOCMaxSpeedHz  = iow(spiIOCMagic, 4, 4) // SPI_IOC_WR_MAX_SPEED_HZ
)

// spiIOCTransfer mirrors struct spi_ioc_transfer in linux/spi/spidev.h.
type spiIOCTransfer struct {
	tx          uint64
	rx          uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNBits     uint8
	rxNBits     uint8
	pad         uint16
}
