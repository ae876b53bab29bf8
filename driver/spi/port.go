package spi

import (
	"fmt"
	"os"
	"sync"
)

// Transport is the minimal surface every chip backend needs from its SPI
// connection; *Port satisfies it for real hardware, and driver/spitest's
// Record/Playback fakes satisfy it for tests.
type Transport interface {
	Write([]byte) (int, error)
	Close() error
}

// Mode mirrors spi.Mode from conn/spi: the four SPI clock polarity/phase
// combinations. LED strips almost always run Mode0 or Mode3.
type Mode int

const (
	Mode0 Mode = iota
	Mode1
	Mode2
	Mode3
)

// Port is an open Linux SPI character device (/dev/spidevB.C), opened once
// and configured for one speed/word size/mode combination. Grounded on
// host/sysfs/spi.go's SPI type and its Connect-once invariant.
type Port struct {
	mu          sync.Mutex
	f           *os.File
	name        string
	speedHz     uint32
	bitsPerWord uint8
	mode        Mode
	connected   bool
}

// Open opens /dev/spidev<bus>.<chipSelect>. The returned Port must be
// configured with Connect before any Write.
func Open(bus, chipSelect int) (*Port, error) {
	name := fmt.Sprintf("/dev/spidev%d.%d", bus, chipSelect)
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("spi: open %s: %w", name, err)
	}
	return &Port{f: f, name: name}, nil
}

// Connect sets the clock speed, mode and word size for every subsequent
// Write; it may only be called once per Port. Backends open and connect
// their port in Open and keep it until Close.
func (p *Port) Connect(speedHz uint32, mode Mode, bitsPerWord uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return fmt.Errorf("spi: %s: Connect called more than once", p.name)
	}
	if err := setFlag(p.f.Fd(), spiIOCMode, uint64(mode)); err != nil {
		return fmt.Errorf("spi: %s: set mode: %w", p.name, err)
	}
	if err := setFlag(p.f.Fd(), spiIOCBitsPerWord, uint64(bitsPerWord)); err != nil {
		return fmt.Errorf("spi: %s: set word size: %w", p.name, err)
	}
	if err := setFlag(p.f.Fd(), spiIOCMaxSpeedHz, uint64(speedHz)); err != nil {
		return fmt.Errorf("spi: %s: set speed: %w", p.name, err)
	}
	p.speedHz, p.bitsPerWord, p.mode, p.connected = speedHz, bitsPerWord, mode, true
	return nil
}

// Write implements io.Writer by transferring the whole buffer in one SPI
// transaction.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return 0, fmt.Errorf("spi: %s: Write before Connect", p.name)
	}
	if err := transfer(p.f.Fd(), b, p.speedHz, p.bitsPerWord); err != nil {
		return 0, fmt.Errorf("spi: %s: transfer: %w", p.name, err)
	}
	return len(b), nil
}

// Close closes the underlying device file. Not required before process
// exit.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.f.Close()
}

func (p *Port) String() string { return p.name }
