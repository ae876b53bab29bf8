// Package driver defines the uniform lifecycle/write contract over
// heterogeneous LED hardware backends (SPI chips, network-attached
// luminaires), grounded on periph.io/x/periph's devices.Display and
// conn.Conn interfaces plus the state machine implicit in
// host/sysfs/spi.go's Connect/Tx/Close sequence (spec §4.5).
package driver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ambicore.dev/core/color"
)

// State is a position in the driver state machine (spec §4.5).
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateOpen
	StateOn
	StateOff
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateOpen:
		return "open"
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Sentinel error kinds, spec §7.
var (
	ErrInvalidConfig       = errors.New("driver: invalid config")
	ErrDriverUnavailable   = errors.New("driver: unavailable")
	ErrTransientWrite      = errors.New("driver: transient write failure")
	ErrFatalShutdown       = errors.New("driver: fatal shutdown")
)

// Device is the contract every LED hardware backend implements (spec
// §4.5). Only Write is on the hot path; everything else runs at
// lifecycle-transition rate.
type Device interface {
	// Name identifies the concrete backend, e.g. "apa102", "ws2801".
	Name() string
	// LEDCount is the hardware-declared LED count; Write pads shorter
	// input vectors with black and never writes fewer than this many
	// LEDs worth of data (spec §8 invariant 5).
	LEDCount() int
	// Init validates config and prepares internal state. Does not open
	// any OS handle.
	Init(config map[string]interface{}) error
	// Open acquires the OS handle (char device, socket).
	Open() error
	// SwitchOn powers the strip on, optionally restoring saved state.
	SwitchOn() error
	// SwitchOff powers the strip off, optionally saving state or writing
	// black.
	SwitchOff() error
	// Write sends one LED vector. Returns the number of LEDs written, or
	// an error. Must not block the caller longer than the configured
	// refresh interval under normal conditions (spec §4.5).
	Write(leds []color.Color) (int, error)
	// Identify runs a short visible diagnostic pattern and ends by
	// writing black; the colors shown before the call are not restored.
	Identify(pattern IdentifyPattern) error
	// Close releases the OS handle. Safe to call more than once.
	Close() error
}

// StateSaver is optionally implemented by backends that can persist and
// restore device-local state across a SwitchOff/SwitchOn cycle (spec §4.5
// "switchOn() optionally saves device state"). No backend in this module
// implements it and Supervisor does not consult it; the backends'
// SwitchOff writes an all-black frame (lifx sends a power-off message).
type StateSaver interface {
	SaveState() error
	RestoreState() error
}

// IdentifyPattern selects the visible diagnostic pattern for Identify
// (spec §4.5 "Identify/blink").
type IdentifyPattern int

const (
	// IdentifyCycle flashes the whole strip red, then green, then blue.
	IdentifyCycle IdentifyPattern = iota
	// IdentifyFlash flashes a single LED white a few times.
	IdentifyFlash
)

// IdentifyOptions groups identify parameters. Device.Identify takes only
// a pattern; no backend reads LED or Duration.
type IdentifyOptions struct {
	Pattern  IdentifyPattern
	LED      int // which LED for IdentifyFlash
	Duration time.Duration
}

// Retry drives the init/open retry loop of spec §4.5: "On failure, the
// driver enters Error and schedules a retry every 1s up to maxRetry
// (default 60)." It is a small helper, not a goroutine owner — callers
// (Supervisor) drive it from their own event loop tick so that retries
// stay on the single instance thread (spec §5).
type Retry struct {
	Interval time.Duration
	Max      int

	mu       sync.Mutex
	attempts int
	last     time.Time
}

// DefaultRetry matches spec §4.5's defaults: 1s interval, 60 attempts.
func DefaultRetry() *Retry {
	return &Retry{Interval: time.Second, Max: 60}
}

// Due reports whether, given now, another attempt should be made. It
// returns false once Max attempts have been exhausted.
func (r *Retry) Due(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts >= r.Max {
		return false
	}
	if r.last.IsZero() {
		return true
	}
	return now.Sub(r.last) >= r.Interval
}

// Attempt records that a retry attempt was made at now.
func (r *Retry) Attempt(now time.Time) {
	r.mu.Lock()
	r.attempts++
	r.last = now
	r.mu.Unlock()
}

// Reset clears the attempt counter, called after a successful Open.
func (r *Retry) Reset() {
	r.mu.Lock()
	r.attempts = 0
	r.last = time.Time{}
	r.mu.Unlock()
}

// Exhausted reports whether Max attempts have been used up.
func (r *Retry) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts >= r.Max
}

// PadBlack returns leds extended with Color{} up to count if it is
// shorter, or leds unchanged (not truncated) otherwise — spec §8
// invariant 5: "The driver never writes a vector shorter than its
// declared LED count; if the upstream vector is shorter, it is padded
// with black."
func PadBlack(leds []color.Color, count int) []color.Color {
	if len(leds) >= count {
		return leds
	}
	out := make([]color.Color, count)
	copy(out, leds)
	return out
}

// AllBlack returns a vector of count black LEDs, used for the global
// shutdown path (spec §5 "on process termination ... emit a final
// all-black vector") and as the default SwitchOff behavior for backends
// without StateSaver.
func AllBlack(count int) []color.Color {
	return make([]color.Color, count)
}

// WrapUnavailable wraps err as a DriverUnavailable failure with context,
// the fmt.Errorf("%w: ...") idiom host/sysfs uses throughout.
func WrapUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDriverUnavailable, op, err)
}
