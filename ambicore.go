// Package ambicore is a real-time ambient-lighting engine core.
//
// It contains the per-instance pipeline: Arbitrator (package arbitrator),
// Reducer (package reducer), Calibrator (package calibrator), Smoother
// (package smoother) and the Driver lifecycle (package driver and its
// driver/spi, driver/net backends), wired together by package supervisor.
//
// Package ambicore itself acts as a registry of LED device driver
// factories, the way periph.io/x/periph acts as a registry of host
// drivers: every backend registers itself in its package init() by
// calling MustRegister, and device configuration (spec §6 "device") picks
// one by name.
package ambicore // import "ambicore.dev/core"

import (
	"fmt"
	"sort"
	"sync"

	"ambicore.dev/core/driver"
)

// Factory constructs a driver.Device from an opaque device config map
// (the "device" settings document of spec §6), the same shape as
// conn/spi/spireg.Opener constructing a spi.PortCloser.
type Factory func(config map[string]interface{}) (driver.Device, error)

var (
	mu    sync.Mutex
	byKey = map[string]Factory{}
)

// Register adds f under name. It returns an error if name is already
// registered, mirroring periph.go's MustRegister panic-on-conflict but
// returning the error instead so callers in library contexts (tests that
// register fakes) can handle a conflict gracefully.
func Register(name string, f Factory) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byKey[name]; ok {
		return fmt.Errorf("ambicore: driver %q already registered", name)
	}
	byKey[name] = f
	return nil
}

// MustRegister is like Register but panics on conflict. Backends call
// this from their package init(), exactly as periph device drivers call
// periph.MustRegister().
func MustRegister(name string, f Factory) {
	if err := Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under name, or false if none.
func Lookup(name string) (Factory, bool) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := byKey[name]
	return f, ok
}

// Names returns the sorted list of registered driver names.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(byKey))
	for k := range byKey {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// unregisterAll is a test hook; it is not part of the public surface used
// by production code paths (no exported name), matching periph_test.go's
// approach of resetting package-level state between tests via an
// unexported reset helper.
func unregisterAll() {
	mu.Lock()
	byKey = map[string]Factory{}
	mu.Unlock()
}
