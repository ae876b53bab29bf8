// Package supervisor wires one each of the pipeline components (spec
// §4.6) into a single instance: Arbitrator selects the visible priority,
// Reducer turns an image into per-LED colors, Calibrator adjusts each
// color, Smoother paces the transition, and a driver.Device backend
// (looked up by name in the root ambicore registry) puts bytes on the
// wire. Tick drives one pass of that pipeline; everything else is
// configuration plumbing reacting to the settings documents of spec §6.
//
// Grounded on periph.Init()'s "initialize everything once, return cached
// state" shape: Supervisor is the single place that owns the registry
// lookup and the component instances, the way periph.Init() is the
// single place that walks host drivers and builds the process-wide
// state.
package supervisor

import (
	"fmt"
	"sync"
	"time"

	"ambicore.dev/core/arbitrator"
	"ambicore.dev/core/calibrator"
	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
	_ "ambicore.dev/core/driver/net"
	_ "ambicore.dev/core/driver/spi"
	"ambicore.dev/core/reducer"
	"ambicore.dev/core/smoother"
)

// ErrEffectsNotSupported is returned by SetEffect: the effect scripting
// engine itself is an explicit non-goal (spec §1), only the facade entry
// point that would delegate to it is kept (spec §4.6).
var ErrEffectsNotSupported = fmt.Errorf("supervisor: effects subsystem not built")

// Supervisor owns one instance's full pipeline. The zero value is not
// usable; use New.
type Supervisor struct {
	mu sync.Mutex

	ledCount int
	layout   color.Layout

	arb      *arbitrator.Arbitrator
	reducer  *reducer.Reducer
	cal      *calibrator.Calibrator
	smooth   *smoother.Smoother
	smoothRegs *smoother.Registry

	dev      driver.Device
	devState driver.State
	retry    *driver.Retry

	enabled map[ComponentKind]bool

	defaultOrder color.Order
	userRefresh  time.Duration
	lastWriteMs  int64
	lastFrame    []color.Color
}

// New creates a Supervisor for a layout of ledCount LEDs, with every
// component wired and every toggleable subsystem enabled by default
// (spec §6's getAllComponents starts "all on").
func New(ledCount int) *Supervisor {
	s := &Supervisor{
		ledCount:   ledCount,
		layout:     make(color.Layout, ledCount),
		reducer:    reducer.New(make(color.Layout, ledCount), reducer.PolicyMean, false),
		cal:        calibrator.New(nil),
		smoothRegs: smoother.NewRegistry(smoother.DefaultConfig()),
		retry:      driver.DefaultRetry(),
		enabled:    map[ComponentKind]bool{},
		devState:   driver.StateUninitialized,
	}
	s.smooth = smoother.New(ledCount, s.smoothRegs)
	s.arb = arbitrator.New(ledCount, nil)
	for _, k := range allComponents {
		s.enabled[k] = true
	}
	return s
}

// SetColor implements spec §6's setColor(priority, colors, timeoutMs,
// origin) facade entry, extended with an owner tag for getPriorityInfo.
func (s *Supervisor) SetColor(priority uint8, colors []color.Color, timeoutMs int64, origin, owner string) error {
	return s.arb.SetColor(priority, colors, timeoutMs, origin, owner)
}

// SetImage implements spec §6's setImage(priority, image, timeoutMs).
func (s *Supervisor) SetImage(priority uint8, img *color.Image, timeoutMs int64) error {
	return s.arb.SetImage(priority, img, timeoutMs)
}

// SetEffect is the facade entry spec §4.6 names as "delegated to effect
// subsystem"; that subsystem is out of scope (spec §1, SPEC_FULL §12),
// so this always fails with ErrEffectsNotSupported.
func (s *Supervisor) SetEffect(priority uint8, name string, args map[string]interface{}, timeoutMs int64) error {
	return ErrEffectsNotSupported
}

// Clear implements spec §6's clear(priority).
func (s *Supervisor) Clear(priority uint8) {
	s.arb.Clear(priority)
}

// ClearAll implements spec §6's clear(all), respecting the protected
// effect priority band unless forceClearAll is set (spec §9 "Priority
// namespace policy").
func (s *Supervisor) ClearAll(forceClearAll bool) {
	s.arb.ClearAll(forceClearAll)
}

// RegisterInput implements spec §4.1's register(priority, ...) used
// ahead of a SetImage call.
func (s *Supervisor) RegisterInput(priority uint8, kind arbitrator.Kind, origin, owner string, smoothingConfigID int) error {
	return s.arb.Register(priority, kind, origin, owner, smoothingConfigID)
}

// SetVisiblePriority implements spec §6's setVisiblePriority(p).
func (s *Supervisor) SetVisiblePriority(p uint8) {
	s.arb.SetVisiblePriority(p)
}

// ClearVisiblePriority reverts a prior SetVisiblePriority, returning to
// automatic selection.
func (s *Supervisor) ClearVisiblePriority() {
	s.arb.ClearForcedVisible()
}

// SetAutoSelect implements spec §6's setAutoSelect(bool).
func (s *Supervisor) SetAutoSelect(auto bool) {
	s.arb.SetAutoSelect(auto)
}

// GetActivePriorities implements spec §6's getActivePriorities query.
func (s *Supervisor) GetActivePriorities() []uint8 {
	return s.arb.ActivePriorities()
}

// GetPriorityInfo implements spec §6's getPriorityInfo(p) query.
func (s *Supervisor) GetPriorityInfo(p uint8) (arbitrator.PriorityInfo, bool) {
	return s.arb.Info(p)
}

// GetCurrentPriority implements spec §6's getCurrentPriority query.
func (s *Supervisor) GetCurrentPriority() uint8 {
	return s.arb.CurrentPriority()
}

// DeviceState reports the driver's current lifecycle state (spec
// §4.5's state machine).
func (s *Supervisor) DeviceState() driver.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devState
}

// Tick drives exactly one pass of the pipeline at time now (monotonic
// milliseconds, see package clock): it reads the arbitrator's visible
// entry, reduces an image to colors if one is selected, calibrates every
// LED, paces the result through the smoother if enabled, and writes to
// the driver subject to the refresh-interval policy of spec §4.5. A
// driver in Error retries at most once per call, per the Retry budget
// (spec §4.5 "retry every 1s up to maxRetry").
func (s *Supervisor) Tick(now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return nil
	}
	if s.devState == driver.StateError {
		t := time.UnixMilli(now)
		if !s.retry.Due(t) {
			return nil
		}
		s.retry.Attempt(t)
		if err := s.openDeviceLocked(); err != nil {
			return err
		}
	}

	_, _, colors, img := s.arb.Visible()
	if img != nil && s.enabled[ComponentImage] {
		colors = s.reducer.Reduce(img)
	}
	if colors == nil {
		colors = make([]color.Color, s.ledCount)
	}

	frame := make([]color.Color, len(colors))
	for i, c := range colors {
		calID, order := 0, s.defaultOrder
		if i < len(s.layout) {
			calID = s.layout[i].CalibrationID
			order = s.layout[i].Order
		}
		frame[i] = s.cal.Apply(c, calID, order)
	}

	if s.enabled[ComponentSmoothing] {
		s.smooth.SetTargets(frame)
		out, ok := s.smooth.Tick(now)
		if !ok {
			return nil
		}
		frame = out
	}

	if !s.enabled[ComponentLedDevice] {
		return nil
	}

	interval := s.effectiveIntervalLocked()
	if interval > 0 && s.lastWriteMs != 0 && now-s.lastWriteMs < interval.Milliseconds() && !frameChanged(s.lastFrame, frame) {
		return nil
	}

	if _, err := s.dev.Write(frame); err != nil {
		s.devState = driver.StateError
		return err
	}
	s.lastWriteMs = now
	s.lastFrame = frame
	return nil
}

// effectiveIntervalLocked resolves spec §4.5's pacing precedence: device
// forced interval (hardware minimum, if the backend implements
// RefreshIntervaler) beats the smoother's tick interval, which beats the
// user-configured refresh time. Callers must hold s.mu.
func (s *Supervisor) effectiveIntervalLocked() time.Duration {
	if ri, ok := s.dev.(RefreshIntervaler); ok {
		if d := ri.RefreshInterval(); d > 0 {
			return d
		}
	}
	if s.enabled[ComponentSmoothing] {
		if cfg, ok := s.smoothRegs.Get(0); ok && !cfg.Paused {
			return cfg.UpdateInterval()
		}
	}
	return s.userRefresh
}

// RefreshIntervaler is optionally implemented by a driver.Device whose
// hardware imposes a minimum refresh cadence (spec §4.5 "device-forced
// interval"); none of the backends built here need more than their
// natural write latency, so none implement it yet.
type RefreshIntervaler interface {
	RefreshInterval() time.Duration
}

func frameChanged(prev, next []color.Color) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if prev[i] != next[i] {
			return true
		}
	}
	return false
}

// Shutdown implements spec §5's "on process termination, emit a final
// all-black vector" and releases the driver's OS handle.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	_, werr := s.dev.Write(driver.AllBlack(s.dev.LEDCount()))
	cerr := s.dev.Close()
	s.devState = driver.StateClosed
	if werr != nil {
		return werr
	}
	return cerr
}
