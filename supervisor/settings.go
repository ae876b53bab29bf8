package supervisor

import (
	"fmt"
	"time"

	"ambicore.dev/core"
	"ambicore.dev/core/calibrator"
	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
	"ambicore.dev/core/smoother"
)

// The types below are the typed shapes the opaque settings trees of spec
// §6 are decoded into upstream; ambicore never parses JSON itself (spec
// §1's front-ends are explicitly out of scope), it only consumes structs,
// the same division of labor as the teacher's devices packages taking an
// Opts struct rather than a config file.

// CalibrationEntry is one id-to-Calibration binding from the "color"
// settings document.
type CalibrationEntry struct {
	ID          int
	Calibration calibrator.Calibration
}

// ColorSettings is the "color" settings document of spec §6.
type ColorSettings struct {
	Calibrations []CalibrationEntry
}

// LedEntry is one element of the "leds" settings document's layout
// array.
type LedEntry struct {
	MinX, MaxX, MinY, MaxY float64
	Order                  string // parsed with color.ParseOrder; empty uses the device's colorOrder
	Group                  int
	Disabled               bool
	CalibrationID          int
}

// LedsSettings is the "leds" settings document of spec §6.
type LedsSettings struct {
	Layout []LedEntry
}

// DeviceSettings is the "device" settings document of spec §6: driver
// type name (as registered in the root ambicore registry), its
// device-specific parameters, and the three fields every backend shares.
type DeviceSettings struct {
	Type             string
	Params           map[string]interface{}
	HardwareLedCount int
	ColorOrder       string
	RefreshTimeMs    int
}

// SmoothingSettings is the "smoothing" settings document of spec §6,
// using the same key names named there.
type SmoothingSettings struct {
	Enable                          bool
	TimeMs                          int64
	UpdateFrequencyHz               float64
	Type                            string
	ContinuousOutput                bool
	LowLightAntiFlickeringThreshold int
	LowLightAntiFlickeringValue     int
	LowLightAntiFlickeringTimeoutMs int64
	SmoothingFactor                 float64
	Stiffness                       float64
	Damping                         float64
	YLimit                          float64
}

// ErrUnknownDriver is returned by ApplyDeviceSettings when Type names no
// registered backend.
var ErrUnknownDriver = fmt.Errorf("supervisor: %w: driver type not registered", driver.ErrInvalidConfig)

// ApplyColorSettings installs the per-id calibrations of the "color"
// settings document (spec §6), replacing or adding each entry in place.
func (s *Supervisor) ApplyColorSettings(cs ColorSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range cs.Calibrations {
		s.cal.Set(e.ID, e.Calibration)
	}
}

// ApplyLedsSettings installs a new layout from the "leds" settings
// document (spec §6), rebuilding the layout-dependent components
// (reducer's pixel map, smoother's per-LED state) to match the new LED
// count (spec §4.2 "Rebuild trigger").
func (s *Supervisor) ApplyLedsSettings(ls LedsSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layout := make(color.Layout, len(ls.Layout))
	for i, e := range ls.Layout {
		order, ok := color.ParseOrder(e.Order)
		if !ok {
			order = s.defaultOrder
		}
		layout[i] = color.LED{
			MinX: e.MinX, MaxX: e.MaxX, MinY: e.MinY, MaxY: e.MaxY,
			Order:         order,
			Group:         e.Group,
			Disabled:      e.Disabled,
			CalibrationID: e.CalibrationID,
		}
	}
	s.layout = layout
	s.ledCount = len(layout)
	s.reducer.SetLayout(layout)
	s.smooth.Resize(len(layout))
	s.arb.Resize(len(layout))
}

// ApplyDeviceSettings implements the "device" settings document of spec
// §6: it looks the driver type up in the root ambicore registry, tears
// down any previously open device, and brings the new one up through its
// Init/Open/SwitchOn lifecycle (spec §4.5), mirroring
// devices/apa102.New's constructor-does-validation idiom applied at the
// supervisor level instead of a single backend's.
func (s *Supervisor) ApplyDeviceSettings(ds DeviceSettings) error {
	factory, ok := ambicore.Lookup(ds.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, ds.Type)
	}
	dev, err := factory(ds.Params)
	if err != nil {
		return fmt.Errorf("supervisor: %s: %w", ds.Type, err)
	}

	ledCount := ds.HardwareLedCount
	if ledCount <= 0 {
		ledCount = len(s.layout)
	}
	params := map[string]interface{}{}
	for k, v := range ds.Params {
		params[k] = v
	}
	params["ledCount"] = ledCount

	if err := dev.Init(params); err != nil {
		return fmt.Errorf("supervisor: %s: init: %w", ds.Type, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := color.ParseOrder(ds.ColorOrder); ok {
		s.defaultOrder = order
	}
	if ds.RefreshTimeMs > 0 {
		s.userRefresh = time.Duration(ds.RefreshTimeMs) * time.Millisecond
	}
	if s.dev != nil {
		_ = s.dev.Close()
	}
	s.dev = dev
	s.devState = driver.StateInitialized
	s.retry.Reset()
	return s.openDeviceLocked()
}

// openDeviceLocked runs the Open/SwitchOn transition of spec §4.5's state
// machine. Callers must hold s.mu.
func (s *Supervisor) openDeviceLocked() error {
	if err := s.dev.Open(); err != nil {
		s.devState = driver.StateError
		return err
	}
	s.devState = driver.StateOpen
	if err := s.dev.SwitchOn(); err != nil {
		s.devState = driver.StateError
		return err
	}
	s.devState = driver.StateOn
	s.retry.Reset()
	return nil
}

// ApplySmoothingSettings installs a new id-0 smoothing configuration from
// the "smoothing" settings document of spec §6, translating its key
// names onto smoother.Config's fields.
func (s *Supervisor) ApplySmoothingSettings(ss SmoothingSettings) {
	cfg := smoother.DefaultConfig()
	cfg.Paused = !ss.Enable
	if ss.TimeMs > 0 {
		cfg.SettlingTimeMs = ss.TimeMs
	}
	if ss.UpdateFrequencyHz > 0 {
		cfg.UpdateIntervalMs = int64(1000.0 / ss.UpdateFrequencyHz)
	}
	cfg.Type = parseModelType(ss.Type)
	cfg.ContinuousOutput = ss.ContinuousOutput
	cfg.AntiFlickerThreshold = ss.LowLightAntiFlickeringThreshold
	cfg.AntiFlickerStep = ss.LowLightAntiFlickeringValue
	if ss.LowLightAntiFlickeringTimeoutMs > 0 {
		cfg.AntiFlickerTimeoutMs = ss.LowLightAntiFlickeringTimeoutMs
	}
	if ss.SmoothingFactor > 0 {
		cfg.ExponentialFactor = ss.SmoothingFactor
	}
	if ss.Stiffness > 0 {
		cfg.Spring.Stiffness = ss.Stiffness
	}
	if ss.Damping > 0 {
		cfg.Spring.Damping = ss.Damping
	}
	if ss.YLimit > 0 {
		cfg.MaxLuminancePerStep = ss.YLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.smoothRegs.SetUserConfig(cfg)
	s.smooth.SetActiveConfig(0)
	s.enabled[ComponentSmoothing] = ss.Enable
}

func parseModelType(name string) smoother.ModelType {
	switch name {
	case "linear":
		return smoother.ModelLinear
	case "alternative":
		return smoother.ModelAlternative
	case "rgb":
		return smoother.ModelRgbInterp
	case "yuv":
		return smoother.ModelYuvInterp
	case "hybrid":
		return smoother.ModelHybridInterp
	case "hybrid-rgb":
		return smoother.ModelHybridRgb
	case "exponential":
		return smoother.ModelExponential
	default:
		return smoother.ModelStepper
	}
}
