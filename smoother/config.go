// Package smoother implements the temporal interpolator of spec §4.4: it
// consumes target LED-color vectors from the calibrator and emits a
// smoothed vector at a fixed tick, using one of several motion models,
// with an anti-flicker deadband for low-light regions.
//
// Grounded on the teacher's conn/gpio/gpiostream.BitStream — a fixed-rate
// buffer abstraction driven by an external clock — generalized from a bit
// stream to a color-vector stream (spec §4.4 "Tick source").
package smoother

import "time"

// ModelType selects the motion model (spec §4.4).
type ModelType int

const (
	ModelStepper ModelType = iota
	ModelLinear
	ModelAlternative
	ModelRgbInterp
	ModelYuvInterp
	ModelHybridInterp
	ModelHybridRgb
	ModelExponential
)

// SmoothingCooldownPhase is the number of extra ticks the smoother keeps
// re-emitting the final frame after the animation completes, before
// suppressing output, unless ContinuousOutput is set (spec §4.4).
const SmoothingCooldownPhase = 3

// EffectConfigsStart is the first config id reserved for effects; id 0 is
// always the user configuration (spec §4.4).
const EffectConfigsStart = 1000

// SpringParams parameterizes the critically-damped spring used by the
// RgbInterp/YuvInterp/HybridInterp/HybridRgb models.
type SpringParams struct {
	Stiffness float64
	Damping   float64
}

// Config is one named smoothing configuration (spec §3 "Smoothing
// configuration").
type Config struct {
	ID                   int
	Paused               bool
	SettlingTimeMs       int64
	UpdateIntervalMs     int64
	Type                 ModelType
	AntiFlickerThreshold int
	AntiFlickerStep      int
	AntiFlickerTimeoutMs int64
	Spring               SpringParams
	MaxLuminancePerStep  float64 // 0 disables the cap
	ContinuousOutput     bool
	ExponentialFactor    float64 // smoothingFactor for ModelExponential
}

// DefaultConfig matches common Hyperion-family defaults: 200ms settling,
// 50ms ticks, Linear model.
func DefaultConfig() Config {
	return Config{
		SettlingTimeMs:       200,
		UpdateIntervalMs:     50,
		Type:                 ModelLinear,
		AntiFlickerThreshold: 0,
		AntiFlickerStep:      0,
		AntiFlickerTimeoutMs: 200,
		Spring:               SpringParams{Stiffness: 18, Damping: 8.5},
		ExponentialFactor:    0.2,
	}
}

// Registry holds the set of named smoothing configurations for one
// instance, with id 0 reserved for the user configuration and ids
// >=EffectConfigsStart reserved for effects (spec §4.4).
type Registry struct {
	configs map[int]Config
	nextID  int
}

// NewRegistry creates a Registry seeded with cfg as id 0.
func NewRegistry(cfg Config) *Registry {
	cfg.ID = 0
	return &Registry{configs: map[int]Config{0: cfg}, nextID: EffectConfigsStart}
}

// Get returns the configuration for id, or the zero Config and false.
func (r *Registry) Get(id int) (Config, bool) {
	c, ok := r.configs[id]
	return c, ok
}

// SetUserConfig replaces id 0.
func (r *Registry) SetUserConfig(cfg Config) {
	cfg.ID = 0
	r.configs[0] = cfg
}

// AddCustomConfig returns an existing effect config id that matches cfg's
// (SettlingTimeMs, UpdateIntervalMs, Paused), or registers a new one —
// spec §4.4: "addCustomConfig returns either an existing matching id or a
// new one." Implemented as a linear scan, matching SPEC_FULL §12's note
// that the original scans rather than hashes since the registry stays
// small.
func (r *Registry) AddCustomConfig(cfg Config) int {
	for id, existing := range r.configs {
		if id < EffectConfigsStart {
			continue
		}
		if existing.SettlingTimeMs == cfg.SettlingTimeMs &&
			existing.UpdateIntervalMs == cfg.UpdateIntervalMs &&
			existing.Paused == cfg.Paused {
			return id
		}
	}
	id := r.nextID
	r.nextID++
	cfg.ID = id
	r.configs[id] = cfg
	return id
}

// UpdateInterval returns the tick period as a time.Duration.
func (c Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}
