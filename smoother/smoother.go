package smoother

import (
	"math"
	"sync"

	"ambicore.dev/core/color"
)

// ledState is the per-LED working state carried between ticks: the spring
// models need a velocity accumulator, and the anti-flicker deadband needs
// to remember how long a pending change has been held.
type ledState struct {
	velocity    vec3
	heldSince   int64
	heldPending vec3
	hasPending  bool
}

// Smoother is the temporal interpolator of spec §4.4. One Smoother tracks
// one LED strip's worth of state; Tick(now) advances it by exactly one
// tick and returns the frame to send to the calibrated output, or false if
// nothing should be emitted this tick (suspended after the cooldown
// phase).
type Smoother struct {
	mu        sync.Mutex
	regs      *Registry
	activeID  int
	current   []vec3
	target    []vec3
	states    []ledState
	settled   bool
	cooldown  int
	lastTick  int64
}

// New creates a Smoother with n LEDs, seeded to black, using regs' id-0
// configuration as the active one.
func New(n int, regs *Registry) *Smoother {
	return &Smoother{
		regs:    regs,
		current: make([]vec3, n),
		target:  make([]vec3, n),
		states:  make([]ledState, n),
		settled: true,
	}
}

// SetActiveConfig switches the live configuration id (spec §4.4 "effect
// configs" vs the id-0 user config). Unknown ids are ignored.
func (s *Smoother) SetActiveConfig(id int) {
	if _, ok := s.regs.Get(id); !ok {
		return
	}
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
}

// SetTargets installs a new target frame. len(colors) must equal the LED
// count passed to New; a length mismatch is a caller bug and is ignored
// rather than panicking the pipeline. A frame identical to the current
// targets leaves the settled/cooldown state unchanged.
func (s *Smoother) SetTargets(colors []color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(colors) != len(s.target) {
		return
	}
	changed := false
	for i, c := range colors {
		if v := fromColor(c); v != s.target[i] {
			s.target[i] = v
			changed = true
		}
	}
	if changed {
		s.settled = false
		s.cooldown = 0
	}
}

// Resize changes the LED count, resetting all state to black.
func (s *Smoother) Resize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = make([]vec3, n)
	s.target = make([]vec3, n)
	s.states = make([]ledState, n)
	s.settled = true
	s.cooldown = 0
}

// Tick advances the smoother by one step at time now (milliseconds,
// monotonic — see the clock package) and returns the frame to output.
// ok is false when the animation has finished and the cooldown phase
// (spec's SMOOTHING_COOLDOWN_PHASE ticks of repeated output) has also
// elapsed, meaning the caller should suspend output entirely; this never
// happens when the active config has ContinuousOutput set.
func (s *Smoother) Tick(now int64) (out []color.Color, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, found := s.regs.Get(s.activeID)
	if !found {
		cfg = DefaultConfig()
	}
	if cfg.Paused {
		return s.snapshot(), true
	}

	dtMs := float64(cfg.UpdateIntervalMs)
	if s.lastTick != 0 && now > s.lastTick {
		dtMs = float64(now - s.lastTick)
	}
	s.lastTick = now

	if s.settled {
		if cfg.ContinuousOutput {
			return s.snapshot(), true
		}
		if s.cooldown < SmoothingCooldownPhase {
			s.cooldown++
			return s.snapshot(), true
		}
		return nil, false
	}

	allDone := true
	for i := range s.current {
		next, _ := s.step(i, cfg, dtMs)
		next = applyAntiFlicker(&s.states[i], s.current[i], next, s.target[i], cfg, now)
		s.current[i] = next
		if next != s.target[i] {
			allDone = false
		}
	}
	if allDone {
		s.settled = true
		s.cooldown = 0
	}
	return s.snapshot(), true
}

func (s *Smoother) step(i int, cfg Config, dtMs float64) (vec3, bool) {
	cur, target := s.current[i], s.target[i]
	switch cfg.Type {
	case ModelStepper, ModelLinear:
		return linearStep(cur, target, cfg, dtMs)
	case ModelAlternative:
		return alternativeStep(cur, target, cfg, dtMs)
	case ModelRgbInterp, ModelHybridRgb:
		next, vel, done := springStep(cur, target, s.states[i].velocity, cfg, dtMs, identitySpace, identitySpace)
		s.states[i].velocity = vel
		return next, done
	case ModelYuvInterp, ModelHybridInterp:
		next, vel, done := springStep(cur, target, s.states[i].velocity, cfg, dtMs, rgbToYUV, yuvToRGB)
		s.states[i].velocity = vel
		return next, done
	case ModelExponential:
		return exponentialStep(cur, target, cfg)
	default:
		return linearStep(cur, target, cfg, dtMs)
	}
}

func (s *Smoother) snapshot() []color.Color {
	out := make([]color.Color, len(s.current))
	for i, v := range s.current {
		out[i] = v.toColor()
	}
	return out
}

// applyAntiFlicker implements spec §4.4's anti-flicker deadband, which
// only applies to the Linear and Alternative models: while the LED's
// current level (color.Luminance) is below AntiFlickerThreshold and, when
// AntiFlickerStep is set, the largest per-channel difference to the target
// is below AntiFlickerStep, the current color is held until the change has
// been pending for AntiFlickerTimeoutMs. A change from or to black is held
// like any other.
func applyAntiFlicker(st *ledState, cur, proposed, target vec3, cfg Config, now int64) vec3 {
	if cfg.Type != ModelLinear && cfg.Type != ModelAlternative {
		return proposed
	}
	if cfg.AntiFlickerThreshold <= 0 {
		return proposed
	}
	d := sub(target, cur)
	maxDiff := math.Max(math.Abs(d.r), math.Max(math.Abs(d.g), math.Abs(d.b)))
	if cur.toColor().Luminance() >= cfg.AntiFlickerThreshold ||
		(cfg.AntiFlickerStep > 0 && maxDiff >= float64(cfg.AntiFlickerStep)) {
		st.hasPending = false
		return proposed
	}

	if !st.hasPending {
		st.hasPending = true
		st.heldSince = now
		st.heldPending = target
		return cur
	}
	if st.heldPending != target {
		st.heldSince = now
		st.heldPending = target
	}
	if now-st.heldSince >= cfg.AntiFlickerTimeoutMs {
		st.hasPending = false
		return proposed
	}
	return cur
}
