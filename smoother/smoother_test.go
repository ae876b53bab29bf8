package smoother

import (
	"testing"

	"ambicore.dev/core/color"
)

func cfgFor(t ModelType) Config {
	c := DefaultConfig()
	c.Type = t
	c.SettlingTimeMs = 100
	c.UpdateIntervalMs = 10
	return c
}

// TestLinearConverges is spec §8 scenario S4: repeated Tick calls under
// the Linear model must converge to the target without overshoot.
func TestLinearConverges(t *testing.T) {
	regs := NewRegistry(cfgFor(ModelLinear))
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 200, G: 0, B: 0}})

	var last color.Color
	for tick := int64(10); tick <= 2000; tick += 10 {
		out, ok := s.Tick(tick)
		if !ok {
			break
		}
		last = out[0]
		if last.R > 200 {
			t.Fatalf("linear model overshot: %v", last)
		}
	}
	if last.R != 200 {
		t.Fatalf("linear model did not converge, got %v", last)
	}
}

// TestLinearFirstStepMatchesSpecS4 checks the literal numbers in spec §8
// scenario S4: settling=200ms, updateInterval=40ms, current=(0,0,0),
// target=(200,0,0); first tick's k = 1-40/200 = 0.8, so the first output
// is ceil(0.8*200) = 160.
func TestLinearFirstStepMatchesSpecS4(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = ModelLinear
	cfg.SettlingTimeMs = 200
	cfg.UpdateIntervalMs = 40
	regs := NewRegistry(cfg)
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 200}})

	out, ok := s.Tick(40)
	if !ok {
		t.Fatalf("expected output on first tick")
	}
	if out[0].R != 160 {
		t.Fatalf("expected first step to be 160 per spec S4, got %d", out[0].R)
	}
}

func TestExponentialNeverFullyStalls(t *testing.T) {
	regs := NewRegistry(cfgFor(ModelExponential))
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 100}})
	out, ok := s.Tick(10)
	if !ok {
		t.Fatalf("expected output")
	}
	if out[0].R == 0 {
		t.Fatalf("expected exponential model to move on first tick")
	}
}

func TestSpringModelConverges(t *testing.T) {
	regs := NewRegistry(cfgFor(ModelRgbInterp))
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 150, G: 60, B: 10}})

	var last color.Color
	settled := false
	for tick := int64(10); tick <= 5000; tick += 10 {
		out, ok := s.Tick(tick)
		if !ok {
			settled = true
			break
		}
		last = out[0]
	}
	if !settled && last != (color.Color{R: 150, G: 60, B: 10}) {
		t.Fatalf("spring model failed to converge near target, last=%v", last)
	}
}

// TestCooldownPhaseThenSuspends verifies the smoother keeps re-emitting
// for SmoothingCooldownPhase ticks after settling, then suppresses output.
func TestCooldownPhaseThenSuspends(t *testing.T) {
	cfg := cfgFor(ModelLinear)
	cfg.SettlingTimeMs = 1000
	cfg.UpdateIntervalMs = 10
	regs := NewRegistry(cfg)
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 10}})

	tick := int64(10)
	_, ok := s.Tick(tick) // converges immediately (1 tick to settle)
	if !ok {
		t.Fatalf("expected first tick to still emit")
	}
	for i := 0; i < SmoothingCooldownPhase; i++ {
		tick += 10
		_, ok = s.Tick(tick)
		if !ok {
			t.Fatalf("expected cooldown tick %d to still emit", i)
		}
	}
	tick += 10
	_, ok = s.Tick(tick)
	if ok {
		t.Fatalf("expected smoother to suspend output after cooldown phase")
	}
}

func TestContinuousOutputNeverSuspends(t *testing.T) {
	cfg := cfgFor(ModelLinear)
	cfg.SettlingTimeMs = 10
	cfg.UpdateIntervalMs = 10
	cfg.ContinuousOutput = true
	regs := NewRegistry(cfg)
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 10}})

	tick := int64(0)
	for i := 0; i < 20; i++ {
		tick += 10
		_, ok := s.Tick(tick)
		if !ok {
			t.Fatalf("continuous output config should never suspend, failed at tick %d", i)
		}
	}
}

func TestAntiFlickerHoldsSmallChanges(t *testing.T) {
	cfg := cfgFor(ModelLinear)
	cfg.SettlingTimeMs = 1000
	cfg.UpdateIntervalMs = 10
	cfg.AntiFlickerThreshold = 50
	cfg.AntiFlickerTimeoutMs = 50
	regs := NewRegistry(cfg)
	s := New(1, regs)
	s.SetTargets([]color.Color{{R: 5}}) // small delta, below threshold

	out, _ := s.Tick(10)
	if out[0].R != 0 {
		t.Fatalf("expected anti-flicker to hold a sub-threshold change, got %v", out[0])
	}
}

func TestAntiFlickerTracksTargetAfterTimeout(t *testing.T) {
	cfg := cfgFor(ModelLinear)
	cfg.SettlingTimeMs = 1000
	cfg.UpdateIntervalMs = 10
	cfg.AntiFlickerThreshold = 20
	cfg.AntiFlickerStep = 3
	cfg.AntiFlickerTimeoutMs = 200
	regs := NewRegistry(cfg)
	s := New(1, regs)
	s.current[0] = vec3{10, 10, 10}
	s.SetTargets([]color.Color{{R: 11, G: 10, B: 12}})

	now := int64(10)
	out, _ := s.Tick(now)
	if out[0] != (color.Color{R: 10, G: 10, B: 10}) {
		t.Fatalf("expected anti-flicker to hold the tiny diff, got %v", out[0])
	}
	if s.settled {
		t.Fatalf("held change below threshold must not report settled, spec invariant 4/S5")
	}

	for now < 10+cfg.AntiFlickerTimeoutMs+cfg.UpdateIntervalMs {
		now += cfg.UpdateIntervalMs
		out, _ = s.Tick(now)
	}
	if out[0] != (color.Color{R: 11, G: 10, B: 12}) {
		t.Fatalf("expected color to reach target once AntiFlickerTimeoutMs elapsed, got %v", out[0])
	}
}

func TestAddCustomConfigDedups(t *testing.T) {
	regs := NewRegistry(DefaultConfig())
	a := Config{SettlingTimeMs: 300, UpdateIntervalMs: 25}
	id1 := regs.AddCustomConfig(a)
	id2 := regs.AddCustomConfig(a)
	if id1 != id2 {
		t.Fatalf("expected matching configs to dedup to the same id, got %d and %d", id1, id2)
	}
	if id1 < EffectConfigsStart {
		t.Fatalf("expected effect config id >= %d, got %d", EffectConfigsStart, id1)
	}
}
