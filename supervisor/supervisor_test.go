package supervisor

import (
	"testing"

	"ambicore.dev/core"
	"ambicore.dev/core/arbitrator"
	"ambicore.dev/core/clock"
	"ambicore.dev/core/color"
	"ambicore.dev/core/driver"
)

// fakeDevice is a minimal driver.Device used only to exercise Supervisor's
// wiring without a real SPI/UDP backend, in the spirit of
// driver/spitest.Record but implementing the full lifecycle surface.
type fakeDevice struct {
	n       int
	writes  [][]color.Color
	failOpen bool
	failWrite bool
}

func (f *fakeDevice) Name() string  { return "fake" }
func (f *fakeDevice) LEDCount() int { return f.n }
func (f *fakeDevice) Init(config map[string]interface{}) error {
	n, _ := config["ledCount"].(int)
	f.n = n
	return nil
}
func (f *fakeDevice) Open() error {
	if f.failOpen {
		return driver.WrapUnavailable("fake open", errOpen)
	}
	return nil
}
func (f *fakeDevice) SwitchOn() error  { return nil }
func (f *fakeDevice) SwitchOff() error { return nil }
func (f *fakeDevice) Write(leds []color.Color) (int, error) {
	if f.failWrite {
		return 0, driver.WrapUnavailable("fake write", errOpen)
	}
	cp := append([]color.Color(nil), leds...)
	f.writes = append(f.writes, cp)
	return len(leds), nil
}
func (f *fakeDevice) Identify(driver.IdentifyPattern) error { return nil }
func (f *fakeDevice) Close() error                          { return nil }

var errOpen = fakeErr("simulated failure")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func registerFake(t *testing.T) *fakeDevice {
	t.Helper()
	d := &fakeDevice{}
	name := "fake-" + t.Name()
	if err := ambicore.Register(name, func(map[string]interface{}) (driver.Device, error) { return d, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	return d
}

func withFakeClock(t *testing.T, start int64) func(delta int64) {
	t.Helper()
	now := start
	clock.Set(func() int64 { return now })
	t.Cleanup(func() { clock.Set(nil) })
	return func(delta int64) { now += delta }
}

func TestSupervisorSetColorReachesDriver(t *testing.T) {
	d := registerFake(t)
	s := New(3)
	if err := s.ApplyDeviceSettings(DeviceSettings{Type: "fake-" + t.Name(), HardwareLedCount: 3}); err != nil {
		t.Fatalf("apply device: %v", err)
	}
	s.SetComponentEnabled(ComponentSmoothing, false)

	if err := s.SetColor(10, []color.Color{{R: 1, G: 2, B: 3}}, -1, "test", "unit"); err != nil {
		t.Fatalf("setcolor: %v", err)
	}
	if err := s.Tick(1000); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(d.writes) != 1 {
		t.Fatalf("want 1 write, got %d", len(d.writes))
	}
	for _, c := range d.writes[0] {
		if c != (color.Color{R: 1, G: 2, B: 3}) {
			t.Fatalf("want tiled color at every LED, got %v", d.writes[0])
		}
	}
}

func TestSupervisorAppliesLayoutOrder(t *testing.T) {
	d := registerFake(t)
	s := New(2)
	if err := s.ApplyDeviceSettings(DeviceSettings{Type: "fake-" + t.Name(), HardwareLedCount: 2}); err != nil {
		t.Fatalf("apply device: %v", err)
	}
	s.SetComponentEnabled(ComponentSmoothing, false)
	s.ApplyLedsSettings(LedsSettings{Layout: []LedEntry{
		{MinX: 0, MaxX: 0.5, MinY: 0, MaxY: 1, Order: "bgr"},
		{MinX: 0.5, MaxX: 1, MinY: 0, MaxY: 1, Order: "grb"},
	}})

	if err := s.SetColor(10, []color.Color{{R: 1, G: 2, B: 3}}, -1, "test", "unit"); err != nil {
		t.Fatalf("setcolor: %v", err)
	}
	if err := s.Tick(1000); err != nil {
		t.Fatalf("tick: %v", err)
	}
	frame := d.writes[0]
	if frame[0] != (color.Color{R: 3, G: 2, B: 1}) {
		t.Fatalf("want bgr-permuted at LED 0, got %v", frame[0])
	}
	if frame[1] != (color.Color{R: 2, G: 1, B: 3}) {
		t.Fatalf("want grb-permuted at LED 1, got %v", frame[1])
	}
}

func TestSupervisorDisabledLedDeviceSuppressesWrites(t *testing.T) {
	d := registerFake(t)
	s := New(1)
	if err := s.ApplyDeviceSettings(DeviceSettings{Type: "fake-" + t.Name(), HardwareLedCount: 1}); err != nil {
		t.Fatalf("apply device: %v", err)
	}
	s.SetComponentEnabled(ComponentSmoothing, false)
	s.SetComponentEnabled(ComponentLedDevice, false)

	_ = s.SetColor(10, []color.Color{{R: 9}}, -1, "test", "unit")
	if err := s.Tick(1000); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(d.writes) != 0 {
		t.Fatalf("want no writes while LEDDEVICE disabled, got %d", len(d.writes))
	}
}

func TestSupervisorDriverErrorRetries(t *testing.T) {
	advance := withFakeClock(t, 0)
	d := registerFake(t)
	d.failWrite = true
	s := New(1)
	if err := s.ApplyDeviceSettings(DeviceSettings{Type: "fake-" + t.Name(), HardwareLedCount: 1}); err != nil {
		t.Fatalf("apply device: %v", err)
	}
	s.SetComponentEnabled(ComponentSmoothing, false)
	_ = s.SetColor(10, []color.Color{{R: 9}}, -1, "test", "unit")

	if err := s.Tick(clock.Now()); err == nil {
		t.Fatalf("expected write failure to surface")
	}
	if s.DeviceState() != driver.StateError {
		t.Fatalf("want StateError after failed write, got %v", s.DeviceState())
	}

	advance(1500)
	d.failWrite = false
	if err := s.Tick(clock.Now()); err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if s.DeviceState() != driver.StateOn {
		t.Fatalf("want StateOn after recovery, got %v", s.DeviceState())
	}
}

func TestSupervisorFacadeQueries(t *testing.T) {
	s := New(2)
	if err := s.RegisterInput(20, arbitrator.KindColor, "test", "unit", 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.SetColor(20, []color.Color{{B: 9}}, -1, "test", "unit"); err != nil {
		t.Fatalf("setcolor: %v", err)
	}
	info, ok := s.GetPriorityInfo(20)
	if !ok || !info.HasData {
		t.Fatalf("want priority 20 registered with data, got %+v ok=%v", info, ok)
	}
	if got := s.GetCurrentPriority(); got != 20 {
		t.Fatalf("want priority 20 visible, got %d", got)
	}
	found := false
	for _, p := range s.GetActivePriorities() {
		if p == 20 {
			found = true
		}
	}
	if !found {
		t.Fatalf("want 20 among active priorities")
	}
}

func TestSupervisorSetEffectUnsupported(t *testing.T) {
	s := New(1)
	if err := s.SetEffect(0, "rainbow", nil, -1); err != ErrEffectsNotSupported {
		t.Fatalf("want ErrEffectsNotSupported, got %v", err)
	}
}

func TestSupervisorComponentToggleAllFansOut(t *testing.T) {
	s := New(1)
	s.SetComponentEnabled(ComponentAll, false)
	for k, v := range s.GetAllComponents() {
		if v {
			t.Fatalf("want every component disabled, %v still enabled", k)
		}
	}
}
