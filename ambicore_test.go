package ambicore

import (
	"testing"

	"ambicore.dev/core/driver"
)

type fakeDevice struct{ driver.Device }

func TestRegisterLookupNames(t *testing.T) {
	defer unregisterAll()
	f := func(map[string]interface{}) (driver.Device, error) { return fakeDevice{}, nil }
	if err := Register("fake-a", f); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register("fake-b", f); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := Lookup("fake-a"); !ok {
		t.Fatalf("expected fake-a to be registered")
	}
	if _, ok := Lookup("missing"); ok {
		t.Fatalf("expected missing to be unregistered")
	}
	names := Names()
	if len(names) != 2 || names[0] != "fake-a" || names[1] != "fake-b" {
		t.Fatalf("want sorted [fake-a fake-b] got %v", names)
	}
}

func TestRegisterConflictErrors(t *testing.T) {
	defer unregisterAll()
	f := func(map[string]interface{}) (driver.Device, error) { return fakeDevice{}, nil }
	if err := Register("dup", f); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register("dup", f); err == nil {
		t.Fatalf("expected conflicting register to fail")
	}
}

func TestMustRegisterPanicsOnConflict(t *testing.T) {
	defer unregisterAll()
	f := func(map[string]interface{}) (driver.Device, error) { return fakeDevice{}, nil }
	MustRegister("dup2", f)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustRegister to panic on conflict")
		}
	}()
	MustRegister("dup2", f)
}
