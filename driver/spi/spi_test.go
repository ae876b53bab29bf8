package spi

import (
	"testing"

	"ambicore.dev/core/color"
	"ambicore.dev/core/driver/spitest"
)

func TestNRZSymbolEncodesEachBit(t *testing.T) {
	sym := nrzSymbol4[0xFF]
	for _, b := range sym {
		if b != 0xEE {
			t.Fatalf("0xFF should encode to all-1110 nibbles, got %x", sym)
		}
	}
	sym = nrzSymbol4[0x00]
	for _, b := range sym {
		if b != 0x88 {
			t.Fatalf("0x00 should encode to all-1000 nibbles, got %x", sym)
		}
	}
}

func TestEncodeNRZLength(t *testing.T) {
	out := encodeNRZ(nil, []byte{1, 2, 3})
	if len(out) != 12 {
		t.Fatalf("want 12 bytes (4 per input byte), got %d", len(out))
	}
}

func TestLPD8806EncodeForcesMSB(t *testing.T) {
	d := NewLPD8806()
	dst := make([]byte, 3)
	d.encodeLED(dst, color.Color{R: 0xFF, G: 0x00, B: 0x80})
	for _, b := range dst {
		if b&0x80 == 0 {
			t.Fatalf("lpd8806 bytes must have MSB set, got %x", dst)
		}
	}
}

func TestFramedDeviceBufferSizing(t *testing.T) {
	d := NewP9813()
	if err := d.Init(map[string]interface{}{"ledCount": 10}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	want := 4 + 10*4 + 4*(10/2+1)
	if len(d.buf) != want {
		t.Fatalf("want buffer len %d got %d", want, len(d.buf))
	}
}

func TestAPA102RasterHeaderCarriesBrightness(t *testing.T) {
	dst := make([]byte, 8)
	raster(dst, []color.Color{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}, 17)
	wantHeader := byte(0xE0 | 17)
	if dst[0] != wantHeader || dst[4] != wantHeader {
		t.Fatalf("want header byte %x on every LED, got %x and %x", wantHeader, dst[0], dst[4])
	}
	if dst[1] != 3 || dst[2] != 2 || dst[3] != 1 {
		t.Fatalf("want BGR wire order, got %v", dst[1:4])
	}
}

func TestAPA102InitClampsBrightness(t *testing.T) {
	d := NewAPA102()
	if err := d.Init(map[string]interface{}{"ledCount": 1, "brightness": 99}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if d.Brightness != apa102MaxBrightness {
		t.Fatalf("want brightness clamped to %d, got %d", apa102MaxBrightness, d.Brightness)
	}
}

func TestAPA102WritesThroughRecordedTransport(t *testing.T) {
	d := NewAPA102()
	if err := d.Init(map[string]interface{}{"ledCount": 4}); err != nil {
		t.Fatalf("init: %v", err)
	}
	rec := &spitest.Record{}
	d.SetTransport(rec)
	leds := []color.Color{{R: 255}, {G: 255}, {B: 255}, {}}
	n, err := d.Write(leds)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len(leds) {
		t.Fatalf("want %d leds written, got %d", len(leds), n)
	}
	if len(rec.Ops) != 1 {
		t.Fatalf("want 1 recorded transfer, got %d", len(rec.Ops))
	}
	if len(rec.Last()) != len(d.buf) {
		t.Fatalf("recorded frame length mismatch: want %d got %d", len(d.buf), len(rec.Last()))
	}
}

func TestWS2812WiresGRBOrder(t *testing.T) {
	d := NewWS2812()
	if err := d.Init(map[string]interface{}{"ledCount": 1}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	d.wireBuf[0], d.wireBuf[1], d.wireBuf[2] = 9, 9, 9 // sanity placeholder
	leds := []color.Color{{R: 1, G: 2, B: 3}}
	d.SetTransport(&spitest.Record{})
	if _, err := d.Write(leds); err != nil {
		t.Fatalf("write: %v", err)
	}
	if d.wireBuf[0] != 2 || d.wireBuf[1] != 1 || d.wireBuf[2] != 3 {
		t.Fatalf("expected GRB wire order, got %v", d.wireBuf[:3])
	}
}
