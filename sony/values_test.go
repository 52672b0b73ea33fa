package sony

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hanwen/go-sonyptp/ptp"
)

func TestShutterSpeedRoundTrip(t *testing.T) {
	for _, s := range []ShutterSpeed{{1, 250}, {1, 8000}, {30, 1}, {25, 10}} {
		v, err := s.PropValue()
		if err != nil {
			t.Fatalf("PropValue(%v): %v", s, err)
		}
		got, ok := decodeShutterSpeed(uint32(v.Value))
		if !ok || got != s {
			t.Errorf("round trip %v: got %v", s, got)
		}
	}

	v, _ := ShutterSpeed{1, 250}.PropValue()
	if v.Value != 0x000100fa || v.Code != ptp.DPC_SONY_ShutterSpeed {
		t.Errorf("got %+v", v)
	}
}

func TestBulb(t *testing.T) {
	v, _ := Bulb.PropValue()
	if v.Value != 0 {
		t.Errorf("BULB encodes as %#x", v.Value)
	}
	s, ok := decodeShutterSpeed(uint32(0))
	if !ok || !s.IsBulb() {
		t.Errorf("0 decodes to %v", s)
	}
	if s.String() != "BULB" {
		t.Errorf("String: %q", s.String())
	}
}

func TestISO(t *testing.T) {
	cases := []struct {
		raw uint32
		iso ISO
	}{
		{0x00ffffff, ISO{Kind: ISOAuto}},
		{0x01ffffff, ISO{Kind: ISOMultiFrameNRAuto}},
		{0x00000064, ISO{Kind: ISONative, Value: 100}},
		{0x10000032, ISO{Kind: ISOExtended, Value: 50}},
		{0x01000c80, ISO{Kind: ISOMultiFrameNR, Value: 3200}},
	}
	for _, c := range cases {
		got, ok := decodeISO(c.raw)
		if !ok || got != c.iso {
			t.Errorf("decode %#x: got %v, want %v", c.raw, got, c.iso)
		}
		v, err := c.iso.PropValue()
		if err != nil {
			t.Fatalf("PropValue(%v): %v", c.iso, err)
		}
		if v.Value != int64(c.raw) {
			t.Errorf("encode %v: got %#x, want %#x", c.iso, v.Value, c.raw)
		}
	}

	if _, err := (ISO{Kind: "bogus"}).PropValue(); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("bogus kind: %v", err)
	}
}

func TestApertureAndCompensation(t *testing.T) {
	v, _ := Aperture(2.8).PropValue()
	if v.Value != 280 || v.Type != ptp.DTC_UINT16 {
		t.Errorf("f/2.8: %+v", v)
	}
	if a, _ := decodeAperture(uint16(560)); a != 5.6 {
		t.Errorf("560: %v", a)
	}

	v, _ = ExposureCompensation(-1.3).PropValue()
	if v.Value != -1300 {
		t.Errorf("-1.3EV: %v", v.Value)
	}
	if c, _ := decodeExposureCompensation(int16(-1300)); c != -1.3 {
		t.Errorf("-1300: %v", c)
	}
}

func TestEnumRoundTrip(t *testing.T) {
	for _, m := range []ExposureMode{ExposureManual, ExposureVideoManual, ExposureIntelligentAuto} {
		v, err := m.PropValue()
		if err != nil {
			t.Fatalf("PropValue(%s): %v", m, err)
		}
		n, ok := exposureModes.name(uint32(v.Value))
		if !ok || ExposureMode(n) != m {
			t.Errorf("round trip %s: got %q", m, n)
		}
	}

	if _, err := FocusMode("bogus").PropValue(); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("unknown focus mode: %v", err)
	}
	if _, ok := focusModes.name(uint16(0x7777)); ok {
		t.Errorf("unknown raw focus mode decoded")
	}
	if _, ok := focusModes.name("AF-S"); ok {
		t.Errorf("string decoded as focus mode")
	}
}

func TestZoomPosition(t *testing.T) {
	z, ok := zoomPosition(uint32(0x00070032))
	if !ok || z != 0.5 {
		t.Fatalf("got %v %v", z, ok)
	}
}

func TestHalves(t *testing.T) {
	hi, lo, err := splitHalves(0x0001000a)
	if err != nil {
		t.Fatalf("splitHalves: %v", err)
	}
	if hi != 1 || lo != 10 {
		t.Errorf("got %#x %#x, want 0x1 0xa", hi, lo)
	}
	v, err := joinHalves(hi, lo)
	if err != nil {
		t.Fatalf("joinHalves: %v", err)
	}
	if v != 0x0001000a {
		t.Errorf("got %#x, want 0x1000a", v)
	}
}

func TestStillCaptureModeFacets(t *testing.T) {
	if s, ok := StillTimer5.ShootMode(); !ok || s != ShootPhoto {
		t.Errorf("timer5 shoot mode %v", s)
	}
	if d := StillTimer5.TimerDuration(); d != 5 || !StillTimer5.IsSingleTimerMode() {
		t.Errorf("timer5 duration %v", d)
	}

	if sp, ok := StillContinuousHigh.ContinuousShootingSpeed(); !ok || sp != SpeedHigh {
		t.Errorf("continuous high speed %v", sp)
	}
	if k, ok := StillContinuousHigh.ContinuousShootingMode(); !ok || k != ContinuousContinuous {
		t.Errorf("continuous high mode %v", k)
	}
	if _, ok := StillSingle.ContinuousShootingSpeed(); ok {
		t.Errorf("single has a speed")
	}

	m := StillCaptureMode(0x00048337)
	b, ok := m.ContinuousBracket()
	want := Bracket{Mode: BracketExposure, Images: 3, Interval: 0.3}
	if !ok || !reflect.DeepEqual(b, want) {
		t.Fatalf("%v: got %v", m, b)
	}
	if _, ok := m.SingleBracket(); ok {
		t.Errorf("%v is a single bracket", m)
	}
	back, err := bracketMode(ShootContinuousBracket, b)
	if err != nil || back != m {
		t.Errorf("bracketMode: %v %v", back, err)
	}

	if _, ok := decodeStillCaptureMode(uint32(0x12345678)); ok {
		t.Errorf("unknown still capture mode decoded")
	}
}

func TestSelfTimerMode(t *testing.T) {
	for d, want := range map[float64]StillCaptureMode{0: StillSingle, 2: StillTimer2, 5: StillTimer5, 10: StillTimer10, 7: StillSingle} {
		if got := selfTimerMode(d); got != want {
			t.Errorf("%v: got %v, want %v", d, got, want)
		}
	}
}
