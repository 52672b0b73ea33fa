package sony

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hanwen/go-sonyptp/ptp"
)

func mustValue(t *testing.T, v propValuer) ptp.PropValue {
	t.Helper()
	pv, err := v.PropValue()
	if err != nil {
		t.Fatalf("PropValue(%v): %v", v, err)
	}
	return pv
}

func TestPerformInvalidPayload(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	cases := []struct {
		fn      Function
		payload interface{}
	}{
		{SetISO, "100"},
		{SetShutterSpeed, Aperture(2.8)},
		{SetSelfTimerDuration, "5"},
		{SetStillSize, StillSize{AspectRatio: "4:3", Size: "L"}},
		{SetWhiteBalance, WhiteBalance{Mode: "sunset"}},
		{SetFocusMode, FocusMode("bogus")},
		{StartZooming, "in"},
		{SetShootMode, "photo"},
		{SetSingleBracketedShootingBracket, Bracket{Mode: BracketExposure, Images: 7, Interval: 0.3}},
	}
	for _, c := range cases {
		if _, err := s.PerformFunction(ctx, c.fn, c.payload); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%s(%#v): got %v, want %v", c.fn, c.payload, err, ErrInvalidPayload)
		}
	}
	if calls := f.setCalls(); len(calls) != 0 {
		t.Errorf("invalid payloads sent %v", calls)
	}
}

func TestPerformUnsupported(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	if _, err := s.PerformFunction(ctx, ListContent, nil); !errors.Is(err, ErrNotSupported) {
		t.Errorf("ListContent: got %v", err)
	}

	var nsm *NoSuchMethodError
	if _, err := s.PerformFunction(ctx, StartRecordMode, nil); !errors.As(err, &nsm) || nsm.Method != StartRecordMode {
		t.Errorf("StartRecordMode: got %v", err)
	}
	if _, err := s.PerformFunction(ctx, Function("bogus"), nil); !errors.As(err, &nsm) {
		t.Errorf("bogus: got %v", err)
	}

	if v, err := s.PerformFunction(ctx, Ping, nil); v != nil || err != nil {
		t.Errorf("Ping: got %v, %v", v, err)
	}
	if calls := f.setCalls(); len(calls) != 0 {
		t.Errorf("sent %v", calls)
	}
}

func TestPerformSet(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	iso := ISO{Kind: ISONative, Value: 400}
	if _, err := s.PerformFunction(ctx, SetISO, iso); err != nil {
		t.Fatalf("SetISO: %v", err)
	}
	if _, err := s.PerformFunction(ctx, SetSelfTimerDuration, 5); err != nil {
		t.Fatalf("SetSelfTimerDuration: %v", err)
	}
	b := Bracket{Mode: BracketExposure, Images: 3, Interval: 0.3}
	if _, err := s.PerformFunction(ctx, SetContinuousBracketedShootingBracket, b); err != nil {
		t.Fatalf("SetContinuousBracketedShootingBracket: %v", err)
	}

	want := []setCall{
		{mustValue(t, iso), false},
		{mustValue(t, StillTimer5), false},
		{mustValue(t, StillCaptureMode(0x00048337)), false},
	}
	if got := f.setCalls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPerformSetStillSize(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	if _, err := s.PerformFunction(context.Background(), SetStillSize, StillSize{AspectRatio: "16:9", Size: "L"}); err != nil {
		t.Fatalf("SetStillSize: %v", err)
	}
	want := []setCall{
		{ptp.PropValue{Code: ptp.DPC_SONY_ImageSize, Type: ptp.DTC_UINT8, Value: 1}, false},
		{ptp.PropValue{Code: ptp.DPC_SONY_AspectRatio, Type: ptp.DTC_UINT8, Value: 2}, false},
	}
	if got := f.setCalls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPerformSetWhiteBalance(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	if _, err := s.PerformFunction(context.Background(), SetWhiteBalance, WhiteBalance{Mode: WhiteBalanceColorTemp, Temperature: intPtr(5600)}); err != nil {
		t.Fatalf("SetWhiteBalance: %v", err)
	}
	want := []setCall{
		{ptp.PropValue{Code: ptp.DPC_WhiteBalance, Type: ptp.DTC_UINT16, Value: 0x8012}, false},
		{ptp.PropValue{Code: ptp.DPC_SONY_ColorTemp, Type: ptp.DTC_UINT16, Value: 5600}, false},
	}
	if got := f.setCalls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPerformExposureSettingsLock(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	if _, err := s.PerformFunction(context.Background(), SetExposureSettingsLock, nil); err != nil {
		t.Fatalf("SetExposureSettingsLock: %v", err)
	}
	want := []setCall{
		{shutterValue(ptp.DPC_SONY_ExposureSettingsLock, buttonUp), true},
		{shutterValue(ptp.DPC_SONY_ExposureSettingsLock, buttonDown), true},
	}
	if got := f.setCalls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPerformTakePicture(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1))
	f.setProp(plainProp(ptp.DPC_SONY_ObjectInMemory, uint16(0x8001)))

	v, err := s.PerformFunction(context.Background(), TakePicture, nil)
	if err != nil {
		t.Fatalf("TakePicture: %v", err)
	}
	if id, ok := v.(uint32); !ok || id != inMemoryHandle {
		t.Errorf("got %#v", v)
	}
}

func TestPerformGet(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	f.setProp(enumProp(ptp.DPC_SONY_ISO, uint32(400), values(uint32(400)), values(uint32(400))))
	f.setProp(enumProp(ptp.DPC_ExposureBiasCompensation, int16(-700), values(int16(-700)), values(int16(-700))))

	v, err := s.PerformFunction(ctx, GetISO, nil)
	if err != nil {
		t.Fatalf("GetISO: %v", err)
	}
	if want := (ISO{Kind: ISONative, Value: 400}); v != want {
		t.Errorf("GetISO: got %v, want %v", v, want)
	}

	v, err = s.PerformFunction(ctx, GetExposureCompensation, nil)
	if err != nil {
		t.Fatalf("GetExposureCompensation: %v", err)
	}
	if v != ExposureCompensation(-0.7) {
		t.Errorf("GetExposureCompensation: got %v", v)
	}

	if _, err := s.PerformFunction(ctx, GetFocusMode, nil); !errors.Is(err, ErrPropCodeNotFound) {
		t.Errorf("GetFocusMode: got %v, want %v", err, ErrPropCodeNotFound)
	}

	f.setProp(enumProp(ptp.DPC_FocusMode, uint16(0x7777), values(uint16(1)), values(uint16(1))))
	if _, err := s.PerformFunction(ctx, GetFocusMode, nil); !errors.Is(err, ErrPropCodeNotFound) {
		t.Errorf("GetFocusMode undecodable: got %v, want %v", err, ErrPropCodeNotFound)
	}
}

func TestPerformHighFrameRate(t *testing.T) {
	lockValues := values(uint8(3), uint8(4), uint8(5))
	lock := func(v uint8) ptp.SonyDevicePropDesc {
		return enumProp(ptp.DPC_SONY_ExposureSettingsLockStatus, v, lockValues, lockValues)
	}
	f := newFakeTransport()
	s := connectedSession(t, f, lock(3), exposureProp(rawHighFrameRatePrg, rawHighFrameRatePrg))
	f.batches = [][]ptp.SonyDevicePropDesc{{lock(5)}, {lock(3)}}

	v, err := s.PerformFunction(context.Background(), RecordHighFrameRateCapture, nil)
	if err != nil {
		t.Fatalf("RecordHighFrameRateCapture: %v", err)
	}
	updates, ok := v.(<-chan HighFrameRateUpdate)
	if !ok {
		t.Fatalf("got %T", v)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.Event(); err != nil {
			t.Fatalf("Event: %v", err)
		}
	}

	var got []HighFrameRateStatus
	for u := range updates {
		if u.Err != nil {
			t.Fatalf("update: %v", u.Err)
		}
		got = append(got, u.Status)
	}
	want := []HighFrameRateStatus{HighFrameRateBuffering, HighFrameRateRecording, HighFrameRateIdle}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPerformHighFrameRateEventError(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	v, err := s.PerformFunction(context.Background(), RecordHighFrameRateCapture, nil)
	if err != nil {
		t.Fatalf("RecordHighFrameRateCapture: %v", err)
	}
	updates := v.(<-chan HighFrameRateUpdate)

	want := errors.New("connection reset")
	f.mu.Lock()
	f.allErr = want
	f.mu.Unlock()
	if _, err := s.Event(); err != want {
		t.Fatalf("Event: got %v, want %v", err, want)
	}

	var last HighFrameRateUpdate
	for u := range updates {
		last = u
	}
	if last.Err != want {
		t.Errorf("last update %+v", last)
	}
}

func TestZooming(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	for _, d := range []ZoomDirection{ZoomIn, ZoomIn, ZoomOut} {
		if _, err := s.PerformFunction(ctx, StartZooming, d); err != nil {
			t.Fatalf("StartZooming(%s): %v", d, err)
		}
	}
	if _, err := s.PerformFunction(ctx, StopZooming, nil); err != nil {
		t.Fatalf("StopZooming: %v", err)
	}
	if _, err := s.PerformFunction(ctx, StartZooming, ZoomIn); err != nil {
		t.Fatalf("StartZooming: %v", err)
	}

	zoom := func(v int64) setCall {
		return setCall{ptp.PropValue{Code: ptp.DPC_SONY_PerformZoom, Type: ptp.DTC_UINT8, Value: v}, true}
	}
	want := []setCall{zoom(0x01), zoom(0xff), zoom(0x01)}
	if got := f.setCalls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if want := []uint16{ptp.DPC_SONY_PerformZoom, ptp.DPC_SONY_PerformZoom}; !reflect.DeepEqual(f.released, want) {
		t.Errorf("released %x, want %x", f.released, want)
	}
}

func TestZoomingReverseStopsFirst(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)

	var order []string
	f.onSet = func(v ptp.PropValue, bankB bool) {
		if v.Code == ptp.DPC_SONY_PerformZoom {
			f.mu.Lock()
			order = append(order, fmt.Sprintf("set %d released %d", v.Value, len(f.released)))
			f.mu.Unlock()
		}
	}
	if err := s.startZooming(ZoomIn); err != nil {
		t.Fatalf("startZooming(in): %v", err)
	}
	if err := s.startZooming(ZoomOut); err != nil {
		t.Fatalf("startZooming(out): %v", err)
	}
	want := []string{"set 1 released 0", "set 255 released 1"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("got %v, want %v", order, want)
	}
}

func TestZoomingRetriesFailedWrite(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	busy := &CommandFailedError{Code: ptp.RCError(ptp.RC_DeviceBusy)}

	f.mu.Lock()
	f.setErrs[ptp.DPC_SONY_PerformZoom] = busy
	f.mu.Unlock()
	if err := s.startZooming(ZoomIn); err != busy {
		t.Fatalf("got %v, want %v", err, busy)
	}

	f.mu.Lock()
	delete(f.setErrs, ptp.DPC_SONY_PerformZoom)
	f.mu.Unlock()
	if err := s.startZooming(ZoomIn); err != nil {
		t.Fatalf("startZooming: %v", err)
	}
	if got := len(f.setCalls()); got != 2 {
		t.Errorf("got %d zoom writes, want 2", got)
	}
	if len(f.released) != 0 {
		t.Errorf("released %x after a failed start", f.released)
	}
}

func TestLiveViewURL(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	ctx := context.Background()

	v, err := s.PerformFunction(ctx, StartLiveView, nil)
	if err != nil || v != "http://camera/liveview" {
		t.Errorf("fallback: got %v, %v", v, err)
	}

	f.setProp(plainProp(ptp.DPC_SONY_LiveViewURL, "http://192.168.1.1/lv"))
	v, err = s.PerformFunction(ctx, StartLiveViewWithQuality, LiveViewQuality("imageQuality"))
	if err != nil || v != "http://192.168.1.1/lv" {
		t.Errorf("reported: got %v, %v", v, err)
	}
}
