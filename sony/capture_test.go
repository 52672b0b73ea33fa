package sony

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hanwen/go-sonyptp/ptp"
)

func shutterCalls(f *fakeTransport) []setCall {
	var l []setCall
	for _, c := range f.setCalls() {
		if c.Value.Code == ptp.DPC_SONY_AutoFocus || c.Value.Code == ptp.DPC_SONY_Capture {
			l = append(l, c)
		}
	}
	return l
}

func TestTakePictureWithEvents(t *testing.T) {
	f := newFakeTransport()
	var s *Session
	f.onSet = func(v ptp.PropValue, bankB bool) {
		if v.Code != ptp.DPC_SONY_Capture {
			return
		}
		switch v.Value {
		case buttonDown:
			f.events <- ptp.Container{Code: ptp.EC_SONY_PropertyChanged, Param: []uint32{ptp.DPC_SONY_FocusFound}}
			waitFor(t, "focus event", func() bool {
				pkt := s.eventPacket()
				return pkt != nil && pkt.Code == ptp.EC_SONY_PropertyChanged
			})
		case buttonUp:
			f.events <- ptp.Container{Code: ptp.EC_SONY_ObjectAdded, Param: []uint32{42}}
			waitFor(t, "object event", func() bool {
				pkt := s.eventPacket()
				return pkt != nil && pkt.Code == ptp.EC_SONY_ObjectAdded
			})
		}
	}
	s = connectedSession(t, f, focusProp(2), stillModeProp(StillSingle, StillSingle))

	id, err := s.takePicture(context.Background())
	if err != nil {
		t.Fatalf("takePicture: %v", err)
	}
	if id != 42 {
		t.Errorf("got object %#x, want 42", id)
	}
	if f.fetchedCode(ptp.DPC_SONY_ObjectInMemory) {
		t.Errorf("object in memory polled although the camera reported the object")
	}
	if s.isAwaitingObject.Load() {
		t.Errorf("still awaiting object")
	}

	want := []setCall{
		{shutterValue(ptp.DPC_SONY_AutoFocus, buttonDown), true},
		{shutterValue(ptp.DPC_SONY_Capture, buttonDown), true},
		{shutterValue(ptp.DPC_SONY_Capture, buttonUp), true},
		{shutterValue(ptp.DPC_SONY_AutoFocus, buttonUp), true},
	}
	if got := shutterCalls(f); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTakePictureTimeout(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1), stillModeProp(StillSingle, StillSingle))

	_, err := s.takePicture(context.Background())
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("got %v, want %v", err, ErrObjectNotFound)
	}
	if !f.fetchedCode(ptp.DPC_SONY_ObjectInMemory) {
		t.Errorf("object in memory never polled")
	}
	if f.fetchedCode(ptp.DPC_FocusMode) {
		t.Errorf("focus mode fetched although the last event has it")
	}
}

func TestTakePictureObjectInMemory(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1))
	f.setProp(plainProp(ptp.DPC_SONY_ObjectInMemory, uint16(0x8001)))

	id, err := s.takePicture(context.Background())
	if err != nil {
		t.Fatalf("takePicture: %v", err)
	}
	if id != inMemoryHandle {
		t.Errorf("got %#x, want %#x", id, inMemoryHandle)
	}
}

func TestTakePictureDownloadsFromMemory(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1), stillModeProp(StillSingle, StillSingle))
	f.objects[inMemoryHandle] = &ptp.ObjectInfo{Filename: "DSC00001.JPG", CompressedSize: 5}
	f.objectData[inMemoryHandle] = []byte("hello")
	f.objects[12] = &ptp.ObjectInfo{Filename: "DSC00012.JPG", CompressedSize: 5}
	f.objectData[12] = []byte("hello")
	f.setProp(plainProp(ptp.DPC_SONY_ObjectInMemory, uint16(0x8000)))
	f.onPartial = func(uint32) {
		f.setProp(plainProp(ptp.DPC_SONY_ObjectInMemory, uint16(0)))
	}

	id, err := s.takePicture(context.Background())
	if err != nil {
		t.Fatalf("takePicture: %v", err)
	}
	if id != inMemoryHandle {
		t.Fatalf("got %#x, want %#x", id, inMemoryHandle)
	}
	waitFor(t, "download", s.hasURLs)

	// The camera announces the same image after it was fetched.
	f.events <- ptp.Container{Code: ptp.EC_SONY_ObjectAdded, Param: []uint32{12}}
	waitFor(t, "object event", func() bool {
		return !s.fetchedFromMemory.Load()
	})
	s.downloads.Wait()

	ev, err := s.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	want := map[ShootMode][]string{ShootPhoto: {filepath.Join(s.opts.DownloadDir, "DSC00001.JPG")}}
	if !reflect.DeepEqual(ev.PostViewURLs, want) {
		t.Errorf("urls %v, want %v", ev.PostViewURLs, want)
	}
}

func TestFinishCapturingIgnoresStalePacket(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1))
	s.setEventPacket(&ptp.Container{Code: ptp.EC_SONY_ObjectAdded, Param: []uint32{99}})

	id, err := s.finishCapturing(context.Background(), true)
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("got %#x, %v, want %v", id, err, ErrObjectNotFound)
	}
}

func TestTakePictureFetchesFocusMode(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	f.setProp(focusProp(1))
	f.setProp(plainProp(ptp.DPC_SONY_ObjectInMemory, uint16(0x8000)))

	if _, err := s.takePicture(context.Background()); err != nil {
		t.Fatalf("takePicture: %v", err)
	}
	if !f.fetchedCode(ptp.DPC_FocusMode) {
		t.Errorf("focus mode not fetched")
	}
}

func TestTakePictureShutterFailure(t *testing.T) {
	f := newFakeTransport()
	want := &CommandFailedError{Code: ptp.RCError(ptp.RC_DeviceBusy)}
	f.setErrs[ptp.DPC_SONY_Capture] = want
	s := connectedSession(t, f, focusProp(1))

	if _, err := s.takePicture(context.Background()); err != want {
		t.Fatalf("got %v, want %v", err, want)
	}
	if s.isAwaitingObject.Load() {
		t.Errorf("still awaiting object after failed press")
	}
}

func TestAwaitObjectCancelled(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.finishCapturing(ctx, true); err != context.Canceled {
		t.Fatalf("got %v, want %v", err, context.Canceled)
	}
}

func TestFinishCapturingWithoutWait(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, focusProp(1))
	id, err := s.finishCapturing(context.Background(), false)
	if err != nil || id != 0 {
		t.Fatalf("got %d, %v", id, err)
	}
	if f.fetchedCode(ptp.DPC_SONY_ObjectInMemory) {
		t.Errorf("waited for an object")
	}
}
