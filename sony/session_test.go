package sony

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hanwen/go-sonyptp/ptp"
)

func TestConnectRetries(t *testing.T) {
	f := newFakeTransport()
	f.connectErrs = []error{ErrAnotherSessionOpen, ErrOperationNotSupported}
	s := connectedSession(t, f, stillModeProp(StillSingle, StillSingle))
	if f.connects != 3 {
		t.Errorf("got %d connect attempts, want 3", f.connects)
	}
	if ev := s.LastEvent(); ev == nil || ev.ShootMode.Current != ShootPhoto {
		t.Errorf("no initial event: %+v", ev)
	}
}

func TestConnectGivesUp(t *testing.T) {
	f := newFakeTransport()
	f.connectErrs = []error{ErrAnotherSessionOpen, ErrAnotherSessionOpen, ErrAnotherSessionOpen, nil}
	s := NewSession(f, testOptions(t), nil)
	if err := s.Connect(); !errors.Is(err, ErrAnotherSessionOpen) {
		t.Fatalf("Connect: got %v, want %v", err, ErrAnotherSessionOpen)
	}
	if f.connects != connectAttempts {
		t.Errorf("got %d connect attempts, want %d", f.connects, connectAttempts)
	}
}

func TestConnectFatalError(t *testing.T) {
	f := newFakeTransport()
	want := errors.New("connection refused")
	f.connectErrs = []error{want}
	s := NewSession(f, testOptions(t), nil)
	if err := s.Connect(); err != want {
		t.Fatalf("Connect: got %v, want %v", err, want)
	}
	if f.connects != 1 {
		t.Errorf("got %d connect attempts, want 1", f.connects)
	}
}

func TestConnectSurvivesEventError(t *testing.T) {
	f := newFakeTransport()
	f.allErr = errors.New("boom")
	s := NewSession(f, testOptions(t), nil)
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()
	if s.LastEvent() != nil {
		t.Errorf("event after failed fetch")
	}
}

func TestEventPartialFetch(t *testing.T) {
	f := newFakeTransport()
	f.batches = [][]ptp.SonyDevicePropDesc{
		{stillModeProp(StillSingle, StillSingle), focusProp(1)},
		{focusProp(2)},
	}
	s := NewSession(f, testOptions(t), nil)
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	ev, err := s.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if want := []bool{false, true}; !reflect.DeepEqual(f.partials, want) {
		t.Errorf("partial flags %v, want %v", f.partials, want)
	}
	if ev.FocusMode == nil || ev.FocusMode.Current != FocusSingle {
		t.Errorf("focus mode %+v", ev.FocusMode)
	}
	if ev.ShootMode.Current != ShootPhoto || !ev.IsAvailable(TakePicture) {
		t.Errorf("still capture mode lost in partial merge: %+v", ev.ShootMode)
	}
	if last := s.LastEvent(); last == nil || !reflect.DeepEqual(last.withURLs(nil), ev) {
		t.Errorf("LastEvent %+v, want %+v", last, ev)
	}
}

func TestEventReturnsPendingURLs(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, stillModeProp(StillSingle, StillSingle))
	fetches := len(f.partials)

	s.addURL(ShootPhoto, "/tmp/a.jpg")
	ev, err := s.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if len(f.partials) != fetches {
		t.Errorf("pending URLs caused a fetch")
	}
	want := map[ShootMode][]string{ShootPhoto: {"/tmp/a.jpg"}}
	if !reflect.DeepEqual(ev.PostViewURLs, want) {
		t.Errorf("urls %v, want %v", ev.PostViewURLs, want)
	}

	ev, err = s.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if len(f.partials) != fetches+1 {
		t.Errorf("second Event did not fetch")
	}
	if len(ev.PostViewURLs) != 0 {
		t.Errorf("urls reported twice: %v", ev.PostViewURLs)
	}
}

func TestObjectAddedDownloads(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f, stillModeProp(StillSingle, StillSingle))
	f.objects[7] = &ptp.ObjectInfo{Filename: "DSC00007.JPG", CompressedSize: 5}
	f.objectData[7] = []byte("hello")

	notified := make(chan struct{}, 4)
	s.OnEventAvailable(func() {
		notified <- struct{}{}
	})
	f.events <- ptp.Container{Code: ptp.EC_SONY_ObjectAdded, Param: []uint32{7}}

	waitFor(t, "download", s.hasURLs)
	<-notified

	ev, err := s.Event()
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	path := filepath.Join(s.opts.DownloadDir, "DSC00007.JPG")
	want := map[ShootMode][]string{ShootPhoto: {path}}
	if !reflect.DeepEqual(ev.PostViewURLs, want) {
		t.Fatalf("urls %v, want %v", ev.PostViewURLs, want)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
}

func TestPropertyChangedNotifies(t *testing.T) {
	f := newFakeTransport()
	s := connectedSession(t, f)
	notified := make(chan struct{}, 1)
	s.OnEventAvailable(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	f.events <- ptp.Container{Code: ptp.EC_SONY_PropertyChanged, Param: []uint32{ptp.DPC_SONY_ISO}}
	<-notified
	if pkt := s.eventPacket(); pkt == nil || pkt.Code != ptp.EC_SONY_PropertyChanged {
		t.Errorf("packet %v", pkt)
	}
}
