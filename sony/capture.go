package sony

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hanwen/go-sonyptp/ptp"
)

// inMemoryHandle addresses the newest object in the camera buffer when
// the camera did not announce a handle.
const inMemoryHandle = 0xffffc001

// objectInMemoryReady is the lowest object in memory value that means
// an image is waiting to be transferred.
const objectInMemoryReady = 0x8000

func shutterValue(code uint16, v int64) ptp.PropValue {
	return ptp.PropValue{Code: code, Type: ptp.DTC_UINT16, Value: v}
}

const (
	buttonUp   = 1
	buttonDown = 2
)

// takePicture presses the shutter, waits for focus when the camera
// auto focuses, releases and waits for the captured object.
func (s *Session) takePicture(ctx context.Context) (uint32, error) {
	s.log.Capture.Debug("taking picture")
	s.setEventPacket(nil)
	s.fetchedFromMemory.Store(false)
	s.isAwaitingObject.Store(true)

	if err := s.startCapturing(); err != nil {
		s.isAwaitingObject.Store(false)
		return 0, err
	}
	id, ok := s.awaitFocusIfNeeded(ctx)
	return s.cancelShutterPress(ctx, id, ok, true)
}

// startCapturing presses the shutter button fully.
func (s *Session) startCapturing() error {
	if err := s.t.SetProperty(shutterValue(ptp.DPC_SONY_AutoFocus, buttonDown), true); err != nil {
		s.log.Capture.Debugf("half press: %v", err)
	}
	return s.t.SetProperty(shutterValue(ptp.DPC_SONY_Capture, buttonDown), true)
}

// finishCapturing releases the shutter. With awaitObject it waits for
// the captured object.
func (s *Session) finishCapturing(ctx context.Context, awaitObject bool) (uint32, error) {
	if awaitObject {
		s.setEventPacket(nil)
		s.fetchedFromMemory.Store(false)
	}
	return s.cancelShutterPress(ctx, 0, false, awaitObject)
}

func (s *Session) cancelShutterPress(ctx context.Context, id uint32, haveID, awaitObject bool) (uint32, error) {
	if err := s.t.SetProperty(shutterValue(ptp.DPC_SONY_Capture, buttonUp), true); err != nil {
		s.log.Capture.Debugf("release: %v", err)
	}
	if err := s.t.SetProperty(shutterValue(ptp.DPC_SONY_AutoFocus, buttonUp), true); err != nil {
		s.log.Capture.Debugf("half release: %v", err)
	}
	if haveID || !awaitObject {
		if haveID {
			s.isAwaitingObject.Store(false)
		}
		return id, nil
	}
	return s.awaitObjectID(ctx)
}

// awaitFocusIfNeeded waits for focus in the auto focus modes. It
// returns the captured object if one was reported during the wait.
func (s *Session) awaitFocusIfNeeded(ctx context.Context) (uint32, bool) {
	var mode FocusMode
	if ev := s.LastEvent(); ev != nil && ev.FocusMode != nil {
		mode = ev.FocusMode.Current
	} else if ev, _, err := s.fetch(ptp.DPC_FocusMode); err == nil && ev.FocusMode != nil {
		mode = ev.FocusMode.Current
	} else if err != nil {
		s.log.Capture.Debugf("focus mode: %v", err)
	}
	if !mode.IsAuto() {
		return 0, false
	}
	return s.awaitFocus(ctx)
}

func (s *Session) awaitFocus(ctx context.Context) (uint32, bool) {
	var id uint32
	found := false
	s.poll(ctx, s.opts.FocusTimeout, func() bool {
		if pkt := s.eventPacket(); pkt != nil && len(pkt.Param) > 0 {
			switch {
			case pkt.Code == ptp.EC_SONY_PropertyChanged && pkt.Param[0] == ptp.DPC_SONY_FocusFound:
				s.log.Capture.Debug("focus found")
				return true
			case pkt.Code == ptp.EC_SONY_ObjectAdded:
				s.takeAwaitingObject()
				s.isAwaitingObject.Store(false)
				id, found = pkt.Param[0], true
				return true
			}
		}
		if v, ok := s.takeAwaitingObject(); ok {
			s.isAwaitingObject.Store(false)
			id, found = v, true
			return true
		}
		return false
	})
	if !found {
		if v, ok := s.takeAwaitingObject(); ok {
			s.isAwaitingObject.Store(false)
			id, found = v, true
		}
	}
	return id, found
}

// awaitObjectID waits for the camera to report the captured object,
// either by event or through the object in memory property.
func (s *Session) awaitObjectID(ctx context.Context) (uint32, error) {
	defer s.isAwaitingObject.Store(false)
	if id, ok := s.takeAwaitingObject(); ok {
		return id, nil
	}

	var id uint32
	inMemory := false
	found := s.poll(ctx, s.opts.ObjectTimeout, func() bool {
		if pkt := s.eventPacket(); pkt != nil && pkt.Code == ptp.EC_SONY_ObjectAdded && len(pkt.Param) > 0 {
			s.takeAwaitingObject()
			id = pkt.Param[0]
			return true
		}
		if v, ok := s.takeAwaitingObject(); ok {
			id = v
			return true
		}
		ready, err := s.objectInMemory()
		if err != nil {
			s.log.Capture.Debugf("object in memory: %v", err)
			return false
		}
		if ready {
			id, inMemory = inMemoryHandle, true
			return true
		}
		return false
	})
	s.takeAwaitingObject()
	if !found {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, ErrObjectNotFound
	}
	s.log.Capture.Debugf("captured object %#x", id)
	if inMemory {
		s.fetchedFromMemory.Store(true)
		s.download(id)
	}
	return id, nil
}

// poll runs done on every tick until it returns true, the timeout
// passes or ctx is done.
func (s *Session) poll(ctx context.Context, timeout time.Duration, done func() bool) bool {
	mt := ptp.NewMutableTicker(s.opts.PollInterval)
	defer mt.Close()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-mt.C:
			if done() {
				return true
			}
		}
	}
}

func (s *Session) objectInMemory() (bool, error) {
	props, err := s.t.Properties(ptp.DPC_SONY_ObjectInMemory)
	if err != nil {
		return false, err
	}
	p := findProperty(props, ptp.DPC_SONY_ObjectInMemory)
	if p == nil {
		return false, ErrPropCodeNotFound
	}
	v, ok := ptp.Int64(p.CurrentValue)
	return ok && v >= objectInMemoryReady, nil
}

// currentShootMode is the shoot mode captured objects are filed under.
func (s *Session) currentShootMode() ShootMode {
	if ev := s.LastEvent(); ev != nil && ev.ShootMode.Current != "" {
		return ev.ShootMode.Current
	}
	return ShootPhoto
}

// download fetches object id in the background.
func (s *Session) download(id uint32) {
	mode := s.currentShootMode()
	s.downloads.Add(1)
	go func() {
		defer s.downloads.Done()
		s.handleObjectID(id, mode)
	}()
}

// handleObjectID downloads an object into the download directory and
// records its path under mode. Objects still queued in the camera
// buffer are fetched after it.
func (s *Session) handleObjectID(id uint32, mode ShootMode) {
	info, err := s.t.ObjectInfo(id)
	if err != nil {
		s.log.Capture.Errorf("object info %#x: %v", id, err)
		return
	}

	var buf bytes.Buffer
	if err := s.t.PartialObject(id, &buf, 0, info.CompressedSize); err != nil {
		s.log.Capture.Errorf("download %#x: %v", id, err)
		return
	}
	s.log.Capture.Debugf("downloaded %#x: %d bytes", id, buf.Len())

	if ready, err := s.objectInMemory(); err == nil && ready {
		s.downloads.Add(1)
		go func() {
			defer s.downloads.Done()
			s.handleObjectID(inMemoryHandle, mode)
		}()
	}

	name := filepath.Base(info.Filename)
	if info.Filename == "" {
		name = uuid.New().String() + ".jpg"
	}
	dir := s.opts.DownloadDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		s.log.Capture.Errorf("write %s: %v", path, err)
		return
	}
	s.log.Capture.Infof("saved %s", path)

	s.addURL(mode, path)
	s.eventAvailable()
}
