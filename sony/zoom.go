package sony

import "github.com/hanwen/go-sonyptp/ptp"

func (d ZoomDirection) value() int64 {
	if d == ZoomIn {
		return 0x01
	}
	return 0xff
}

// startZooming starts the lens moving in direction d. Repeating the
// current direction sends nothing; a new direction stops the old one
// first.
func (s *Session) startZooming(d ZoomDirection) error {
	s.zoomMu.Lock()
	defer s.zoomMu.Unlock()
	if s.zooming != nil {
		if *s.zooming == d {
			return nil
		}
		if err := s.t.ReleaseControl(ptp.DPC_SONY_PerformZoom); err != nil {
			return err
		}
		s.zooming = nil
	}
	if err := s.t.SetProperty(ptp.PropValue{
		Code:  ptp.DPC_SONY_PerformZoom,
		Type:  ptp.DTC_UINT8,
		Value: d.value(),
	}, true); err != nil {
		return err
	}
	s.zooming = &d
	return nil
}

// stopZooming forgets the direction and sends the zoom control without
// a value, which halts the lens.
func (s *Session) stopZooming() error {
	s.zoomMu.Lock()
	s.zooming = nil
	s.zoomMu.Unlock()
	return s.t.ReleaseControl(ptp.DPC_SONY_PerformZoom)
}
