package sony

import (
	"context"

	"github.com/hanwen/go-sonyptp/ptp"
)

var defaultExposureModes = []ExposureMode{
	ExposureIntelligentAuto,
	ExposureProgrammedAuto,
	ExposureAperturePriority,
	ExposureShutterPriority,
	ExposureManual,
	ExposureSuperiorAuto,
	ExposureSlowAndQuickProgrammedAuto,
	ExposureSlowAndQuickAperturePriority,
	ExposureSlowAndQuickShutterPriority,
	ExposureSlowAndQuickManual,
}

var videoExposureModes = []ExposureMode{
	ExposureVideoProgrammedAuto,
	ExposureVideoAperturePriority,
	ExposureVideoShutterPriority,
	ExposureVideoManual,
}

var highFrameRateExposureModes = []ExposureMode{
	ExposureHighFrameRateProgrammedAuto,
	ExposureHighFrameRateAperturePriority,
	ExposureHighFrameRateShutterPriority,
	ExposureHighFrameRateManual,
}

// bringToFront returns a copy of l with m moved first. l is returned
// unchanged when it does not hold m.
func bringToFront(l []ExposureMode, m ExposureMode) []ExposureMode {
	out := make([]ExposureMode, 0, len(l))
	found := false
	for _, e := range l {
		if e == m {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return append([]ExposureMode(nil), l...)
	}
	return append([]ExposureMode{m}, out...)
}

// exposureFamily returns the video mode of the same priority family as
// m, or "" when m belongs to none.
func exposureFamily(m ExposureMode) ExposureMode {
	switch m {
	case ExposureAperturePriority, ExposureSlowAndQuickAperturePriority,
		ExposureVideoAperturePriority, ExposureHighFrameRateAperturePriority:
		return ExposureVideoAperturePriority
	case ExposureProgrammedAuto, ExposureIntelligentAuto, ExposureSlowAndQuickProgrammedAuto,
		ExposureVideoProgrammedAuto, ExposureHighFrameRateProgrammedAuto:
		return ExposureVideoProgrammedAuto
	case ExposureShutterPriority, ExposureSlowAndQuickShutterPriority,
		ExposureVideoShutterPriority, ExposureHighFrameRateShutterPriority:
		return ExposureVideoShutterPriority
	case ExposureManual, ExposureSlowAndQuickManual,
		ExposureVideoManual, ExposureHighFrameRateManual:
		return ExposureVideoManual
	}
	return ""
}

// bestStillCaptureMode picks the still capture mode to select for a
// shoot mode. It returns false for shoot modes that are chosen through
// the exposure program mode alone.
func bestStillCaptureMode(shoot ShootMode, modes *StillCaptureModes) (StillCaptureMode, bool) {
	switch shoot {
	case ShootVideo, ShootPhoto, ShootTimelapse, ShootBulb:
		return StillSingle, true
	case ShootContinuous:
		if modes == nil {
			return StillContinuous, true
		}
		return firstStillMode(modes.Available, ShootContinuous)
	case ShootSingleBracket, ShootContinuousBracket:
		if modes == nil {
			return 0, false
		}
		return firstStillMode(modes.Available, shoot)
	}
	return 0, false
}

func firstStillMode(l []StillCaptureMode, shoot ShootMode) (StillCaptureMode, bool) {
	for _, m := range l {
		if s, ok := m.ShootMode(); ok && s == shoot {
			return m, true
		}
	}
	return 0, false
}

// bestExposureModes lists the exposure program modes suitable for a
// shoot mode, best first, given the current mode. With a non-nil
// available list the result is restricted to it. A nil result means the
// shoot mode does not depend on the exposure program mode.
func bestExposureModes(shoot ShootMode, current *ExposureMode, available []ExposureMode) []ExposureMode {
	var cur ExposureMode
	if current != nil {
		cur = *current
	}

	var modes []ExposureMode
	switch shoot {
	case ShootHighFrameRate:
		modes = highFrameRateExposureModes
	case ShootVideo:
		modes = videoExposureModes
		if f := exposureFamily(cur); f != "" && !cur.IsVideo() {
			modes = bringToFront(modes, f)
		}
	case ShootPhoto, ShootTimelapse, ShootSingleBracket, ShootContinuousBracket:
		modes = defaultExposureModes
		switch {
		case current == nil:
		case cur == ExposureVideoShutterPriority:
			modes = bringToFront(bringToFront(modes, ExposureSlowAndQuickShutterPriority), ExposureShutterPriority)
		case cur == ExposureVideoProgrammedAuto:
			for _, m := range []ExposureMode{ExposureIntelligentAuto, ExposureSuperiorAuto, ExposureSlowAndQuickProgrammedAuto, ExposureProgrammedAuto} {
				modes = bringToFront(modes, m)
			}
		case cur == ExposureVideoAperturePriority:
			modes = bringToFront(bringToFront(modes, ExposureSlowAndQuickAperturePriority), ExposureAperturePriority)
		case cur == ExposureVideoManual:
			modes = bringToFront(bringToFront(modes, ExposureSlowAndQuickManual), ExposureManual)
		default:
			modes = bringToFront(modes, cur)
		}
	case ShootBulb:
		if cur == ExposureVideoManual {
			modes = []ExposureMode{ExposureManual, ExposureSlowAndQuickManual, ExposureShutterPriority, ExposureSlowAndQuickShutterPriority}
		} else {
			modes = []ExposureMode{ExposureShutterPriority, ExposureSlowAndQuickShutterPriority, ExposureManual, ExposureSlowAndQuickManual}
		}
	default:
		return nil
	}

	if available == nil {
		return append([]ExposureMode(nil), modes...)
	}
	out := []ExposureMode{}
	for _, m := range modes {
		if hasExposureMode(available, m) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Session) bestExposureModes(shoot ShootMode) []ExposureMode {
	ev := s.LastEvent()
	if ev == nil || ev.ExposureMode == nil {
		return bestExposureModes(shoot, nil, nil)
	}
	cur := ev.ExposureMode.Current
	return bestExposureModes(shoot, &cur, ev.ExposureMode.Available)
}

// setShootMode selects the still capture mode and then the exposure
// program mode that realize shoot.
func (s *Session) setShootMode(shoot ShootMode) error {
	still, ok := bestStillCaptureMode(shoot, s.lastStillModes())
	if !ok {
		modes := s.bestExposureModes(shoot)
		if len(modes) == 0 {
			return ErrNotAvailable
		}
		return s.setValue(modes[0], false)
	}
	if err := s.setValue(still, false); err != nil {
		return err
	}
	if modes := s.bestExposureModes(shoot); len(modes) > 0 {
		return s.setValue(modes[0], false)
	}
	return nil
}

func (s *Session) setToShootModeIfRequired(shoot ShootMode) error {
	if ev := s.LastEvent(); ev != nil && ev.ShootMode.Current == shoot {
		return nil
	}
	if still, ok := bestStillCaptureMode(shoot, s.lastStillModes()); ok {
		if err := s.setValue(still, false); err != nil {
			return err
		}
	}
	return s.setExposureModeIfRequired(shoot)
}

func (s *Session) setExposureModeIfRequired(shoot ShootMode) error {
	modes := s.bestExposureModes(shoot)
	if len(modes) == 0 {
		return nil
	}
	ev := s.LastEvent()
	if ev != nil && ev.ExposureMode != nil && hasExposureMode(modes, ev.ExposureMode.Current) {
		return nil
	}
	if ev == nil || !ev.IsAvailable(SetExposureMode) {
		s.log.Capture.Debugf("cannot switch exposure mode for %s", shoot)
		return nil
	}
	return s.setValue(modes[0], false)
}

// setShutterSpeedAwayFromBulb picks the first available timed shutter
// speed when the shutter is on BULB.
func (s *Session) setShutterSpeedAwayFromBulb() error {
	ev := s.LastEvent()
	if ev == nil || ev.ShutterSpeed == nil || !ev.ShutterSpeed.Current.IsBulb() {
		return nil
	}
	fetched, _, err := s.fetch(ptp.DPC_SONY_ShutterSpeed)
	if err != nil {
		return err
	}
	if fetched.ShutterSpeed == nil {
		return nil
	}
	for _, sp := range fetched.ShutterSpeed.Available {
		if !sp.IsBulb() {
			s.log.Capture.Debugf("leaving BULB for %v", sp)
			return s.setValue(sp, false)
		}
	}
	return nil
}

// MakeFunctionAvailable prepares the camera for fn: it leaves BULB and
// switches the shoot mode as the function requires. Functions without
// preconditions return nil at once.
func (s *Session) MakeFunctionAvailable(ctx context.Context, fn Function) error {
	switch fn {
	case StartContinuousShooting:
		if err := s.setShutterSpeedAwayFromBulb(); err != nil {
			s.log.Capture.Debugf("leave BULB: %v", err)
		}
		ev, _, err := s.fetch(ptp.DPC_StillCaptureMode)
		if err != nil {
			return err
		}
		if ev.ContinuousShootingSpeed == nil || len(ev.ContinuousShootingSpeed.Available) == 0 {
			return nil
		}
		_, err = s.PerformFunction(ctx, SetContinuousShootingSpeed, ev.ContinuousShootingSpeed.Available[0])
		return err

	case StartBulbCapture:
		if _, err := s.PerformFunction(ctx, SetShutterSpeed, Bulb); err != nil {
			return err
		}
		if err := s.setShootMode(ShootPhoto); err != nil {
			s.log.Capture.Debugf("photo mode for BULB: %v", err)
		}
		return nil

	case TakePicture:
		if err := s.setShutterSpeedAwayFromBulb(); err != nil {
			s.log.Capture.Debugf("leave BULB: %v", err)
		}
		if err := s.setShootMode(ShootPhoto); err != nil {
			s.log.Capture.Debugf("photo mode: %v", err)
		}
		return nil
	}

	shoot, ok := prepareShootModes[fn]
	if !ok {
		return nil
	}
	if err := s.setShutterSpeedAwayFromBulb(); err != nil {
		s.log.Capture.Debugf("leave BULB: %v", err)
	}
	return s.setToShootModeIfRequired(shoot)
}

var prepareShootModes = map[Function]ShootMode{
	StartIntervalStillRecording:    ShootInterval,
	StartAudioRecording:            ShootAudio,
	StartVideoRecording:            ShootVideo,
	StartLoopRecording:             ShootLoop,
	RecordHighFrameRateCapture:     ShootHighFrameRate,
	StartContinuousBracketShooting: ShootContinuousBracket,
	TakeSingleBracketShot:          ShootSingleBracket,
}
