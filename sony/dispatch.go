package sony

import (
	"context"
	"fmt"

	"github.com/hanwen/go-sonyptp/ptp"
)

// propValuer is a setting that knows how to encode itself for a write.
type propValuer interface {
	PropValue() (ptp.PropValue, error)
}

func (s *Session) setValue(v propValuer, bankB bool) error {
	pv, err := v.PropValue()
	if err != nil {
		return err
	}
	return s.t.SetProperty(pv, bankB)
}

func (s *Session) press(code uint16, v int64) error {
	return s.t.SetProperty(shutterValue(code, v), true)
}

var notSupported = map[Function]bool{
	SetProgramShift:          true,
	GetProgramShift:          true,
	SetSendLiveViewFrameInfo: true,
	GetSendLiveViewFrameInfo: true,
	SetZoomSetting:           true,
	GetZoomSetting:           true,
	SetTouchAFPosition:       true,
	GetTouchAFPosition:       true,
	CancelTouchAFPosition:    true,
	StartTrackingFocus:       true,
	StopTrackingFocus:        true,
	SetTrackingFocus:         true,
	GetTrackingFocus:         true,
	ListContent:              true,
	GetContentCount:          true,
	ListSchemes:              true,
	ListSources:              true,
	DeleteContent:            true,
	SetStreamingContent:      true,
	StartStreaming:           true,
	PauseStreaming:           true,
	SeekStreamingPosition:    true,
	StopStreaming:            true,
	GetStreamingStatus:       true,
}

// noOps succeed without talking to the camera.
var noOps = map[Function]bool{
	SetContinuousShootingMode:       true,
	SetupCustomWhiteBalanceFromShot: true,
	StartAudioRecording:             true,
	EndAudioRecording:               true,
	StartIntervalStillRecording:     true,
	EndIntervalStillRecording:       true,
	StartLoopRecording:              true,
	EndLoopRecording:                true,
	GetPostviewImageSize:            true,
	SetPostviewImageSize:            true,
	SetSteadyMode:                   true,
	GetSteadyMode:                   true,
	SetViewAngle:                    true,
	GetViewAngle:                    true,
	SetScene:                        true,
	GetScene:                        true,
	SetColorSetting:                 true,
	GetColorSetting:                 true,
	SetIntervalTime:                 true,
	GetIntervalTime:                 true,
	SetLoopRecordDuration:           true,
	GetLoopRecordDuration:           true,
	SetWindNoiseReduction:           true,
	GetWindNoiseReduction:           true,
	SetAudioRecording:               true,
	GetAudioRecording:               true,
	SetFlipSetting:                  true,
	GetFlipSetting:                  true,
	SetTVColorSystem:                true,
	GetTVColorSystem:                true,
	SetInfraredRemoteControl:        true,
	GetInfraredRemoteControl:        true,
	SetAutoPowerOff:                 true,
	GetAutoPowerOff:                 true,
	SetBeepMode:                     true,
	GetBeepMode:                     true,
	SetCurrentTime:                  true,
	Ping:                            true,
}

var noSuchMethod = map[Function]bool{
	SetCameraFunction: true,
	GetCameraFunction: true,
	StartRecordMode:   true,
}

// PerformFunction runs fn with payload and returns its result. Payload
// and result types depend on the function, eg. SetISO takes an ISO and
// TakePicture returns the uint32 handle of the captured object.
// Payloads are checked before anything is sent; a mismatch is
// ErrInvalidPayload.
func (s *Session) PerformFunction(ctx context.Context, fn Function, payload interface{}) (interface{}, error) {
	s.log.PTP.Debugf("perform %s %v", fn, payload)
	switch {
	case notSupported[fn]:
		return nil, fmt.Errorf("%s: %w", fn, ErrNotSupported)
	case noSuchMethod[fn]:
		return nil, &NoSuchMethodError{Method: fn}
	case noOps[fn]:
		return nil, nil
	}

	switch fn {
	case GetEvent:
		return s.Event()

	case SetISO, SetShutterSpeed, SetAperture, SetExposureCompensation, SetFocusMode,
		SetExposureMode, SetExposureModeDialControl, SetFlashMode, SetContinuousShootingSpeed,
		SetStillQuality, SetStillFormat, SetVideoFileFormat, SetVideoQuality, SetLiveViewQuality,
		SetContinuousBracketedShootingBracket, SetSingleBracketedShootingBracket:
		v, err := setPayload(fn, payload)
		if err != nil {
			return nil, err
		}
		return nil, s.setValue(v, false)

	case SetSelfTimerDuration:
		var d float64
		switch p := payload.(type) {
		case float64:
			d = p
		case int:
			d = float64(p)
		default:
			return nil, invalidPayload(fn, payload)
		}
		return nil, s.setValue(selfTimerMode(d), false)

	case SetStillSize:
		size, ok := payload.(StillSize)
		if !ok {
			return nil, invalidPayload(fn, payload)
		}
		return nil, s.setStillSize(size)

	case SetWhiteBalance:
		wb, ok := payload.(WhiteBalance)
		if !ok {
			return nil, invalidPayload(fn, payload)
		}
		return nil, s.setWhiteBalance(wb)

	case SetShootMode:
		mode, ok := payload.(ShootMode)
		if !ok {
			return nil, invalidPayload(fn, payload)
		}
		return nil, s.setShootMode(mode)

	case SetExposureSettingsLock:
		if err := s.press(ptp.DPC_SONY_ExposureSettingsLock, buttonUp); err != nil {
			return nil, err
		}
		return nil, s.press(ptp.DPC_SONY_ExposureSettingsLock, buttonDown)

	case TakePicture, TakeSingleBracketShot:
		return s.takePicture(ctx)
	case StartContinuousShooting, StartContinuousBracketShooting:
		return nil, s.startCapturing()
	case EndContinuousShooting:
		return s.finishCapturing(ctx, true)
	case StopContinuousBracketShooting:
		_, err := s.finishCapturing(ctx, false)
		return nil, err
	case StartBulbCapture:
		if err := s.startCapturing(); err != nil {
			return nil, err
		}
		s.awaitFocusIfNeeded(ctx)
		return nil, nil
	case EndBulbCapture:
		return s.finishCapturing(ctx, true)
	case HalfPressShutter:
		return nil, s.press(ptp.DPC_SONY_AutoFocus, buttonDown)
	case CancelHalfPressShutter:
		return nil, s.press(ptp.DPC_SONY_AutoFocus, buttonUp)

	case StartVideoRecording:
		return nil, s.press(ptp.DPC_SONY_Movie, buttonDown)
	case EndVideoRecording:
		return nil, s.press(ptp.DPC_SONY_Movie, buttonUp)
	case RecordHighFrameRateCapture:
		return s.recordHighFrameRate()

	case StartZooming:
		d, ok := payload.(ZoomDirection)
		if !ok {
			return nil, invalidPayload(fn, payload)
		}
		return nil, s.startZooming(d)
	case StopZooming:
		return nil, s.stopZooming()

	case StartLiveView:
		return s.liveViewURL(), nil
	case StartLiveViewWithQuality:
		q, ok := payload.(LiveViewQuality)
		if !ok {
			return nil, invalidPayload(fn, payload)
		}
		if err := s.setValue(q, false); err != nil {
			s.log.PTP.Debugf("live view quality %s: %v", q, err)
		}
		return s.liveViewURL(), nil
	case EndLiveView:
		return nil, nil
	}

	return s.get(fn)
}

func invalidPayload(fn Function, payload interface{}) error {
	return fmt.Errorf("%s: %w %T", fn, ErrInvalidPayload, payload)
}

// setPayload checks the payload of a plain property write.
func setPayload(fn Function, payload interface{}) (propValuer, error) {
	var v propValuer
	ok := false
	switch fn {
	case SetISO:
		v, ok = payload.(ISO)
	case SetShutterSpeed:
		v, ok = payload.(ShutterSpeed)
	case SetAperture:
		v, ok = payload.(Aperture)
	case SetExposureCompensation:
		v, ok = payload.(ExposureCompensation)
	case SetFocusMode:
		v, ok = payload.(FocusMode)
	case SetExposureMode:
		v, ok = payload.(ExposureMode)
	case SetExposureModeDialControl:
		v, ok = payload.(DialControl)
	case SetFlashMode:
		v, ok = payload.(FlashMode)
	case SetContinuousShootingSpeed:
		v, ok = payload.(ContinuousShootingSpeed)
	case SetStillQuality:
		v, ok = payload.(StillQuality)
	case SetStillFormat:
		v, ok = payload.(StillFormat)
	case SetVideoFileFormat:
		v, ok = payload.(VideoFileFormat)
	case SetVideoQuality:
		v, ok = payload.(VideoQuality)
	case SetLiveViewQuality:
		v, ok = payload.(LiveViewQuality)
	case SetContinuousBracketedShootingBracket, SetSingleBracketedShootingBracket:
		b, isBracket := payload.(Bracket)
		if !isBracket {
			break
		}
		shoot := ShootSingleBracket
		if fn == SetContinuousBracketedShootingBracket {
			shoot = ShootContinuousBracket
		}
		m, err := bracketMode(shoot, b)
		if err != nil {
			return nil, err
		}
		v, ok = m, true
	}
	if !ok {
		return nil, invalidPayload(fn, payload)
	}
	return v, nil
}

// setStillSize writes the size class and then the aspect ratio.
func (s *Session) setStillSize(size StillSize) error {
	v, err := imageSizes.propValue(size.Size)
	if err != nil {
		return err
	}
	var ratio ptp.PropValue
	if size.AspectRatio != "" {
		if ratio, err = aspectRatios.propValue(size.AspectRatio); err != nil {
			return err
		}
	}
	if err := s.t.SetProperty(v, false); err != nil {
		return err
	}
	if size.AspectRatio == "" {
		return nil
	}
	return s.t.SetProperty(ratio, false)
}

// setWhiteBalance writes the mode and then the temperature, if any.
func (s *Session) setWhiteBalance(wb WhiteBalance) error {
	v, err := whiteBalanceModes.propValue(string(wb.Mode))
	if err != nil {
		return err
	}
	if err := s.t.SetProperty(v, false); err != nil {
		return err
	}
	if wb.Temperature == nil {
		return nil
	}
	return s.t.SetProperty(ptp.PropValue{
		Code:  ptp.DPC_SONY_ColorTemp,
		Type:  ptp.DTC_UINT16,
		Value: int64(*wb.Temperature),
	}, false)
}

func (s *Session) recordHighFrameRate() (<-chan HighFrameRateUpdate, error) {
	updates := s.watchHighFrameRate()
	if err := s.press(ptp.DPC_SONY_Movie, buttonDown); err != nil {
		s.failHighFrameRate(err)
		return nil, err
	}
	return updates, nil
}

// getCodes lists the properties read by each getter.
var getCodes = map[Function][]uint16{
	GetISO:                                {ptp.DPC_SONY_ISO},
	GetShutterSpeed:                       {ptp.DPC_SONY_ShutterSpeed},
	GetAperture:                           {ptp.DPC_FNumber},
	GetExposureCompensation:               {ptp.DPC_ExposureBiasCompensation},
	GetFocusMode:                          {ptp.DPC_FocusMode},
	GetExposureMode:                       {ptp.DPC_ExposureProgramMode},
	GetExposureModeDialControl:            {ptp.DPC_SONY_ExposureProgramModeControl},
	GetFlashMode:                          {ptp.DPC_FlashMode},
	GetShootMode:                          {ptp.DPC_StillCaptureMode, ptp.DPC_ExposureProgramMode},
	GetSelfTimerDuration:                  {ptp.DPC_StillCaptureMode},
	GetContinuousShootingMode:             {ptp.DPC_StillCaptureMode},
	GetContinuousShootingSpeed:            {ptp.DPC_StillCaptureMode},
	GetSingleBracketedShootingBracket:     {ptp.DPC_StillCaptureMode},
	GetContinuousBracketedShootingBracket: {ptp.DPC_StillCaptureMode},
	GetStillSize:                          {ptp.DPC_SONY_ImageSize, ptp.DPC_SONY_AspectRatio},
	GetWhiteBalance:                       {ptp.DPC_WhiteBalance, ptp.DPC_SONY_ColorTemp},
	GetStillQuality:                       {ptp.DPC_SONY_StillQuality},
	GetStillFormat:                        {ptp.DPC_SONY_StillFormat},
	GetVideoFileFormat:                    {ptp.DPC_SONY_MovieFormat},
	GetVideoQuality:                       {ptp.DPC_SONY_MovieQuality},
	GetLiveViewQuality:                    {ptp.DPC_SONY_LiveViewQuality},
	GetExposureSettingsLock:               {ptp.DPC_SONY_ExposureSettingsLockStatus},
	GetStorageInformation:                 {ptp.DPC_SONY_RemainingShots, ptp.DPC_SONY_RemainingCaptureTime, ptp.DPC_SONY_StorageState},
}

// get reads the properties behind a getter and returns the decoded
// current value. A property that decodes to nothing is
// ErrPropCodeNotFound.
func (s *Session) get(fn Function) (interface{}, error) {
	codes, ok := getCodes[fn]
	if !ok {
		return nil, &NoSuchMethodError{Method: fn}
	}
	ev, _, err := s.fetch(codes...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}

	var v interface{}
	switch fn {
	case GetISO:
		if ev.ISO != nil {
			v = ev.ISO.Current
		}
	case GetShutterSpeed:
		if ev.ShutterSpeed != nil {
			v = ev.ShutterSpeed.Current
		}
	case GetAperture:
		if ev.Aperture != nil {
			v = ev.Aperture.Current
		}
	case GetExposureCompensation:
		if ev.ExposureCompensation != nil {
			v = ev.ExposureCompensation.Current
		}
	case GetFocusMode:
		if ev.FocusMode != nil {
			v = ev.FocusMode.Current
		}
	case GetExposureMode:
		if ev.ExposureMode != nil {
			v = ev.ExposureMode.Current
		}
	case GetExposureModeDialControl:
		if ev.ExposureModeDialControl != nil {
			v = ev.ExposureModeDialControl.Current
		}
	case GetFlashMode:
		if ev.FlashMode != nil {
			v = ev.FlashMode.Current
		}
	case GetShootMode:
		if ev.ShootMode.Current != "" {
			v = ev.ShootMode.Current
		}
	case GetSelfTimerDuration:
		if ev.SelfTimer != nil {
			v = ev.SelfTimer.Current
		}
	case GetContinuousShootingMode:
		if ev.ContinuousShootingMode != nil && ev.ContinuousShootingMode.Current != nil {
			v = *ev.ContinuousShootingMode.Current
		}
	case GetContinuousShootingSpeed:
		if ev.ContinuousShootingSpeed != nil && ev.ContinuousShootingSpeed.Current != nil {
			v = *ev.ContinuousShootingSpeed.Current
		}
	case GetSingleBracketedShootingBracket:
		if ev.SingleBrackets != nil && ev.SingleBrackets.Current != nil {
			v = *ev.SingleBrackets.Current
		}
	case GetContinuousBracketedShootingBracket:
		if ev.ContinuousBrackets != nil && ev.ContinuousBrackets.Current != nil {
			v = *ev.ContinuousBrackets.Current
		}
	case GetStillSize:
		if ev.StillSize != nil {
			v = ev.StillSize.Current
		}
	case GetWhiteBalance:
		if ev.WhiteBalance != nil {
			v = ev.WhiteBalance.Current
		}
	case GetStillQuality:
		if ev.StillQuality != nil {
			v = ev.StillQuality.Current
		}
	case GetStillFormat:
		if ev.StillFormat != nil {
			v = ev.StillFormat.Current
		}
	case GetVideoFileFormat:
		if ev.VideoFileFormat != nil {
			v = ev.VideoFileFormat.Current
		}
	case GetVideoQuality:
		if ev.VideoQuality != nil {
			v = ev.VideoQuality.Current
		}
	case GetLiveViewQuality:
		if ev.LiveViewQuality != nil {
			v = ev.LiveViewQuality.Current
		}
	case GetExposureSettingsLock:
		if ev.ExposureSettingsLockStatus != nil {
			v = *ev.ExposureSettingsLockStatus
		}
	case GetStorageInformation:
		if ev.Storage != nil {
			v = ev.Storage
		}
	}
	if v == nil {
		return nil, fmt.Errorf("%s: %w", fn, ErrPropCodeNotFound)
	}
	return v, nil
}
