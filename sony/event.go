package sony

// CameraEvent is a decoded snapshot of the camera state. A new value is
// built for every event fetch. Settings the camera did not report are
// nil.
type CameraEvent struct {
	ShootMode                  ShootModeSetting                `json:"shootMode"`
	ExposureMode               *ExposureModeSetting            `json:"exposureMode,omitempty"`
	ExposureModeDialControl    *DialControlSetting             `json:"exposureModeDialControl,omitempty"`
	ExposureSettingsLockStatus *LockStatus                     `json:"exposureSettingsLockStatus,omitempty"`
	SelfTimer                  *SelfTimerSetting               `json:"selfTimer,omitempty"`
	ExposureCompensation       *ExposureCompensationSetting    `json:"exposureCompensation,omitempty"`
	FlashMode                  *FlashModeSetting               `json:"flashMode,omitempty"`
	Aperture                   *ApertureSetting                `json:"aperture,omitempty"`
	FocusMode                  *FocusModeSetting               `json:"focusMode,omitempty"`
	ISO                        *ISOSetting                     `json:"iso,omitempty"`
	ShutterSpeed               *ShutterSpeedSetting            `json:"shutterSpeed,omitempty"`
	WhiteBalance               *WhiteBalanceSetting            `json:"whiteBalance,omitempty"`
	FocusStatus                *FocusStatus                    `json:"focusStatus,omitempty"`
	ContinuousShootingMode     *ContinuousShootingModeSetting  `json:"continuousShootingMode,omitempty"`
	ContinuousShootingSpeed    *ContinuousShootingSpeedSetting `json:"continuousShootingSpeed,omitempty"`
	SingleBrackets             *BracketSetting                 `json:"singleBracketedShootingBrackets,omitempty"`
	ContinuousBrackets         *BracketSetting                 `json:"continuousBracketedShootingBrackets,omitempty"`
	StillQuality               *StillQualitySetting            `json:"stillQuality,omitempty"`
	StillFormat                *StillFormatSetting             `json:"stillFormat,omitempty"`
	StillSize                  *StillSizeSetting               `json:"stillSize,omitempty"`
	VideoFileFormat            *VideoFileFormatSetting         `json:"videoFileFormat,omitempty"`
	VideoQuality               *VideoQualitySetting            `json:"videoQuality,omitempty"`
	LiveViewQuality            *LiveViewQualitySetting         `json:"liveViewQuality,omitempty"`

	// RecordingDuration is in seconds.
	RecordingDuration   *float64             `json:"videoRecordingTime,omitempty"`
	HighFrameRateStatus *HighFrameRateStatus `json:"highFrameRateCaptureStatus,omitempty"`
	ZoomPosition        *float64             `json:"zoomPosition,omitempty"`
	Battery             []BatteryInfo        `json:"batteryInfo,omitempty"`
	Storage             []StorageInfo        `json:"storageInformation,omitempty"`

	AvailableFunctions []Function `json:"availableFunctions"`
	SupportedFunctions []Function `json:"supportedFunctions"`

	// PostViewURLs lists the files downloaded since the previous event,
	// by the shoot mode they were taken in.
	PostViewURLs map[ShootMode][]string `json:"postViewPictureURLs,omitempty"`
}

// IsAvailable reports whether fn can be called in the camera's current
// state.
func (e *CameraEvent) IsAvailable(fn Function) bool {
	return hasFunction(e.AvailableFunctions, fn)
}

// StillCaptureModes are the raw still capture modes of the last full
// snapshot. They pick the mode to switch to for a shoot mode.
type StillCaptureModes struct {
	Available []StillCaptureMode
	Supported []StillCaptureMode
}

type ShootModeSetting struct {
	Current   ShootMode   `json:"current"`
	Available []ShootMode `json:"available"`
	Supported []ShootMode `json:"supported"`
}

type ExposureModeSetting struct {
	Current   ExposureMode   `json:"current"`
	Available []ExposureMode `json:"available"`
	Supported []ExposureMode `json:"supported"`
}

type DialControlSetting struct {
	Current   DialControl   `json:"current"`
	Available []DialControl `json:"available"`
	Supported []DialControl `json:"supported"`
}

// SelfTimerSetting is in seconds; zero means no timer.
type SelfTimerSetting struct {
	Current   float64   `json:"current"`
	Available []float64 `json:"available"`
	Supported []float64 `json:"supported"`
}

type ExposureCompensationSetting struct {
	Current   ExposureCompensation   `json:"current"`
	Available []ExposureCompensation `json:"available"`
	Supported []ExposureCompensation `json:"supported"`
}

type FlashModeSetting struct {
	Current   FlashMode   `json:"current"`
	Available []FlashMode `json:"available"`
	Supported []FlashMode `json:"supported"`
}

type ApertureSetting struct {
	Current   Aperture   `json:"current"`
	Available []Aperture `json:"available"`
	Supported []Aperture `json:"supported"`
}

type FocusModeSetting struct {
	Current   FocusMode   `json:"current"`
	Available []FocusMode `json:"available"`
	Supported []FocusMode `json:"supported"`
}

type ISOSetting struct {
	Current   ISO   `json:"current"`
	Available []ISO `json:"available"`
	Supported []ISO `json:"supported"`
}

type ShutterSpeedSetting struct {
	Current   ShutterSpeed   `json:"current"`
	Available []ShutterSpeed `json:"available"`
	Supported []ShutterSpeed `json:"supported"`
}

type WhiteBalanceSetting struct {
	Current   WhiteBalance   `json:"current"`
	Available []WhiteBalance `json:"available"`
	Supported []WhiteBalance `json:"supported"`
}

type ContinuousShootingModeSetting struct {
	Current   *ContinuousShootingMode  `json:"current,omitempty"`
	Available []ContinuousShootingMode `json:"available"`
	Supported []ContinuousShootingMode `json:"supported"`
}

type ContinuousShootingSpeedSetting struct {
	Current   *ContinuousShootingSpeed  `json:"current,omitempty"`
	Available []ContinuousShootingSpeed `json:"available"`
	Supported []ContinuousShootingSpeed `json:"supported"`
}

type BracketSetting struct {
	Current   *Bracket  `json:"current,omitempty"`
	Available []Bracket `json:"available"`
	Supported []Bracket `json:"supported"`
}

type StillQualitySetting struct {
	Current   StillQuality   `json:"current"`
	Available []StillQuality `json:"available"`
	Supported []StillQuality `json:"supported"`
}

type StillFormatSetting struct {
	Current   StillFormat   `json:"current"`
	Available []StillFormat `json:"available"`
	Supported []StillFormat `json:"supported"`
}

type StillSizeSetting struct {
	Current   StillSize   `json:"current"`
	Available []StillSize `json:"available"`
	Supported []StillSize `json:"supported"`
}

type VideoFileFormatSetting struct {
	Current   VideoFileFormat   `json:"current"`
	Available []VideoFileFormat `json:"available"`
	Supported []VideoFileFormat `json:"supported"`
}

type VideoQualitySetting struct {
	Current   VideoQuality   `json:"current"`
	Available []VideoQuality `json:"available"`
	Supported []VideoQuality `json:"supported"`
}

type LiveViewQualitySetting struct {
	Current   LiveViewQuality   `json:"current"`
	Available []LiveViewQuality `json:"available"`
	Supported []LiveViewQuality `json:"supported"`
}

func hasFunction(l []Function, fn Function) bool {
	for _, f := range l {
		if f == fn {
			return true
		}
	}
	return false
}

func hasShootMode(l []ShootMode, m ShootMode) bool {
	for _, s := range l {
		if s == m {
			return true
		}
	}
	return false
}

func hasExposureMode(l []ExposureMode, m ExposureMode) bool {
	for _, e := range l {
		if e == m {
			return true
		}
	}
	return false
}

// withURLs returns a copy of e carrying urls as its post view URLs.
func (e *CameraEvent) withURLs(urls map[ShootMode][]string) *CameraEvent {
	c := *e
	if len(urls) == 0 {
		return &c
	}
	c.PostViewURLs = make(map[ShootMode][]string, len(urls))
	for m, l := range urls {
		c.PostViewURLs[m] = append([]string(nil), l...)
	}
	return &c
}
