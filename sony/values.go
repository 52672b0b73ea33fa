package sony

import (
	"fmt"
	"math"

	"github.com/hanwen/go-sonyptp/ptp"
)

// enumTable maps the raw values of an enumerated property to names.
type enumTable struct {
	code  uint16
	typ   ptp.DataTypeSelector
	names map[int64]string
	codes map[string]int64
}

func newEnumTable(code uint16, typ ptp.DataTypeSelector, names map[int64]string) *enumTable {
	t := &enumTable{
		code:  code,
		typ:   typ,
		names: names,
		codes: make(map[string]int64, len(names)),
	}
	// Aliases encode to the lowest raw value.
	for v, n := range names {
		if old, ok := t.codes[n]; ok && old < v {
			continue
		}
		t.codes[n] = v
	}
	return t
}

func (t *enumTable) name(v ptp.DataDependentType) (string, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return "", false
	}
	n, ok := t.names[i]
	return n, ok
}

func (t *enumTable) propValue(name string) (ptp.PropValue, error) {
	v, ok := t.codes[name]
	if !ok {
		return ptp.PropValue{}, fmt.Errorf("%w: unknown %s value %q", ErrInvalidPayload, ptp.DPC_names[int(t.code)], name)
	}
	return ptp.PropValue{Code: t.code, Type: t.typ, Value: v}, nil
}

type ShootMode string

const (
	ShootPhoto             ShootMode = "photo"
	ShootVideo             ShootMode = "video"
	ShootAudio             ShootMode = "audio"
	ShootInterval          ShootMode = "interval"
	ShootLoop              ShootMode = "loop"
	ShootContinuous        ShootMode = "continuous"
	ShootBulb              ShootMode = "bulb"
	ShootHighFrameRate     ShootMode = "highFrameRate"
	ShootSingleBracket     ShootMode = "singleBracket"
	ShootContinuousBracket ShootMode = "continuousBracket"
	ShootTimelapse         ShootMode = "timelapse"
)

// ExposureMode is the exposure program mode, including the video,
// slow & quick and high frame rate families and the scene modes.
type ExposureMode string

const (
	ExposureProgrammedAuto                ExposureMode = "programmedAuto"
	ExposureAperturePriority              ExposureMode = "aperturePriority"
	ExposureShutterPriority               ExposureMode = "shutterPriority"
	ExposureManual                        ExposureMode = "manual"
	ExposureVideoProgrammedAuto           ExposureMode = "videoProgrammedAuto"
	ExposureVideoAperturePriority         ExposureMode = "videoAperturePriority"
	ExposureVideoShutterPriority          ExposureMode = "videoShutterPriority"
	ExposureVideoManual                   ExposureMode = "videoManual"
	ExposureSlowAndQuickProgrammedAuto    ExposureMode = "slowAndQuickProgrammedAuto"
	ExposureSlowAndQuickAperturePriority  ExposureMode = "slowAndQuickAperturePriority"
	ExposureSlowAndQuickShutterPriority   ExposureMode = "slowAndQuickShutterPriority"
	ExposureSlowAndQuickManual            ExposureMode = "slowAndQuickManual"
	ExposureIntelligentAuto               ExposureMode = "intelligentAuto"
	ExposureSuperiorAuto                  ExposureMode = "superiorAuto"
	ExposurePanorama                      ExposureMode = "panorama"
	ExposureHighFrameRateProgrammedAuto   ExposureMode = "highFrameRateProgrammedAuto"
	ExposureHighFrameRateAperturePriority ExposureMode = "highFrameRateAperturePriority"
	ExposureHighFrameRateShutterPriority  ExposureMode = "highFrameRateShutterPriority"
	ExposureHighFrameRateManual           ExposureMode = "highFrameRateManual"
)

var exposureModes = newEnumTable(ptp.DPC_ExposureProgramMode, ptp.DTC_UINT32, map[int64]string{
	0x00010002: string(ExposureProgrammedAuto),
	0x00020003: string(ExposureAperturePriority),
	0x00030004: string(ExposureShutterPriority),
	0x00000001: string(ExposureManual),
	0x00078050: string(ExposureVideoProgrammedAuto),
	0x00078051: string(ExposureVideoAperturePriority),
	0x00078052: string(ExposureVideoShutterPriority),
	0x00078053: string(ExposureVideoManual),
	0x00098059: string(ExposureSlowAndQuickProgrammedAuto),
	0x0009805a: string(ExposureSlowAndQuickAperturePriority),
	0x0009805b: string(ExposureSlowAndQuickShutterPriority),
	0x0009805c: string(ExposureSlowAndQuickManual),
	0x00048000: string(ExposureIntelligentAuto),
	0x00048001: string(ExposureSuperiorAuto),
	0x00068041: string(ExposurePanorama),
	0x00088080: string(ExposureHighFrameRateProgrammedAuto),
	0x00088081: string(ExposureHighFrameRateAperturePriority),
	0x00088082: string(ExposureHighFrameRateShutterPriority),
	0x00088083: string(ExposureHighFrameRateManual),
	0x00000007: "portrait",
	0x00058011: "sport",
	0x00058012: "sunset",
	0x00058013: "night",
	0x00058014: "landscape",
	0x00058015: "macro",
	0x00058016: "handheldTwilight",
	0x00058017: "nightPortrait",
	0x00058018: "antiMotionBlur",
	0x00058019: "pet",
	0x0005801a: "food",
	0x0005801b: "fireworks",
	0x0005801c: "highSensitivity",
})

func (m ExposureMode) IsVideo() bool {
	switch m {
	case ExposureVideoProgrammedAuto, ExposureVideoAperturePriority, ExposureVideoShutterPriority, ExposureVideoManual:
		return true
	}
	return false
}

func (m ExposureMode) IsHighFrameRate() bool {
	switch m {
	case ExposureHighFrameRateProgrammedAuto, ExposureHighFrameRateAperturePriority,
		ExposureHighFrameRateShutterPriority, ExposureHighFrameRateManual:
		return true
	}
	return false
}

func (m ExposureMode) PropValue() (ptp.PropValue, error) {
	return exposureModes.propValue(string(m))
}

// DialControl selects whether the mode dial or the remote decides the
// exposure program mode.
type DialControl string

const (
	DialCamera DialControl = "camera"
	DialApp    DialControl = "app"
)

var dialControls = newEnumTable(ptp.DPC_SONY_ExposureProgramModeControl, ptp.DTC_UINT8, map[int64]string{
	0: string(DialCamera),
	1: string(DialApp),
})

func (d DialControl) PropValue() (ptp.PropValue, error) {
	return dialControls.propValue(string(d))
}

type WhiteBalanceMode string

const (
	WhiteBalanceAuto      WhiteBalanceMode = "auto"
	WhiteBalanceColorTemp WhiteBalanceMode = "colorTemp"
)

var whiteBalanceModes = newEnumTable(ptp.DPC_WhiteBalance, ptp.DTC_UINT16, map[int64]string{
	0x0002: string(WhiteBalanceAuto),
	0x0004: "daylight",
	0x8011: "shade",
	0x8010: "cloudy",
	0x0006: "incandescent",
	0x8001: "fluorescentWarmWhite",
	0x8002: "fluorescentCoolWhite",
	0x8003: "fluorescentDayWhite",
	0x8004: "fluorescentDaylight",
	0x0007: "flash",
	0x8030: "underwaterAuto",
	0x8012: string(WhiteBalanceColorTemp),
	0x8020: "c1",
	0x8021: "c2",
	0x8022: "c3",
})

// WhiteBalance is a white balance mode plus the Kelvin temperature,
// which is only known for the color temperature mode.
type WhiteBalance struct {
	Mode        WhiteBalanceMode `json:"mode"`
	Temperature *int             `json:"temperature,omitempty"`
}

func (w WhiteBalance) String() string {
	if w.Temperature != nil {
		return fmt.Sprintf("%s %dK", w.Mode, *w.Temperature)
	}
	return string(w.Mode)
}

type FocusMode string

const (
	FocusManual     FocusMode = "manual"
	FocusSingle     FocusMode = "AF-S"
	FocusContinuous FocusMode = "AF-C"
	FocusAutomatic  FocusMode = "AF-A"
	FocusDirect     FocusMode = "DMF"
)

var focusModes = newEnumTable(ptp.DPC_FocusMode, ptp.DTC_UINT16, map[int64]string{
	0x0001: string(FocusManual),
	0x0002: string(FocusSingle),
	0x8004: string(FocusContinuous),
	0x8005: string(FocusAutomatic),
	0x8006: string(FocusDirect),
})

// IsAuto reports whether the camera hunts for focus on half press.
func (m FocusMode) IsAuto() bool {
	return m == FocusSingle || m == FocusContinuous || m == FocusAutomatic
}

func (m FocusMode) PropValue() (ptp.PropValue, error) {
	return focusModes.propValue(string(m))
}

type FlashMode string

var flashModes = newEnumTable(ptp.DPC_FlashMode, ptp.DTC_UINT16, map[int64]string{
	0x0001: "auto",
	0x0002: "off",
	0x0003: "fill",
	0x8001: "slowSynchro",
	0x8003: "rearSync",
})

func (m FlashMode) PropValue() (ptp.PropValue, error) {
	return flashModes.propValue(string(m))
}

type StillQuality string

var stillQualities = newEnumTable(ptp.DPC_SONY_StillQuality, ptp.DTC_UINT8, map[int64]string{
	1: "extraFine",
	2: "fine",
	3: "standard",
})

func (q StillQuality) PropValue() (ptp.PropValue, error) {
	return stillQualities.propValue(string(q))
}

type StillFormat string

var stillFormats = newEnumTable(ptp.DPC_SONY_StillFormat, ptp.DTC_UINT8, map[int64]string{
	1: "raw",
	2: "rawAndJpeg",
	3: "jpeg",
	4: "rawAndHeif",
	5: "heif",
})

func (f StillFormat) PropValue() (ptp.PropValue, error) {
	return stillFormats.propValue(string(f))
}

type VideoFileFormat string

var videoFileFormats = newEnumTable(ptp.DPC_SONY_MovieFormat, ptp.DTC_UINT8, map[int64]string{
	0: "none",
	1: "dvd",
	2: "m2ps",
	3: "avchd",
	4: "mp4",
	5: "dv",
	6: "xavc",
	7: "mxf",
	8: "xavc_s_4k",
	9: "xavc_s_hd",
})

func (f VideoFileFormat) PropValue() (ptp.PropValue, error) {
	return videoFileFormats.propValue(string(f))
}

type VideoQuality string

var videoQualities = newEnumTable(ptp.DPC_SONY_MovieQuality, ptp.DTC_UINT16, indexNames(
	"none", "60p_50m", "30p_50m", "24p_50m", "50p_50m", "25p_50m",
	"60i_24m_fx", "50i_24m_fx", "60i_17m_fh", "50i_17m_fh",
	"60p_28m_ps", "50p_28m_ps", "24p_24m_fx", "25p_24m_fx",
	"24p_17m_fh", "25p_17m_fh", "120p_50m", "100p_50m",
	"30p_16m", "25p_16m", "30p_6m", "25p_6m",
	"60p_28m", "50p_28m", "60p_25m", "50p_25m",
	"30p_16m_alt", "25p_16m_alt", "120p_100m", "100p_100m",
	"120p_60m", "100p_60m", "30p_100m", "25p_100m",
	"24p_100m", "30p_60m", "25p_60m", "24p_60m",
	"600m_422_10bit", "500m_422_10bit", "400m_420_10bit", "300m_422_10bit",
	"280m_422_10bit", "250m_422_10bit", "240m_422_10bit", "222m_422_10bit",
	"200m_422_10bit", "200m_420_10bit", "200m_420_8bit", "185m_422_10bit",
	"150m_420_10bit", "150m_420_8bit", "140m_422_10bit", "111m_422_10bit",
	"100m_422_10bit", "100m_420_10bit", "100m_420_8bit", "93m_422_10bit",
	"89m_422_10bit", "75m_420_10bit", "60m_420_8bit", "50m_422_10bit",
	"50m_420_10bit", "50m_420_8bit", "45m_420_10bit", "30m_420_10bit",
	"25m_420_8bit", "16m_420_8bit",
))

func indexNames(names ...string) map[int64]string {
	m := make(map[int64]string, len(names))
	for i, n := range names {
		m[int64(i)] = n
	}
	return m
}

func (q VideoQuality) PropValue() (ptp.PropValue, error) {
	return videoQualities.propValue(string(q))
}

type LiveViewQuality string

var liveViewQualities = newEnumTable(ptp.DPC_SONY_LiveViewQuality, ptp.DTC_UINT8, map[int64]string{
	1: "displaySpeed",
	2: "imageQuality",
})

func (q LiveViewQuality) PropValue() (ptp.PropValue, error) {
	return liveViewQualities.propValue(string(q))
}

// LockStatus is the state of the exposure settings lock, which also
// reports high frame rate buffering and recording.
type LockStatus string

const (
	LockNormal    LockStatus = "normal"
	LockStandby   LockStatus = "standby"
	LockLocked    LockStatus = "locked"
	LockBuffering LockStatus = "buffering"
	LockRecording LockStatus = "recording"
)

var lockStatuses = newEnumTable(ptp.DPC_SONY_ExposureSettingsLockStatus, ptp.DTC_UINT8, map[int64]string{
	1: string(LockNormal),
	2: string(LockStandby),
	3: string(LockLocked),
	4: string(LockBuffering),
	5: string(LockRecording),
})

type FocusStatus string

const (
	FocusNotFocussing FocusStatus = "notFocussing"
	FocusFocused      FocusStatus = "focused"
)

var focusStatuses = newEnumTable(ptp.DPC_SONY_FocusFound, ptp.DTC_UINT8, map[int64]string{
	1: string(FocusNotFocussing),
	2: string(FocusFocused),
	3: string(FocusFocused),
})

func (s FocusStatus) PropValue() (ptp.PropValue, error) {
	if s == FocusFocused {
		return ptp.PropValue{Code: ptp.DPC_SONY_FocusFound, Type: ptp.DTC_UINT8, Value: 2}, nil
	}
	return ptp.PropValue{Code: ptp.DPC_SONY_FocusFound, Type: ptp.DTC_UINT8, Value: 1}, nil
}

// Aperture is an f-number. The camera reports it multiplied by 100.
type Aperture float64

func decodeAperture(v ptp.DataDependentType) (Aperture, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return 0, false
	}
	return Aperture(float64(i) / 100), true
}

func (a Aperture) PropValue() (ptp.PropValue, error) {
	return ptp.PropValue{Code: ptp.DPC_FNumber, Type: ptp.DTC_UINT16, Value: int64(math.Round(float64(a) * 100))}, nil
}

func (a Aperture) String() string {
	return fmt.Sprintf("f/%g", float64(a))
}

// ExposureCompensation is in EV. The camera reports it multiplied by
// 1000.
type ExposureCompensation float64

func decodeExposureCompensation(v ptp.DataDependentType) (ExposureCompensation, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return 0, false
	}
	return ExposureCompensation(float64(i) / 1000), true
}

func (c ExposureCompensation) PropValue() (ptp.PropValue, error) {
	return ptp.PropValue{Code: ptp.DPC_ExposureBiasCompensation, Type: ptp.DTC_INT16, Value: int64(math.Round(float64(c) * 1000))}, nil
}

// ShutterSpeed is an exposure time in seconds as a fraction. The zero
// value is BULB.
type ShutterSpeed struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

var Bulb = ShutterSpeed{}

func (s ShutterSpeed) IsBulb() bool {
	return (s.Numerator == 0 && s.Denominator == 0) || (s.Numerator == -1 && s.Denominator == -1)
}

func decodeShutterSpeed(v ptp.DataDependentType) (ShutterSpeed, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return ShutterSpeed{}, false
	}
	num, den, err := splitHalves(uint32(i))
	if err != nil {
		return ShutterSpeed{}, false
	}
	return ShutterSpeed{Numerator: int(num), Denominator: int(den)}, true
}

func (s ShutterSpeed) PropValue() (ptp.PropValue, error) {
	v := ptp.PropValue{Code: ptp.DPC_SONY_ShutterSpeed, Type: ptp.DTC_UINT32}
	if !s.IsBulb() {
		raw, err := joinHalves(uint16(s.Numerator), uint16(s.Denominator))
		if err != nil {
			return v, err
		}
		v.Value = int64(raw)
	}
	return v, nil
}

func (s ShutterSpeed) String() string {
	switch {
	case s.IsBulb():
		return "BULB"
	case s.Denominator == 1:
		return fmt.Sprintf("%d\"", s.Numerator)
	case s.Denominator == 10:
		return fmt.Sprintf("%g\"", float64(s.Numerator)/10)
	}
	return fmt.Sprintf("%d/%d", s.Numerator, s.Denominator)
}

type ISOKind string

const (
	ISOAuto               ISOKind = "auto"
	ISOMultiFrameNRAuto   ISOKind = "multiFrameNRAuto"
	ISOMultiFrameNRHiAuto ISOKind = "multiFrameNRHiAuto"
	ISONative             ISOKind = "native"
	ISOExtended           ISOKind = "extended"
	ISOMultiFrameNR       ISOKind = "multiFrameNR"
	ISOMultiFrameNRHi     ISOKind = "multiFrameNRHi"
)

// ISO is a sensitivity. Value is zero for the automatic kinds.
type ISO struct {
	Kind  ISOKind `json:"kind"`
	Value int     `json:"value,omitempty"`
}

var isoAutoValues = map[ISOKind]int64{
	ISOAuto:               0x00ffffff,
	ISOMultiFrameNRAuto:   0x01ffffff,
	ISOMultiFrameNRHiAuto: 0x02ffffff,
}

var isoFlags = map[ISOKind]uint16{
	ISONative:         0x0000,
	ISOExtended:       0x1000,
	ISOMultiFrameNR:   0x0100,
	ISOMultiFrameNRHi: 0x0200,
}

func decodeISO(v ptp.DataDependentType) (ISO, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return ISO{}, false
	}
	for k, raw := range isoAutoValues {
		if raw == i {
			return ISO{Kind: k}, true
		}
	}
	flag, value, err := splitHalves(uint32(i))
	if err != nil {
		return ISO{}, false
	}
	iso := ISO{Kind: ISONative, Value: int(value)}
	for k, f := range isoFlags {
		if f == flag {
			iso.Kind = k
		}
	}
	return iso, true
}

func (i ISO) PropValue() (ptp.PropValue, error) {
	v := ptp.PropValue{Code: ptp.DPC_SONY_ISO, Type: ptp.DTC_UINT32}
	if raw, ok := isoAutoValues[i.Kind]; ok {
		v.Value = raw
		return v, nil
	}
	flag, ok := isoFlags[i.Kind]
	if !ok {
		return v, fmt.Errorf("%w: unknown ISO kind %q", ErrInvalidPayload, i.Kind)
	}
	raw, err := joinHalves(flag, uint16(i.Value))
	if err != nil {
		return v, err
	}
	v.Value = int64(raw)
	return v, nil
}

func (i ISO) String() string {
	if _, ok := isoAutoValues[i.Kind]; ok {
		return string(i.Kind)
	}
	if i.Kind == ISONative {
		return fmt.Sprint(i.Value)
	}
	return fmt.Sprintf("%d (%s)", i.Value, i.Kind)
}

var imageSizes = newEnumTable(ptp.DPC_SONY_ImageSize, ptp.DTC_UINT8, map[int64]string{
	1: "L",
	2: "M",
	3: "S",
})

var aspectRatios = newEnumTable(ptp.DPC_SONY_AspectRatio, ptp.DTC_UINT8, map[int64]string{
	1: "3:2",
	2: "16:9",
	4: "1:1",
})

// StillSize is an image size class with the aspect ratio it was
// reported with. AspectRatio is empty when unknown.
type StillSize struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	Size        string `json:"size"`
}

// zoomPosition decodes the packed zoom property. The low word is the
// position in percent.
func zoomPosition(v ptp.DataDependentType) (float64, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return 0, false
	}
	_, lo, err := splitHalves(uint32(i))
	if err != nil {
		return 0, false
	}
	return float64(lo) / 100, true
}

type BatteryInfo struct {
	Level   float64 `json:"level"`
	NearEnd bool    `json:"nearEnd,omitempty"`
}

type StorageInfo struct {
	SpaceForImages *int `json:"spaceForImages,omitempty"`
	RecordableTime *int `json:"recordableTime,omitempty"`
	RecordTarget   bool `json:"recordTarget"`
	NoMedia        bool `json:"noMedia"`
}

type HighFrameRateStatus string

const (
	HighFrameRateIdle      HighFrameRateStatus = "idle"
	HighFrameRateBuffering HighFrameRateStatus = "buffering"
	HighFrameRateRecording HighFrameRateStatus = "recording"
)

// ZoomDirection is the argument of startZooming.
type ZoomDirection string

const (
	ZoomIn  ZoomDirection = "in"
	ZoomOut ZoomDirection = "out"
)
