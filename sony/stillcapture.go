package sony

import (
	"fmt"

	"github.com/hanwen/go-sonyptp/ptp"
)

// StillCaptureMode is the raw value of the still capture mode property.
// One value encodes the shoot mode together with the continuous speed,
// the self timer and the bracket in use.
type StillCaptureMode uint32

const (
	StillSingle             StillCaptureMode = 0x00000001
	StillContinuousHighPlus StillCaptureMode = 0x00018010
	StillContinuousLow      StillCaptureMode = 0x00018012
	StillContinuous         StillCaptureMode = 0x00018015
	StillContinuousS        StillCaptureMode = 0x00018014
	StillContinuousHigh     StillCaptureMode = 0x00010002
	StillTimer10            StillCaptureMode = 0x00038004
	StillTimer5             StillCaptureMode = 0x00038003
	StillTimer2             StillCaptureMode = 0x00038005
)

type ContinuousShootingMode string

const (
	ContinuousSingle     ContinuousShootingMode = "single"
	ContinuousContinuous ContinuousShootingMode = "continuous"
)

type ContinuousShootingSpeed string

const (
	SpeedRegular  ContinuousShootingSpeed = "regular"
	SpeedHigh     ContinuousShootingSpeed = "high"
	SpeedHighPlus ContinuousShootingSpeed = "highPlus"
	SpeedLow      ContinuousShootingSpeed = "low"
	SpeedS        ContinuousShootingSpeed = "s"
)

var speedModes = map[ContinuousShootingSpeed]StillCaptureMode{
	SpeedRegular:  StillContinuous,
	SpeedHigh:     StillContinuousHigh,
	SpeedHighPlus: StillContinuousHighPlus,
	SpeedLow:      StillContinuousLow,
	SpeedS:        StillContinuousS,
}

func (s ContinuousShootingSpeed) PropValue() (ptp.PropValue, error) {
	m, ok := speedModes[s]
	if !ok {
		m = StillContinuous
	}
	return m.PropValue()
}

type BracketMode string

const (
	BracketExposure     BracketMode = "exposure"
	BracketWhiteBalance BracketMode = "whiteBalance"
	BracketDRO          BracketMode = "dro"
)

// Bracket describes a bracketed capture. Exposure brackets carry the
// image count and the EV step, white balance and DRO brackets a level.
type Bracket struct {
	Mode     BracketMode `json:"mode"`
	Images   int         `json:"images,omitempty"`
	Interval float64     `json:"interval,omitempty"`
	Level    string      `json:"level,omitempty"`
}

func (b Bracket) String() string {
	if b.Mode == BracketExposure {
		return fmt.Sprintf("%s %d x %gEV", b.Mode, b.Images, b.Interval)
	}
	return fmt.Sprintf("%s %s", b.Mode, b.Level)
}

type stillCaptureFacets struct {
	name        string
	shoot       ShootMode
	speed       ContinuousShootingSpeed
	timer       float64
	singleTimer bool
	bracket     *Bracket
}

var stillCaptureModes = map[StillCaptureMode]stillCaptureFacets{
	StillSingle:             {name: "single", shoot: ShootPhoto},
	StillContinuousHighPlus: {name: "continuousHighPlus", shoot: ShootContinuous, speed: SpeedHighPlus},
	StillContinuousLow:      {name: "continuousLow", shoot: ShootContinuous, speed: SpeedLow},
	StillContinuous:         {name: "continuous", shoot: ShootContinuous, speed: SpeedRegular},
	StillContinuousS:        {name: "continuousS", shoot: ShootContinuous, speed: SpeedS},
	StillContinuousHigh:     {name: "continuousHigh", shoot: ShootContinuous, speed: SpeedHigh},
	0x00098032:              {name: "singleBurstHigh"},
	0x00098031:              {name: "singleBurstMedium"},
	0x00098030:              {name: "singleBurstLow"},
	StillTimer10:            {name: "timer10", shoot: ShootPhoto, timer: 10, singleTimer: true},
	StillTimer5:             {name: "timer5", shoot: ShootPhoto, timer: 5, singleTimer: true},
	StillTimer2:             {name: "timer2", shoot: ShootPhoto, timer: 2, singleTimer: true},
	0x00088008:              {name: "timer10_3", timer: 10},
	0x00088009:              {name: "timer10_5", timer: 10},
	0x0008800c:              {name: "timer5_3", timer: 5},
	0x0008800d:              {name: "timer5_5", timer: 5},
	0x0008800e:              {name: "timer2_3", timer: 2},
	0x0008800f:              {name: "timer2_5", timer: 2},
	0x00068028:              {name: "whiteBalanceBracketHigh", shoot: ShootSingleBracket, bracket: &Bracket{Mode: BracketWhiteBalance, Level: "high"}},
	0x00068018:              {name: "whiteBalanceBracketLow", shoot: ShootSingleBracket, bracket: &Bracket{Mode: BracketWhiteBalance, Level: "low"}},
	0x00078029:              {name: "droBracketHigh", shoot: ShootSingleBracket, bracket: &Bracket{Mode: BracketDRO, Level: "high"}},
	0x00078019:              {name: "droBracketLow", shoot: ShootSingleBracket, bracket: &Bracket{Mode: BracketDRO, Level: "low"}},
}

// Exposure bracket values are 0x000T8NSS: T is 4 for continuous and 5
// for single brackets, N the image count and SS the EV step code.
func init() {
	steps := []struct {
		interval   float64
		continuous uint32
		single     uint32
		counts     []uint32
	}{
		{0.3, 0x37, 0x36, []uint32{3, 5, 9}},
		{0.5, 0x57, 0x56, []uint32{3, 5, 9}},
		{0.7, 0x77, 0x76, []uint32{3, 5, 9}},
		{1, 0x11, 0x10, []uint32{3, 5, 9}},
		{2, 0x21, 0x20, []uint32{3, 5}},
		{3, 0x31, 0x30, []uint32{3, 5}},
	}
	for _, s := range steps {
		for _, n := range s.counts {
			b := Bracket{Mode: BracketExposure, Images: int(n), Interval: s.interval}
			cb, sb := b, b
			stillCaptureModes[StillCaptureMode(0x48000|n<<8|s.continuous)] = stillCaptureFacets{
				name:    fmt.Sprintf("continuousBracket%g_%d", s.interval, n),
				shoot:   ShootContinuousBracket,
				bracket: &cb,
			}
			stillCaptureModes[StillCaptureMode(0x58000|n<<8|s.single)] = stillCaptureFacets{
				name:    fmt.Sprintf("singleBracket%g_%d", s.interval, n),
				shoot:   ShootSingleBracket,
				bracket: &sb,
			}
		}
	}
}

func decodeStillCaptureMode(v ptp.DataDependentType) (StillCaptureMode, bool) {
	i, ok := ptp.Int64(v)
	if !ok {
		return 0, false
	}
	m := StillCaptureMode(i)
	_, ok = stillCaptureModes[m]
	return m, ok
}

func (m StillCaptureMode) String() string {
	if f, ok := stillCaptureModes[m]; ok {
		return f.name
	}
	return fmt.Sprintf("StillCaptureMode(%#x)", uint32(m))
}

// ShootMode returns the shoot mode, or false for the modes without one
// (bursts and multi-shot timers).
func (m StillCaptureMode) ShootMode() (ShootMode, bool) {
	f := stillCaptureModes[m]
	return f.shoot, f.shoot != ""
}

func (m StillCaptureMode) ContinuousShootingMode() (ContinuousShootingMode, bool) {
	if stillCaptureModes[m].speed == "" {
		return "", false
	}
	return ContinuousContinuous, true
}

func (m StillCaptureMode) ContinuousShootingSpeed() (ContinuousShootingSpeed, bool) {
	s := stillCaptureModes[m].speed
	return s, s != ""
}

// TimerDuration is the self timer delay in seconds, zero without timer.
func (m StillCaptureMode) TimerDuration() float64 {
	return stillCaptureModes[m].timer
}

func (m StillCaptureMode) IsSingleTimerMode() bool {
	return stillCaptureModes[m].singleTimer
}

func (m StillCaptureMode) SingleBracket() (Bracket, bool) {
	f := stillCaptureModes[m]
	if f.shoot != ShootSingleBracket {
		return Bracket{}, false
	}
	return *f.bracket, true
}

func (m StillCaptureMode) ContinuousBracket() (Bracket, bool) {
	f := stillCaptureModes[m]
	if f.shoot != ShootContinuousBracket {
		return Bracket{}, false
	}
	return *f.bracket, true
}

func (m StillCaptureMode) PropValue() (ptp.PropValue, error) {
	return ptp.PropValue{Code: ptp.DPC_StillCaptureMode, Type: ptp.DTC_UINT32, Value: int64(m)}, nil
}

// bracketMode finds the still capture mode for a bracket of the given
// shoot mode.
func bracketMode(shoot ShootMode, b Bracket) (StillCaptureMode, error) {
	for m, f := range stillCaptureModes {
		if f.shoot == shoot && f.bracket != nil && *f.bracket == b {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: no %s mode for %s", ErrInvalidPayload, shoot, b)
}

// selfTimerMode maps a delay in seconds to the single shot timer mode.
// Unknown delays select single shooting.
func selfTimerMode(d float64) StillCaptureMode {
	switch d {
	case 2:
		return StillTimer2
	case 5:
		return StillTimer5
	case 10:
		return StillTimer10
	}
	return StillSingle
}
